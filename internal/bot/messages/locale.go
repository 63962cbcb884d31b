package messages

import (
	"MTLAJoin/internal/core/domain"

	"golang.org/x/text/language"
)

var (
	supported = []language.Tag{language.English, language.Russian}
	matcher   = language.NewMatcher(supported)
)

// MatchLocale picks the closest supported locale for a client language
// code such as "ru-RU" or "uk". Unknown or empty codes get the default.
func MatchLocale(code string) domain.Locale {
	if code == "" {
		return domain.DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(code)
	if err != nil || len(tags) == 0 {
		return domain.DefaultLocale
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return domain.DefaultLocale
	}
	base, _ := supported[idx].Base()
	if locale, ok := domain.ParseLocale(base.String()); ok {
		return locale
	}
	return domain.DefaultLocale
}
