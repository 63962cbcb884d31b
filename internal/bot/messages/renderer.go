package messages

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/onboarding"
	"MTLAJoin/internal/core/ports"
	"MTLAJoin/internal/shared/config"
	"fmt"
	"html"
)

// Callback data shared between the renderer and the callback handlers.
const (
	CallbackUsernameInstalled = "username_installed"
	CallbackLanguagePrefix    = "lang_"
)

// Renderer turns onboarding prompts into outgoing messages.
type Renderer struct {
	links config.LinksConfig
}

// NewRenderer creates a renderer using the configured external links.
func NewRenderer(links config.LinksConfig) *Renderer {
	return &Renderer{links: links}
}

// Render returns the messages for p, in order.
func (r *Renderer) Render(chatID int64, p onboarding.Prompt) []ports.SendMessageParams {
	out := make([]ports.SendMessageParams, 0, len(p.Replies))
	for _, reply := range p.Replies {
		out = append(out, r.reply(chatID, p.Locale, reply)...)
	}
	return out
}

// TryLater is sent when the applicant's intent could not be processed.
func (r *Renderer) TryLater(chatID int64, locale domain.Locale) ports.SendMessageParams {
	return NewBuilder(chatID).In(locale).Say(KeyTryLater).Build()
}

// LanguageMenu offers the supported languages as inline buttons.
func (r *Renderer) LanguageMenu(chatID int64, locale domain.Locale) ports.SendMessageParams {
	return NewBuilder(chatID).In(locale).
		Say(KeyChooseLanguage).
		WithInlineButtons([][]ports.Button{{
			{Text: "English", Data: CallbackLanguagePrefix + string(domain.LocaleEN)},
			{Text: "Русский", Data: CallbackLanguagePrefix + string(domain.LocaleRU)},
		}}).
		Build()
}

func (r *Renderer) reply(chatID int64, loc domain.Locale, reply onboarding.Reply) []ports.SendMessageParams {
	b := NewBuilder(chatID).In(loc)

	switch reply.Kind {
	case onboarding.ReplyWelcome:
		b.Say(KeyWelcome)
	case onboarding.ReplyNoHandle:
		return []ports.SendMessageParams{r.noHandle(chatID, loc)}
	case onboarding.ReplyAgreement:
		b.Say(KeyAgreementText).Line(r.links.AgreementFor(loc)).
			Keys(2, KeyBtnAgree, KeyBtnDisagree)
	case onboarding.ReplyAgreementRequired:
		b.Say(KeyAgreementRequired).Keys(1, KeyBtnAgree)
	case onboarding.ReplyChooseOption:
		b.Say(KeyChooseOption).Keys(2, KeyBtnAgree, KeyBtnDisagree)
	case onboarding.ReplyEnterAddress:
		b.Say(KeyEnterAddress).Keys(1, KeyBtnAddressHelp)
	case onboarding.ReplyAddressHelp:
		b.Say(KeyAddressExplanation, r.links.LightEntryArticle).WithRemoveKeyboard()
	case onboarding.ReplyInvalidAddress:
		b.Say(KeyInvalidAddress)
	case onboarding.ReplyAlreadyMember:
		b.Say(KeyAlreadyMember).
			Sayf(KeyMemberBalance, reply.Balance.String()).
			Say(KeyTryDifferent)
	case onboarding.ReplyChecking:
		b.Say(KeyChecking).WithRemoveKeyboard()
	case onboarding.ReplyIssue:
		if reply.Issue == nil {
			return nil
		}
		return []ports.SendMessageParams{r.issue(chatID, loc, *reply.Issue)}
	case onboarding.ReplyCompleted:
		return r.completed(chatID, loc, reply.Address)
	case onboarding.ReplyLanguageChanged:
		b.Say(KeyLanguageChanged)
	case onboarding.ReplyLanguageMenu:
		return []ports.SendMessageParams{r.LanguageMenu(chatID, loc)}
	case onboarding.ReplyNotStarted:
		b.Say(KeyNotStarted)
	default:
		return nil
	}
	return []ports.SendMessageParams{b.Build()}
}

func (r *Renderer) noHandle(chatID int64, loc domain.Locale) ports.SendMessageParams {
	return NewBuilder(chatID).In(loc).
		Say(KeyNoUsername).Gap().
		Say(KeyUsernameGuide, r.links.UsernameGuide).
		WithInlineButtons([][]ports.Button{{
			{Text: Text(loc, KeyBtnUsernameInstalled), Data: CallbackUsernameInstalled},
		}}).
		Build()
}

func (r *Renderer) issue(chatID int64, loc domain.Locale, issue domain.Issue) ports.SendMessageParams {
	b := NewBuilder(chatID).In(loc)

	switch issue.Kind {
	case domain.IssueMissingHandle:
		return r.noHandle(chatID, loc)
	case domain.IssueMissingAgreement:
		return b.Say(KeyAgreementRequired).Line(r.links.AgreementFor(loc)).
			Keys(1, KeyBtnAgree).
			Build()
	case domain.IssueMissingTrustline:
		b.Say(KeyNoTrustline).Gap().
			Say(KeyTrustlineHelp, r.links.SquareChat).Gap().
			Say(KeyOpenTrustline, r.links.Trustline)
	default:
		head := KeyNoRecommendation
		if issue.Unverified {
			head = KeyUnverifiedRecommend
		}
		b.Say(head).Gap().Say(KeyRecommendationHelp, r.links.SquareChat)
	}
	return b.WithoutPreview().Keys(1, KeyBtnRepeatCheck).Build()
}

func (r *Renderer) completed(chatID int64, loc domain.Locale, address string) []ports.SendMessageParams {
	application := fmt.Sprintf(Text(loc, KeyApplicationText), address)

	intro := NewBuilder(chatID).In(loc).
		Say(KeyAllChecksPassed).Gap().
		Say(KeyFeedbackInstruction, r.links.FeedbackBot).
		WithoutPreview().
		WithRemoveKeyboard().
		Build()
	ready := NewBuilder(chatID).
		Line(html.EscapeString(Text(loc, KeyFeedbackText))).Gap().
		Line("<code>" + html.EscapeString(application) + "</code>").
		WithParseMode(ParseModeHTML).
		Build()
	return []ports.SendMessageParams{intro, ready}
}
