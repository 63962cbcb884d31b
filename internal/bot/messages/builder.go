package messages

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"fmt"
	"strings"
)

// ParseModeHTML is the only rich mode the bot uses.
const ParseModeHTML = "HTML"

// Builder composes one outgoing message line by line. Catalogue keys are
// resolved in the builder's locale, which defaults to English.
type Builder struct {
	params ports.SendMessageParams
	locale domain.Locale
	lines  []string
}

func NewBuilder(chatID int64) *Builder {
	return &Builder{
		params: ports.SendMessageParams{ChatID: chatID},
		locale: domain.DefaultLocale,
	}
}

// In switches the locale used by Say, Sayf and Keys.
func (b *Builder) In(loc domain.Locale) *Builder {
	b.locale = loc
	return b
}

// WithText replaces everything written so far with text.
func (b *Builder) WithText(text string) *Builder {
	b.lines = []string{text}
	return b
}

// Line appends raw text as its own line.
func (b *Builder) Line(text string) *Builder {
	b.lines = append(b.lines, text)
	return b
}

// Say appends the catalogue entry for key, followed on the same line by
// any trailing parts separated with spaces. Links usually go there.
func (b *Builder) Say(key Key, trailing ...string) *Builder {
	parts := append([]string{Text(b.locale, key)}, trailing...)
	return b.Line(strings.Join(parts, " "))
}

// Sayf appends the catalogue entry for key used as a format string.
func (b *Builder) Sayf(key Key, args ...any) *Builder {
	return b.Line(fmt.Sprintf(Text(b.locale, key), args...))
}

// Gap leaves an empty line between paragraphs.
func (b *Builder) Gap() *Builder {
	return b.Line("")
}

func (b *Builder) WithParseMode(mode string) *Builder {
	b.params.ParseMode = mode
	return b
}

// WithoutPreview stops the client from unfurling links.
func (b *Builder) WithoutPreview() *Builder {
	b.params.DisableWebPagePreview = true
	return b
}

// WithRemoveKeyboard hides the reply keyboard. It drops any markup set earlier.
func (b *Builder) WithRemoveKeyboard() *Builder {
	b.params.RemoveKeyboard = true
	b.params.ReplyMarkup = nil
	return b
}

func (b *Builder) WithInlineButtons(rows [][]ports.Button) *Builder {
	b.params.RemoveKeyboard = false
	b.params.ReplyMarkup = &ports.ReplyMarkup{IsInline: true, Buttons: rows}
	return b
}

// Keys shows a reply keyboard whose labels are the catalogue entries for
// keys, laid out at most columns per row.
func (b *Builder) Keys(columns int, keys ...Key) *Builder {
	labels := make([]ports.Button, len(keys))
	for i, k := range keys {
		labels[i] = ports.Button{Text: Text(b.locale, k)}
	}
	b.params.RemoveKeyboard = false
	b.params.ReplyMarkup = &ports.ReplyMarkup{Buttons: grid(labels, columns)}
	return b
}

// Build joins the written lines and returns the message.
func (b *Builder) Build() ports.SendMessageParams {
	out := b.params
	out.Text = strings.Join(b.lines, "\n")
	return out
}

// grid splits buttons into rows of at most columns each. A non-positive
// column count means one button per row.
func grid(buttons []ports.Button, columns int) [][]ports.Button {
	if columns < 1 {
		columns = 1
	}
	rows := make([][]ports.Button, 0, (len(buttons)+columns-1)/columns)
	for len(buttons) > 0 {
		n := min(columns, len(buttons))
		rows = append(rows, buttons[:n:n])
		buttons = buttons[n:]
	}
	return rows
}
