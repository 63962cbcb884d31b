package onboarding

import (
	"MTLAJoin/internal/core/domain"

	"github.com/shopspring/decimal"
)

// IntentKind is what the front-end says the applicant did.
type IntentKind string

const (
	IntentStart       IntentKind = "start"
	IntentRestart     IntentKind = "restart"
	IntentSetLanguage IntentKind = "set_language"
	IntentText        IntentKind = "text"
	IntentButton      IntentKind = "button"
)

// ButtonTag identifies a button the applicant tapped.
type ButtonTag string

const (
	ButtonHandleInstalled ButtonTag = "username_installed"
	ButtonAgree           ButtonTag = "agree"
	ButtonDisagree        ButtonTag = "disagree"
	ButtonRepeatCheck     ButtonTag = "repeat_check"
	ButtonRestart         ButtonTag = "restart"
	ButtonAddressHelp     ButtonTag = "address_help"
)

// Intent is one input from the conversational front-end.
type Intent struct {
	ApplicantID int64
	Kind        IntentKind
	// Handle is the applicant's currently visible handle, empty if none.
	Handle string
	// Locale is the front-end's guess for new applicants.
	Locale   domain.Locale
	Text     string
	Button   ButtonTag
	Language string // Requested language code for IntentSetLanguage
}

// ReplyKind tells the front-end which message to render.
type ReplyKind string

const (
	ReplyWelcome           ReplyKind = "welcome"
	ReplyNoHandle          ReplyKind = "no_handle"
	ReplyAgreement         ReplyKind = "agreement"
	ReplyAgreementRequired ReplyKind = "agreement_required"
	ReplyChooseOption      ReplyKind = "choose_option"
	ReplyEnterAddress      ReplyKind = "enter_address"
	ReplyAddressHelp       ReplyKind = "address_help"
	ReplyInvalidAddress    ReplyKind = "invalid_address"
	ReplyAlreadyMember     ReplyKind = "already_member"
	ReplyChecking          ReplyKind = "checking"
	ReplyIssue             ReplyKind = "issue"
	ReplyCompleted         ReplyKind = "completed"
	ReplyLanguageChanged   ReplyKind = "language_changed"
	ReplyLanguageMenu      ReplyKind = "language_menu"
	ReplyNotStarted        ReplyKind = "not_started"
)

// Reply is one message of a Prompt.
type Reply struct {
	Kind    ReplyKind
	Issue   *domain.Issue   // ReplyIssue
	Address string          // ReplyCompleted
	Balance decimal.Decimal // ReplyAlreadyMember
}

// Prompt is the ordered list of replies for one intent.
type Prompt struct {
	Locale  domain.Locale
	Replies []Reply
}

// Kinds lists the reply kinds in order.
func (p Prompt) Kinds() []ReplyKind {
	kinds := make([]ReplyKind, 0, len(p.Replies))
	for _, r := range p.Replies {
		kinds = append(kinds, r.Kind)
	}
	return kinds
}

// Issues returns the issues carried by the prompt, in order.
func (p Prompt) Issues() []domain.Issue {
	var issues []domain.Issue
	for _, r := range p.Replies {
		if r.Kind == ReplyIssue && r.Issue != nil {
			issues = append(issues, *r.Issue)
		}
	}
	return issues
}
