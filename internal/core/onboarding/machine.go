package onboarding

import (
	"MTLAJoin/internal/core/domain"
)

// EventKind is an input to the transition function.
type EventKind int

const (
	EventRestart EventKind = iota
	EventHandleCheck
	EventAgree
	EventDisagree
	EventText
	EventRecheck
	EventAddressHelp
)

// Event carries what the transition function needs to decide. Info is the
// ledger view of the address in play and is only set for events that
// LookupFor asked for.
type Event struct {
	Kind          EventKind
	HandleVisible bool
	Text          string
	Info          *domain.AccountInfo
}

// Outcome is the result of one transition.
type Outcome struct {
	Next    domain.ApplicantState
	Patch   domain.ApplicantPatch
	Replies []Reply
	// Completed is set only on the transition into StateCompleted.
	Completed bool
}

// LookupFor reports the address that must be evaluated on the ledger before
// ev can be applied in s.
func LookupFor(s domain.Snapshot, ev Event) (string, bool) {
	switch ev.Kind {
	case EventText:
		if acceptsAddress(s.State) {
			addr := normalizeText(ev.Text)
			if IsWellFormedAddress(addr) {
				return addr, true
			}
		}
	case EventRecheck:
		if s.State == domain.StateCheckingAddress && s.LedgerAddress != "" {
			return s.LedgerAddress, true
		}
	}
	return "", false
}

// Transition applies ev to s. It performs no I/O.
func Transition(s domain.Snapshot, ev Event) Outcome {
	stay := Outcome{Next: s.State}

	switch ev.Kind {
	case EventRestart:
		return Outcome{
			Next:    domain.StateCheckingHandle,
			Patch:   domain.ApplicantPatch{Reset: true},
			Replies: []Reply{{Kind: ReplyWelcome}},
		}

	case EventHandleCheck:
		if s.State != domain.StateCheckingHandle {
			return stay
		}
		if !ev.HandleVisible {
			stay.Patch = domain.ApplicantPatch{HasHandle: boolPtr(false)}
			stay.Replies = []Reply{{Kind: ReplyNoHandle}}
			return stay
		}
		return advance(s, domain.StateAgreement,
			domain.ApplicantPatch{HasHandle: boolPtr(true)},
			Reply{Kind: ReplyAgreement})

	case EventAgree:
		if s.State != domain.StateAgreement {
			return stay
		}
		return advance(s, domain.StateEnteringAddress,
			domain.ApplicantPatch{AgreedToTerms: boolPtr(true)},
			Reply{Kind: ReplyEnterAddress})

	case EventDisagree:
		if s.State == domain.StateAgreement {
			stay.Replies = []Reply{{Kind: ReplyAgreementRequired}}
		}
		return stay

	case EventAddressHelp:
		if acceptsAddress(s.State) {
			stay.Replies = []Reply{{Kind: ReplyAddressHelp}}
		}
		return stay

	case EventText:
		return onText(s, ev)

	case EventRecheck:
		addr, ok := LookupFor(s, ev)
		if !ok {
			return stay
		}
		if ev.Info == nil || !ev.Info.Exists {
			stay.Replies = []Reply{{Kind: ReplyChecking}, {Kind: ReplyInvalidAddress}}
			return stay
		}
		out := check(s, addr, *ev.Info)
		out.Replies = append([]Reply{{Kind: ReplyChecking}}, out.Replies...)
		return out
	}
	return stay
}

func onText(s domain.Snapshot, ev Event) Outcome {
	stay := Outcome{Next: s.State}

	switch {
	case s.State == domain.StateAgreement:
		// Free text never advances the agreement step.
		stay.Replies = []Reply{{Kind: ReplyChooseOption}}
		return stay
	case !acceptsAddress(s.State):
		// Address-like input on a stale screen is dropped without a reply.
		return stay
	}

	addr, ok := LookupFor(s, ev)
	if !ok {
		stay.Replies = []Reply{{Kind: ReplyInvalidAddress}}
		return stay
	}
	if ev.Info == nil || !ev.Info.Exists {
		stay.Replies = []Reply{{Kind: ReplyChecking}, {Kind: ReplyInvalidAddress}}
		return stay
	}
	if ev.Info.IsMember() {
		stay.Replies = []Reply{{Kind: ReplyChecking}, {Kind: ReplyAlreadyMember, Balance: ev.Info.AssetBalance}}
		return stay
	}

	accepted := s
	accepted.State = domain.StateCheckingAddress
	accepted.LedgerAddress = addr

	out := check(accepted, addr, *ev.Info)
	out.Patch = domain.ApplicantPatch{
		State:         statePtr(domain.StateCheckingAddress),
		LedgerAddress: stringPtr(addr),
	}.Merge(out.Patch)
	out.Replies = append([]Reply{{Kind: ReplyChecking}}, out.Replies...)
	return out
}

// check runs the admission predicate for an applicant in CheckingAddress.
func check(s domain.Snapshot, addr string, info domain.AccountInfo) Outcome {
	patch := verificationPatch(info)
	flags := s.Flags
	flags.HasTrustline = info.HasTrustline
	flags.HasRecommendation = info.Recommendation.HasVerifiedRecommendation

	if Admit(flags, addr, info) {
		out := advance(s, domain.StateCompleted, patch, Reply{Kind: ReplyCompleted, Address: addr})
		out.Completed = true
		return out
	}

	out := Outcome{Next: domain.StateCheckingAddress, Patch: patch}
	for _, issue := range AggregateIssues(flags, info) {
		out.Replies = append(out.Replies, Reply{Kind: ReplyIssue, Issue: &issue})
	}
	return out
}

func advance(s domain.Snapshot, to domain.ApplicantState, patch domain.ApplicantPatch, replies ...Reply) Outcome {
	if to != s.State {
		patch.State = statePtr(to)
	}
	return Outcome{Next: to, Patch: patch, Replies: replies}
}

func acceptsAddress(state domain.ApplicantState) bool {
	return state == domain.StateEnteringAddress || state == domain.StateCheckingAddress
}

func statePtr(s domain.ApplicantState) *domain.ApplicantState { return &s }
