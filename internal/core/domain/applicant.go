package domain

import (
	"errors"
	"fmt"
	"time"
)

// ApplicantState is a custom type for our state machine ENUM
type ApplicantState string

const (
	StateCheckingHandle  ApplicantState = "checking_username"
	StateAgreement       ApplicantState = "agreement"
	StateEnteringAddress ApplicantState = "entering_address"
	StateCheckingAddress ApplicantState = "checking_address"
	StateCompleted       ApplicantState = "completed"
)

// States lists every state in protocol order.
var States = []ApplicantState{
	StateCheckingHandle,
	StateAgreement,
	StateEnteringAddress,
	StateCheckingAddress,
	StateCompleted,
}

// Valid reports whether s is one of the known states.
func (s ApplicantState) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Locale is the applicant's conversation language.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleRU Locale = "ru"
)

// DefaultLocale is used when nothing better is known.
const DefaultLocale = LocaleEN

// ParseLocale returns the supported locale for code, or false.
func ParseLocale(code string) (Locale, bool) {
	switch Locale(code) {
	case LocaleEN, LocaleRU:
		return Locale(code), true
	}
	return "", false
}

// Flags are the verification results of the current attempt.
type Flags struct {
	HasHandle         bool
	AgreedToTerms     bool
	HasTrustline      bool
	HasRecommendation bool
}

// Progress is the reporting view of an applicant's attempt.
// It is always derived from Flags and LedgerAddress, never stored on its own.
type Progress struct {
	HandleCheck    bool
	Agreement      bool
	AddressEntered bool
	TrustlineCheck bool
	Recommendation bool
}

// Applicant represents a person going through the onboarding protocol.
type Applicant struct {
	ID                int64 // Telegram user ID
	Handle            string
	Locale            Locale
	State             ApplicantState
	Flags             Flags
	LedgerAddress     *string // Nullable
	RecommenderHandle *string // Nullable
	CreatedAt         time.Time
	LastActivityAt    time.Time
}

// ApplicantStats is an aggregate over all applicants.
type ApplicantStats struct {
	Total     int
	Completed int
	Active    int // Applicants with activity inside the requested window
	ByState   map[ApplicantState]int
}

// NewApplicant builds a fresh applicant in the initial state.
func NewApplicant(id int64, handle string, locale Locale, now time.Time) *Applicant {
	return &Applicant{
		ID:             id,
		Handle:         handle,
		Locale:         locale,
		State:          StateCheckingHandle,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// Progress derives the reporting view from the primary flags.
func (a *Applicant) Progress() Progress {
	return Progress{
		HandleCheck:    a.Flags.HasHandle,
		Agreement:      a.Flags.AgreedToTerms,
		AddressEntered: a.LedgerAddress != nil,
		TrustlineCheck: a.Flags.HasTrustline,
		Recommendation: a.Flags.HasRecommendation,
	}
}

// Address returns the stored ledger address or "".
func (a *Applicant) Address() string {
	if a.LedgerAddress == nil {
		return ""
	}
	return *a.LedgerAddress
}

// ErrInconsistentApplicant is returned by CheckInvariants.
var ErrInconsistentApplicant = errors.New("inconsistent applicant")

// CheckInvariants reports combinations the onboarding flow can never produce,
// such as a completed applicant without an agreement.
func (a *Applicant) CheckInvariants() error {
	if !a.State.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInconsistentApplicant, a.State)
	}
	switch a.State {
	case StateCompleted:
		if !a.Flags.HasHandle || !a.Flags.AgreedToTerms || !a.Flags.HasTrustline ||
			!a.Flags.HasRecommendation || a.LedgerAddress == nil {
			return fmt.Errorf("%w: completed with unmet conditions", ErrInconsistentApplicant)
		}
	case StateCheckingAddress:
		if a.LedgerAddress == nil {
			return fmt.Errorf("%w: checking without an address", ErrInconsistentApplicant)
		}
		fallthrough
	case StateEnteringAddress:
		if !a.Flags.AgreedToTerms {
			return fmt.Errorf("%w: %s without agreement", ErrInconsistentApplicant, a.State)
		}
		fallthrough
	case StateAgreement:
		if !a.Flags.HasHandle {
			return fmt.Errorf("%w: %s without a handle", ErrInconsistentApplicant, a.State)
		}
	case StateCheckingHandle:
		if a.Flags.AgreedToTerms || a.LedgerAddress != nil {
			return fmt.Errorf("%w: handle step with later progress", ErrInconsistentApplicant)
		}
	}
	return nil
}

// Snapshot is the part of an applicant the state machine reasons about.
type Snapshot struct {
	State         ApplicantState
	Flags         Flags
	LedgerAddress string
}

// Snapshot returns the machine view of the applicant.
func (a *Applicant) Snapshot() Snapshot {
	return Snapshot{
		State:         a.State,
		Flags:         a.Flags,
		LedgerAddress: a.Address(),
	}
}

// ApplicantPatch is a partial update. Nil fields are left untouched; an
// empty RecommenderHandle clears the recommender. When Reset is set, the attempt is cleared first (state, flags, address,
// recommender) and the remaining fields are applied on top.
type ApplicantPatch struct {
	Reset             bool
	Handle            *string
	Locale            *Locale
	State             *ApplicantState
	HasHandle         *bool
	AgreedToTerms     *bool
	HasTrustline      *bool
	HasRecommendation *bool
	LedgerAddress     *string
	RecommenderHandle *string
}

// IsEmpty reports whether the patch changes nothing besides activity time.
func (p ApplicantPatch) IsEmpty() bool {
	return !p.Reset && p.Handle == nil && p.Locale == nil && p.State == nil &&
		p.HasHandle == nil && p.AgreedToTerms == nil && p.HasTrustline == nil &&
		p.HasRecommendation == nil && p.LedgerAddress == nil && p.RecommenderHandle == nil
}

// Apply merges the patch into a copy of the applicant.
func (p ApplicantPatch) Apply(a Applicant, now time.Time) Applicant {
	if p.Reset {
		a.State = StateCheckingHandle
		a.Flags = Flags{}
		a.LedgerAddress = nil
		a.RecommenderHandle = nil
	}
	if p.Handle != nil {
		a.Handle = *p.Handle
	}
	if p.Locale != nil {
		a.Locale = *p.Locale
	}
	if p.State != nil {
		a.State = *p.State
	}
	if p.HasHandle != nil {
		a.Flags.HasHandle = *p.HasHandle
	}
	if p.AgreedToTerms != nil {
		a.Flags.AgreedToTerms = *p.AgreedToTerms
	}
	if p.HasTrustline != nil {
		a.Flags.HasTrustline = *p.HasTrustline
	}
	if p.HasRecommendation != nil {
		a.Flags.HasRecommendation = *p.HasRecommendation
	}
	if p.LedgerAddress != nil {
		addr := *p.LedgerAddress
		a.LedgerAddress = &addr
	}
	if p.RecommenderHandle != nil {
		if rec := *p.RecommenderHandle; rec != "" {
			a.RecommenderHandle = &rec
		} else {
			a.RecommenderHandle = nil
		}
	}
	a.LastActivityAt = now
	return a
}

// Merge layers other on top of p.
func (p ApplicantPatch) Merge(other ApplicantPatch) ApplicantPatch {
	if other.Reset {
		p = ApplicantPatch{Reset: true, Handle: p.Handle, Locale: p.Locale}
	}
	if other.Handle != nil {
		p.Handle = other.Handle
	}
	if other.Locale != nil {
		p.Locale = other.Locale
	}
	if other.State != nil {
		p.State = other.State
	}
	if other.HasHandle != nil {
		p.HasHandle = other.HasHandle
	}
	if other.AgreedToTerms != nil {
		p.AgreedToTerms = other.AgreedToTerms
	}
	if other.HasTrustline != nil {
		p.HasTrustline = other.HasTrustline
	}
	if other.HasRecommendation != nil {
		p.HasRecommendation = other.HasRecommendation
	}
	if other.LedgerAddress != nil {
		p.LedgerAddress = other.LedgerAddress
	}
	if other.RecommenderHandle != nil {
		p.RecommenderHandle = other.RecommenderHandle
	}
	return p
}
