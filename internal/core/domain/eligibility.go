package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Asset identifies a ledger asset. Codes are not globally unique, so both
// the code and the issuer are needed.
type Asset struct {
	Code   string
	Issuer string
}

func (a Asset) String() string {
	return a.Code + ":" + a.Issuer
}

// ParseAsset parses the "CODE:ISSUER" form.
func ParseAsset(s string) (Asset, error) {
	code, issuer, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || code == "" || issuer == "" {
		return Asset{}, fmt.Errorf("invalid asset %q, expected CODE:ISSUER", s)
	}
	return Asset{Code: code, Issuer: issuer}, nil
}

// Recommender is one account that recommends an applicant's address.
type Recommender struct {
	AccountID string
	Balance   decimal.Decimal // Membership asset balance of the recommender
	Verified  bool
}

// Recommendation is the verdict computed from the reputation feed.
type Recommendation struct {
	HasVerifiedRecommendation bool
	HasAnyRecommendation      bool
	Recommenders              []Recommender
	Err                       string // Set when the feed could not be read
}

// FirstVerified returns the first verified recommender, if any.
func (r Recommendation) FirstVerified() (Recommender, bool) {
	for _, rec := range r.Recommenders {
		if rec.Verified {
			return rec, true
		}
	}
	return Recommender{}, false
}

// AccountInfo is everything the evaluator knows about a ledger address.
type AccountInfo struct {
	Exists         bool
	HasTrustline   bool
	AssetBalance   decimal.Decimal
	Recommendation Recommendation
	Err            string // Set when the ledger could not be reached
}

// IsMember reports whether the address already holds the membership asset.
func (i AccountInfo) IsMember() bool {
	return i.HasTrustline && i.AssetBalance.IsPositive()
}

// IssueKind classifies one unmet admission condition.
type IssueKind string

const (
	IssueMissingHandle                     IssueKind = "missing_handle"
	IssueMissingAgreement                  IssueKind = "missing_agreement"
	IssueMissingTrustline                  IssueKind = "missing_trustline"
	IssueMissingOrUnverifiedRecommendation IssueKind = "missing_or_unverified_recommendation"
)

// Issue is one blocker shown to the applicant.
type Issue struct {
	Kind IssueKind
	// Unverified distinguishes "recommended by a non-verified account" from
	// "no recommendation at all". Only used with the recommendation kind.
	Unverified bool
}
