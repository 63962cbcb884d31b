package stellar

import (
	"MTLAJoin/internal/core/domain"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	DefaultFeedURL      = "https://bsn.expert/json"
	DefaultRecommendTag = "RecommendToMTLA"
)

// FeedSnapshot is the reputation feed document. Tag and balance values are
// kept raw because the feed does not guarantee their shape.
type FeedSnapshot struct {
	Accounts map[string]FeedAccount `json:"accounts"`
}

type FeedAccount struct {
	Tags     map[string]json.RawMessage `json:"tags"`
	Balances map[string]json.RawMessage `json:"balances"`
}

// balance returns the account's balance of code. Missing or unparsable
// values count as zero.
func (a FeedAccount) balance(code string) decimal.Decimal {
	raw, ok := a.Balances[code]
	if !ok {
		return decimal.Zero
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw) // numeric literal
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// recommends reports whether the tag's value list contains address.
// A tag whose value is not a list is ignored.
func (a FeedAccount) recommends(tag, address string) bool {
	raw, ok := a.Tags[tag]
	if !ok {
		return false
	}
	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return false
	}
	for _, v := range values {
		var s string
		if json.Unmarshal(v, &s) == nil && s == address {
			return true
		}
	}
	return false
}

// ScanRecommendations walks the whole snapshot looking for accounts that tag
// address with tag. Recommenders are returned in account id order.
func ScanRecommendations(snap *FeedSnapshot, address, tag, assetCode string, threshold decimal.Decimal) domain.Recommendation {
	var rec domain.Recommendation
	if snap == nil {
		return rec
	}

	ids := make([]string, 0, len(snap.Accounts))
	for id := range snap.Accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		acc := snap.Accounts[id]
		if !acc.recommends(tag, address) {
			continue
		}
		bal := acc.balance(assetCode)
		verified := bal.GreaterThanOrEqual(threshold)
		rec.Recommenders = append(rec.Recommenders, domain.Recommender{
			AccountID: id,
			Balance:   bal,
			Verified:  verified,
		})
		rec.HasAnyRecommendation = true
		if verified {
			rec.HasVerifiedRecommendation = true
		}
	}
	return rec
}

type feedClient struct {
	url  string
	http *http.Client
}

func (c *feedClient) fetch(ctx context.Context) (*FeedSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var snap FeedSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return &snap, nil
}
