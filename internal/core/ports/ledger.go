package ports

import (
	"MTLAJoin/internal/core/domain"
	"context"
)

// LedgerGateway reads account and recommendation data from outside systems.
type LedgerGateway interface {
	// GetAccountInfo looks the address up on the ledger. An unknown account
	// is not an error: it yields Exists=false. The recommendation part is
	// filled in best effort and never fails the call.
	GetAccountInfo(ctx context.Context, address string) (domain.AccountInfo, error)

	// GetRecommendation scans the reputation feed for recommendations of address.
	GetRecommendation(ctx context.Context, address string) (domain.Recommendation, error)
}
