package stellar

import (
	"MTLAJoin/internal/core/domain"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
)

const (
	PublicHorizonURL  = "https://horizon.stellar.org"
	TestnetHorizonURL = "https://horizon-testnet.stellar.org"
)

// ErrAccountNotFound is returned when Horizon has no account for an address.
var ErrAccountNotFound = errors.New("stellar account not found")

// HorizonURLFor returns the Horizon endpoint for a network name.
// Anything other than "testnet" means the public network.
func HorizonURLFor(network string) string {
	if network == "testnet" {
		return TestnetHorizonURL
	}
	return PublicHorizonURL
}

// trustline reports whether the account trusts asset and the balance it holds.
// Both code and issuer must match; a same-named asset from another issuer
// does not count.
func trustline(acc *hProtocol.Account, asset domain.Asset) (bool, decimal.Decimal) {
	for _, b := range acc.Balances {
		if b.Type == "native" || b.Type == "liquidity_pool_shares" {
			continue
		}
		if b.Code != asset.Code || b.Issuer != asset.Issuer {
			continue
		}
		bal, err := decimal.NewFromString(b.Balance)
		if err != nil {
			bal = decimal.Zero
		}
		return true, bal
	}
	return false, decimal.Zero
}

// horizonAccounts is the part of horizonclient.Client the gateway needs.
type horizonAccounts interface {
	AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error)
}

var _ horizonAccounts = (*horizonclient.Client)(nil)

func newHorizonClient(baseURL string, timeout time.Duration) *horizonclient.Client {
	c := &horizonclient.Client{
		HorizonURL: baseURL,
		HTTP:       &http.Client{Timeout: timeout},
		AppName:    "mtla-join",
	}
	c.SetHorizonTimeout(timeout)
	return c
}

// loadAccount fetches one account. The SDK call takes no context, so the
// client's own timeout bounds it; ctx is only checked before the call.
func loadAccount(ctx context.Context, client horizonAccounts, address string) (*hProtocol.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc, err := client.AccountDetail(horizonclient.AccountRequest{AccountID: address})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("horizon account %s: %w", address, err)
	}
	return &acc, nil
}
