package stellar

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 10 * time.Second

// Config holds the gateway settings.
type Config struct {
	HorizonURL        string
	FeedURL           string
	RecommendTag      string
	Asset             domain.Asset
	VerifiedThreshold decimal.Decimal
	Timeout           time.Duration
}

// Gateway reads accounts from Horizon and recommendations from the
// reputation feed.
type Gateway struct {
	cfg     Config
	horizon horizonAccounts
	feed    *feedClient
	metrics ports.OnboardingMetrics
	log     zerolog.Logger
}

var _ ports.LedgerGateway = (*Gateway)(nil) // Ensure compliance

// NewGateway fills in defaults for the endpoints and timeout left empty in
// cfg. The verified threshold has no default and must be positive.
func NewGateway(cfg Config, metrics ports.OnboardingMetrics, baseLogger *zerolog.Logger) (*Gateway, error) {
	if !cfg.VerifiedThreshold.IsPositive() {
		return nil, fmt.Errorf("verified threshold must be positive, got %s", cfg.VerifiedThreshold)
	}
	if cfg.HorizonURL == "" {
		cfg.HorizonURL = PublicHorizonURL
	}
	if cfg.FeedURL == "" {
		cfg.FeedURL = DefaultFeedURL
	}
	if cfg.RecommendTag == "" {
		cfg.RecommendTag = DefaultRecommendTag
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	log := baseLogger.With().Str("component", "stellar_gateway").Logger()
	log.Info().
		Str("horizon", cfg.HorizonURL).
		Str("feed", cfg.FeedURL).
		Str("asset", cfg.Asset.String()).
		Str("threshold", cfg.VerifiedThreshold.String()).
		Msg("Ledger gateway configured")

	return &Gateway{
		cfg:     cfg,
		horizon: newHorizonClient(cfg.HorizonURL, cfg.Timeout),
		feed:    &feedClient{url: cfg.FeedURL, http: &http.Client{Timeout: cfg.Timeout}},
		metrics: metrics,
		log:     log,
	}, nil
}

// GetAccountInfo loads the account and scans the feed concurrently.
// A feed failure is degraded into Recommendation.Err; only a Horizon
// failure other than not-found is returned as an error.
func (g *Gateway) GetAccountInfo(ctx context.Context, address string) (domain.AccountInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	var (
		acc *hProtocol.Account
		rec domain.Recommendation
	)
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		start := time.Now()
		a, err := loadAccount(egCtx, g.horizon, address)
		if errors.Is(err, ErrAccountNotFound) {
			g.metrics.ObserveLedgerCall("horizon", time.Since(start), nil)
			return nil
		}
		g.metrics.ObserveLedgerCall("horizon", time.Since(start), err)
		if err != nil {
			return err
		}
		acc = a
		return nil
	})

	eg.Go(func() error {
		r, err := g.GetRecommendation(egCtx, address)
		if err != nil {
			r = domain.Recommendation{Err: err.Error()}
		}
		rec = r
		return nil
	})

	if err := eg.Wait(); err != nil {
		g.log.Error().Err(err).Str("address", address).Msg("Horizon lookup failed")
		return domain.AccountInfo{}, err
	}

	if acc == nil {
		g.log.Debug().Str("address", address).Msg("Account does not exist")
		return domain.AccountInfo{Exists: false}, nil
	}

	hasTrustline, balance := trustline(acc, g.cfg.Asset)
	g.log.Debug().
		Str("address", address).
		Bool("trustline", hasTrustline).
		Str("balance", balance.String()).
		Bool("verified_recommendation", rec.HasVerifiedRecommendation).
		Msg("Account loaded")

	return domain.AccountInfo{
		Exists:         true,
		HasTrustline:   hasTrustline,
		AssetBalance:   balance,
		Recommendation: rec,
	}, nil
}

// GetRecommendation fetches a fresh feed snapshot and scans it.
func (g *Gateway) GetRecommendation(ctx context.Context, address string) (domain.Recommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	snap, err := g.feed.fetch(ctx)
	g.metrics.ObserveLedgerCall("feed", time.Since(start), err)
	if err != nil {
		g.log.Error().Err(err).Str("address", address).Msg("Reputation feed unavailable")
		return domain.Recommendation{}, err
	}

	rec := ScanRecommendations(snap, address, g.cfg.RecommendTag, g.cfg.Asset.Code, g.cfg.VerifiedThreshold)
	g.log.Debug().
		Str("address", address).
		Int("feed_accounts", len(snap.Accounts)).
		Int("recommenders", len(rec.Recommenders)).
		Msg("Reputation feed scanned")
	return rec, nil
}
