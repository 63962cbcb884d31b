package config

import (
	"MTLAJoin/internal/core/domain"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DefaultSecretsDir is where Docker mounts secrets. A file there named after
// an environment variable wins over the variable itself.
const DefaultSecretsDir = "/run/secrets"

const (
	defaultAsset         = "MTLAP:GCNVDZIHGX473FEI7IXCUAEXUJ4BGCKEMHF36VYP5EMS7PX2QBLAMTLA"
	defaultFeedURL       = "https://bsn.expert/json"
	defaultRecommendTag  = "RecommendToMTLA"
	defaultAgreementLink = "https://github.com/Montelibero/MTLA-Documents/blob/main/Internal/Agreement/Agreement.%s.md"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv      string
	LogLevel    string
	MetricsAddr string

	Bot      BotConfig
	Storage  StorageConfig
	Ledger   LedgerConfig
	Operator OperatorConfig
	Links    LinksConfig
}

type BotConfig struct {
	Token   string
	Mode    string // polling or webhook
	Workers int
	Webhook WebhookConfig
}

type WebhookConfig struct {
	URL        string
	ListenPort int
}

type StorageConfig struct {
	Driver      string // postgres or memory
	DatabaseURL string
	MaxConns    int32
}

type LedgerConfig struct {
	Network           string
	HorizonURL        string // Empty means derive from Network
	Asset             domain.Asset
	FeedURL           string
	RecommendTag      string
	VerifiedThreshold decimal.Decimal
	Timeout           time.Duration
}

type OperatorConfig struct {
	AdminIDs     []int64
	ReminderDays int
	ReportLimit  int
}

// IsAdmin reports whether id may use operator commands.
func (c OperatorConfig) IsAdmin(id int64) bool {
	for _, admin := range c.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

// LinksConfig holds the external links shown to applicants.
type LinksConfig struct {
	Agreement         map[domain.Locale]string
	UsernameGuide     string
	WalletBot         string
	LightEntryArticle string
	Trustline         string
	SquareChat        string
	FeedbackBot       string
}

// AgreementFor returns the agreement link for locale, falling back to English.
func (l LinksConfig) AgreementFor(locale domain.Locale) string {
	if link, ok := l.Agreement[locale]; ok && link != "" {
		return link
	}
	return l.Agreement[domain.LocaleEN]
}

// IsDev reports whether human-readable logging should be used.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

// bindings maps viper keys to the environment variables feeding them.
var bindings = map[string]string{
	"app.env":                "APP_ENV",
	"log.level":              "LOG_LEVEL",
	"metrics.addr":           "METRICS_ADDR",
	"bot.token":              "TELEGRAM_TOKEN",
	"bot.mode":               "BOT_MODE",
	"bot.workers":            "BOT_WORKERS",
	"bot.webhook.url":        "WEBHOOK_URL",
	"bot.webhook.port":       "WEBHOOK_PORT",
	"storage.driver":         "STORAGE_DRIVER",
	"storage.database_url":   "DATABASE_URL",
	"storage.max_conns":      "DATABASE_MAX_CONNS",
	"ledger.network":         "STELLAR_NETWORK",
	"ledger.horizon_url":     "HORIZON_URL",
	"ledger.asset":           "MTLAP_ASSET",
	"ledger.feed_url":        "REPUTATION_FEED_URL",
	"ledger.recommend_tag":   "RECOMMEND_TAG",
	"ledger.threshold":       "VERIFIED_THRESHOLD",
	"ledger.timeout":         "LEDGER_TIMEOUT",
	"operator.admin_ids":     "ADMIN_IDS",
	"operator.reminder_days": "REMINDER_DAYS",
	"operator.report_limit":  "REPORT_LIMIT",
	"links.agreement_en":     "AGREEMENT_LINK_EN",
	"links.agreement_ru":     "AGREEMENT_LINK_RU",
	"links.username_guide":   "USERNAME_GUIDE_LINK",
	"links.wallet_bot":       "WALLET_BOT_LINK",
	"links.light_entry":      "LIGHT_ENTRY_LINK",
	"links.trustline":        "TRUSTLINE_LINK",
	"links.square_chat":      "SQUARE_CHAT_LINK",
	"links.feedback_bot":     "FEEDBACK_BOT",
}

// Load loads configuration from secrets, environment variables and .env.
func Load() (*Config, error) {
	return LoadFrom(DefaultSecretsDir)
}

// LoadFrom is Load with a custom secrets directory.
func LoadFrom(secretsDir string) (*Config, error) {
	// 1. Load .env file into the process environment.
	// A missing file is fine in prod.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// 2. Explicitly bind viper keys to env var names
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	// 3. Secrets override everything
	for key, env := range bindings {
		secret, ok, err := readSecret(secretsDir, env)
		if err != nil {
			return nil, err
		}
		if ok {
			v.Set(key, secret)
		}
	}

	// 4. Set defaults
	v.SetDefault("app.env", "prod")
	v.SetDefault("log.level", "info")
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.workers", 8)
	v.SetDefault("bot.webhook.port", 8443)
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.max_conns", 10)
	v.SetDefault("ledger.network", "public")
	v.SetDefault("ledger.asset", defaultAsset)
	v.SetDefault("ledger.feed_url", defaultFeedURL)
	v.SetDefault("ledger.recommend_tag", defaultRecommendTag)
	v.SetDefault("ledger.threshold", "2")
	v.SetDefault("ledger.timeout", "10s")
	v.SetDefault("operator.reminder_days", 7)
	v.SetDefault("operator.report_limit", 20)
	v.SetDefault("links.agreement_en", fmt.Sprintf(defaultAgreementLink, "en"))
	v.SetDefault("links.agreement_ru", fmt.Sprintf(defaultAgreementLink, "ru"))
	v.SetDefault("links.username_guide", "https://core.stellar.org/docs/glossary/accounts/#username")
	v.SetDefault("links.wallet_bot", "https://t.me/MyMTLWalletBot")
	v.SetDefault("links.light_entry", "https://montelibero.org/2022/03/10/quick-entry-to-the-montelibero-tokenomics/")
	v.SetDefault("links.trustline", "https://eurmtl.me/asset/MTLAP")
	v.SetDefault("links.square_chat", "https://t.me/Montelibero_Agora")
	v.SetDefault("links.feedback_bot", "@mtl_helper_bot")

	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	cfg := Config{
		AppEnv:      v.GetString("app.env"),
		LogLevel:    v.GetString("log.level"),
		MetricsAddr: v.GetString("metrics.addr"),
		Bot: BotConfig{
			Token:   v.GetString("bot.token"),
			Mode:    v.GetString("bot.mode"),
			Workers: v.GetInt("bot.workers"),
			Webhook: WebhookConfig{
				URL:        v.GetString("bot.webhook.url"),
				ListenPort: v.GetInt("bot.webhook.port"),
			},
		},
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			DatabaseURL: v.GetString("storage.database_url"),
			MaxConns:    v.GetInt32("storage.max_conns"),
		},
		Ledger: LedgerConfig{
			Network:      v.GetString("ledger.network"),
			HorizonURL:   v.GetString("ledger.horizon_url"),
			FeedURL:      v.GetString("ledger.feed_url"),
			RecommendTag: v.GetString("ledger.recommend_tag"),
			Timeout:      v.GetDuration("ledger.timeout"),
		},
		Operator: OperatorConfig{
			ReminderDays: v.GetInt("operator.reminder_days"),
			ReportLimit:  v.GetInt("operator.report_limit"),
		},
		Links: LinksConfig{
			Agreement: map[domain.Locale]string{
				domain.LocaleEN: v.GetString("links.agreement_en"),
				domain.LocaleRU: v.GetString("links.agreement_ru"),
			},
			UsernameGuide:     v.GetString("links.username_guide"),
			WalletBot:         v.GetString("links.wallet_bot"),
			LightEntryArticle: v.GetString("links.light_entry"),
			Trustline:         v.GetString("links.trustline"),
			SquareChat:        v.GetString("links.square_chat"),
			FeedbackBot:       v.GetString("links.feedback_bot"),
		},
	}

	// 5. Parse the structured values
	asset, err := domain.ParseAsset(v.GetString("ledger.asset"))
	if err != nil {
		return nil, fmt.Errorf("MTLAP_ASSET: %w", err)
	}
	cfg.Ledger.Asset = asset

	threshold, err := decimal.NewFromString(v.GetString("ledger.threshold"))
	if err != nil {
		return nil, fmt.Errorf("VERIFIED_THRESHOLD: %w", err)
	}
	cfg.Ledger.VerifiedThreshold = threshold

	admins, err := parseIDs(v.GetString("operator.admin_ids"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}
	cfg.Operator.AdminIDs = admins

	// 6. Validation
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Bot.Token == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is not set in secrets, environment or .env file"))
	}
	switch c.Bot.Mode {
	case "polling":
	case "webhook":
		if c.Bot.Webhook.URL == "" {
			errs = append(errs, errors.New("WEBHOOK_URL is required in webhook mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("BOT_MODE must be polling or webhook, got %q", c.Bot.Mode))
	}
	if c.Bot.Workers < 1 {
		errs = append(errs, fmt.Errorf("BOT_WORKERS must be positive, got %d", c.Bot.Workers))
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", c.Storage.Driver))
	}
	if c.Ledger.Network != "public" && c.Ledger.Network != "testnet" {
		errs = append(errs, fmt.Errorf("STELLAR_NETWORK must be public or testnet, got %q", c.Ledger.Network))
	}
	if !c.Ledger.VerifiedThreshold.IsPositive() {
		errs = append(errs, errors.New("VERIFIED_THRESHOLD must be positive"))
	}
	if c.Ledger.Timeout <= 0 {
		errs = append(errs, errors.New("LEDGER_TIMEOUT must be a positive duration"))
	}
	return errors.Join(errs...)
}

// readSecret returns the trimmed content of dir/name when that file exists.
func readSecret(dir, name string) (string, bool, error) {
	if dir == "" {
		return "", false, nil
	}
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(b)), true, nil
}

// parseIDs parses a comma separated list of Telegram user ids.
func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
