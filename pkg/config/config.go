package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Wallet       WalletConfig
	Marketplace  MarketplaceConfig
	Operator     OperatorConfig
	Payouts      PayoutsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SELLERPAY_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"SELLERPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SELLERPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SELLERPAY_DB_DSN" required:"true"`
	Driver string `envconfig:"SELLERPAY_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"SELLERPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SELLERPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SELLERPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SELLERPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SELLERPAY_REDIS_URL" required:"true"`
	Password     string        `envconfig:"SELLERPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SELLERPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SELLERPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SELLERPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SELLERPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SELLERPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SELLERPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WalletConfig points at the wallet provider's REST API.
type WalletConfig struct {
	BaseURL  string        `envconfig:"SELLERPAY_WALLET_BASE_URL" required:"true"`
	APIKey   string        `envconfig:"SELLERPAY_WALLET_API_KEY" required:"true"`
	Entity   string        `envconfig:"SELLERPAY_WALLET_ENTITY"`
	Timeout  time.Duration `envconfig:"SELLERPAY_WALLET_TIMEOUT" default:"30s"`
	Locale   string        `envconfig:"SELLERPAY_WALLET_LOCALE" default:"en_GB"`
	Timezone string        `envconfig:"SELLERPAY_WALLET_TIMEZONE" default:"Europe/Paris"`
}

// MarketplaceConfig points at the marketplace operator API.
type MarketplaceConfig struct {
	BaseURL string        `envconfig:"SELLERPAY_MARKETPLACE_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"SELLERPAY_MARKETPLACE_API_KEY" required:"true"`
	Timeout time.Duration `envconfig:"SELLERPAY_MARKETPLACE_TIMEOUT" default:"30s"`
}

// OperatorConfig identifies the platform operator's own wallet account.
// Operations without a seller id pay out to this account.
type OperatorConfig struct {
	WalletAccountID string `envconfig:"SELLERPAY_OPERATOR_WALLET_ACCOUNT_ID" required:"true"`
	WalletSpaceID   string `envconfig:"SELLERPAY_OPERATOR_WALLET_SPACE_ID"`
	Email           string `envconfig:"SELLERPAY_OPERATOR_EMAIL" required:"true"`
}

type PayoutsConfig struct {
	// RetryWindow is the minimum age of a failed operation before it is
	// selected again.
	RetryWindow time.Duration `envconfig:"SELLERPAY_PAYOUTS_RETRY_WINDOW" default:"24h"`
	// RunInterval is the cadence of the worker loop.
	RunInterval time.Duration `envconfig:"SELLERPAY_PAYOUTS_RUN_INTERVAL" default:"24h"`

	PublicLabelTemplate   string `envconfig:"SELLERPAY_PAYOUTS_PUBLIC_LABEL" default:"Payout {{.CycleDate}} seller {{.SellerID}}"`
	PrivateLabelTemplate  string `envconfig:"SELLERPAY_PAYOUTS_PRIVATE_LABEL" default:"op:{{.SellerID}}:{{.Amount}}:{{.CycleDate}}:{{.DateTime}}"`
	WithdrawLabelTemplate string `envconfig:"SELLERPAY_PAYOUTS_WITHDRAW_LABEL" default:"Withdraw {{.CycleDate}} seller {{.SellerID}} amount {{.Amount}}"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SELLERPAY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SELLERPAY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SELLERPAY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PayoutTopic        string `envconfig:"SELLERPAY_PUBSUB_PAYOUT_TOPIC"`
	PayoutSubscription string `envconfig:"SELLERPAY_PUBSUB_PAYOUT_SUBSCRIPTION"`
}

// EventsEnabled reports whether the payout event bus is configured at all.
func (p PubSubConfig) EventsEnabled() bool {
	return strings.TrimSpace(p.PayoutTopic) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SELLERPAY_AUTO_MIGRATE" default:"false"`
}
