package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "SELLERPAY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside envconfig tags (tests, docs).
const (
	EnvAppEnv                = "SELLERPAY_APP_ENV"
	EnvDBDSN                 = "SELLERPAY_DB_DSN"
	EnvRedisURL              = "SELLERPAY_REDIS_URL"
	EnvWalletBaseURL         = "SELLERPAY_WALLET_BASE_URL"
	EnvWalletAPIKey          = "SELLERPAY_WALLET_API_KEY"
	EnvMarketplaceBaseURL    = "SELLERPAY_MARKETPLACE_BASE_URL"
	EnvMarketplaceAPIKey     = "SELLERPAY_MARKETPLACE_API_KEY"
	EnvOperatorWalletAccount = "SELLERPAY_OPERATOR_WALLET_ACCOUNT_ID"
	EnvOperatorEmail         = "SELLERPAY_OPERATOR_EMAIL"
	EnvPayoutsRetryWindow    = "SELLERPAY_PAYOUTS_RETRY_WINDOW"
	EnvPubSubPayoutTopic     = "SELLERPAY_PUBSUB_PAYOUT_TOPIC"
	EnvGCPProjectID          = "SELLERPAY_GCP_PROJECT_ID"
)
