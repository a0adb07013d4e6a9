package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"zion.db"`

	// Empty key disables the check (local development).
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	SMTP     SMTP     `envPrefix:"SMTP_"`
	Dispatch Dispatch `envPrefix:"DISPATCH_"`
	Store    Store    `envPrefix:"STORE_"`
	Promos   Promos   `envPrefix:"PROMOS_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type SMTP struct {
	Host      string `env:"HOST" envDefault:"smtp-mail.outlook.com"`
	Port      int    `env:"PORT" envDefault:"587"`
	User      string `env:"USER"`
	Pass      string `env:"PASS"`
	FromEmail string `env:"FROM_EMAIL"`
	FromName  string `env:"FROM_NAME" envDefault:"Zion Games"`
	// DryRun skips the SMTP conversation and echoes the message back,
	// the safe default for local runs.
	DryRun bool `env:"DRY_RUN" envDefault:"true"`
}

// Dispatch points at the automation webhook that delivers codes to
// customers over email/WhatsApp.
type Dispatch struct {
	WebhookURL string `env:"WEBHOOK_URL"`
	HMACSecret string `env:"HMAC_SECRET"`
}

// Store configures the inbound storefront webhook relay.
type Store struct {
	WebhookSecret  string `env:"WEBHOOK_SECRET"`
	ForwardURL     string `env:"FORWARD_URL"`
	InternalAPIKey string `env:"INTERNAL_API_KEY"`
}

// Promos configures the cached third-party promotions feed. The feed is
// fetched on a schedule and served from a local JSON cache file.
type Promos struct {
	FeedURL       string `env:"FEED_URL"`
	CacheFile     string `env:"CACHE_FILE" envDefault:"promos_cache.json"`
	RefreshMin    int    `env:"REFRESH_MIN" envDefault:"90"`
	StaleAfterMin int    `env:"STALE_AFTER_MIN" envDefault:"60"`
}
