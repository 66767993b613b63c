package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev" validate:"oneof=dev test staging prod"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080" validate:"min=1,max=65535"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ProjectName           string        `env:"PROJECT_NAME,default=paygate" validate:"required"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT,default=60s"`

	// in the prod profile the listener is expected to be managed by the host unless this is set
	ProductionListener bool `env:"PRODUCTION_LISTENER,default=false"`

	// origin policy
	FrontendOrigin string   `env:"FRONTEND_URL,default=http://localhost:3000" validate:"required,url"`
	DevOrigins     []string `env:"DEV_ORIGINS,separator=|"`
	PreviewDomain  string   `env:"PREVIEW_DOMAIN,default=vercel.app" validate:"required,hostname"`

	// request limits
	MaxRequestBodyBytes int64 `env:"MAX_REQUEST_BODY_BYTES,default=1048576" validate:"min=1"`

	// per-client fixed window applied to /api routes
	RateLimitWindow     time.Duration `env:"RATE_LIMIT_WINDOW,default=15m"`
	RateLimitMax        int64         `env:"RATE_LIMIT_MAX,default=1000" validate:"min=1"`
	RateLimitMaxClients int           `env:"RATE_LIMIT_MAX_CLIENTS,default=100000" validate:"min=1"`
	RateLimitKeyPrefix  string        `env:"RATE_LIMIT_KEY_PREFIX,default=paygate:ratelimit:"`
	RedisURL            string        `env:"REDIS_URL"`

	// process-wide token bucket, 0 disables it
	GlobalRateLimitRPS   int32 `env:"GLOBAL_RATE_LIMIT_RPS,default=0"`
	GlobalRateLimitBurst int32 `env:"GLOBAL_RATE_LIMIT_BURST,default=200"`

	// database settings (optional - an in-memory store is used when DATABASE_URL is not set)
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`
	AutoMigrate         bool          `env:"AUTO_MIGRATE,default=false"`

	// startup provisioning
	StartupStepTimeout time.Duration `env:"STARTUP_STEP_TIMEOUT,default=10s"`
	MockTokens         []string      `env:"MOCK_TOKENS,separator=|"`
	CustodialAccounts  []string      `env:"CUSTODIAL_ACCOUNTS,separator=|"`

	// upstream services for the mounted route groups (optional)
	PaymentsUpstreamURL      string `env:"PAYMENTS_UPSTREAM_URL" validate:"omitempty,url"`
	AccountsUpstreamURL      string `env:"ACCOUNTS_UPSTREAM_URL" validate:"omitempty,url"`
	WithdrawalsUpstreamURL   string `env:"WITHDRAWALS_UPSTREAM_URL" validate:"omitempty,url"`
	DirectDepositUpstreamURL string `env:"DIRECT_DEPOSIT_UPSTREAM_URL" validate:"omitempty,url"`
	BalancesUpstreamURL      string `env:"BALANCES_UPSTREAM_URL" validate:"omitempty,url"`
	TransactionsUpstreamURL  string `env:"TRANSACTIONS_UPSTREAM_URL" validate:"omitempty,url"`
	UpstreamTimeout          time.Duration `env:"UPSTREAM_TIMEOUT,default=30s"`
}

// local development origins allowed when DEV_ORIGINS is not set
var defaultDevOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
}

var defaultMockTokens = []string{"USDC", "EURC"}

var defaultCustodialAccounts = []string{"alice", "bob"}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the server runs with the production profile.
func (c *ServerEnvironment) IsProduction() bool {
	return c.Environment == "prod"
}

// AllowedOrigins returns the exact origins accepted by the CORS gate:
// the frontend origin followed by the local development origins.
func (c *ServerEnvironment) AllowedOrigins() []string {
	origins := make([]string, 0, len(c.DevOrigins)+1)
	origins = append(origins, c.FrontendOrigin)
	for _, o := range c.DevOrigins {
		if o != c.FrontendOrigin {
			origins = append(origins, o)
		}
	}
	return origins
}

// ListenerManagedExternally reports whether the listener bind is skipped.
func (c *ServerEnvironment) ListenerManagedExternally() bool {
	return c.IsProduction() && !c.ProductionListener
}

func applyDefaults(cfg *ServerEnvironment) {
	cfg.FrontendOrigin = strings.TrimRight(strings.TrimSpace(cfg.FrontendOrigin), "/")
	cfg.PreviewDomain = strings.Trim(strings.TrimSpace(cfg.PreviewDomain), ".")

	if len(cfg.DevOrigins) == 0 {
		cfg.DevOrigins = append([]string(nil), defaultDevOrigins...)
	}
	if len(cfg.MockTokens) == 0 {
		cfg.MockTokens = append([]string(nil), defaultMockTokens...)
	}
	if len(cfg.CustodialAccounts) == 0 {
		cfg.CustodialAccounts = append([]string(nil), defaultCustodialAccounts...)
	}
}

// validateConfig checks the struct tags first and then the rules that span several fields
func validateConfig(cfg *ServerEnvironment) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for _, o := range cfg.AllowedOrigins() {
		u, err := url.Parse(o)
		if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
			return fmt.Errorf("invalid origin %q: origins must be of the form scheme://host[:port]", o)
		}
	}

	if cfg.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be greater than 0")
	}
	if cfg.StartupStepTimeout <= 0 {
		return fmt.Errorf("STARTUP_STEP_TIMEOUT must be greater than 0")
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	if cfg.AutoMigrate && cfg.DatabaseURL == "" {
		return fmt.Errorf("AUTO_MIGRATE requires DATABASE_URL")
	}

	return nil
}
