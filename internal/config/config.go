package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Backend provider identifiers accepted in BACKEND_PROVIDER.
const (
	ProviderPostgrest = "postgrest"
	ProviderStreamdoc = "streamdoc"
	ProviderNoop      = "noop"
)

// Token store kinds accepted in TOKENSTORE_KIND.
const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

type Config struct {
	Server     ServerConfig     `env:",prefix=SERVER_"`
	Backend    BackendConfig    `env:",prefix=BACKEND_"`
	Postgrest  PostgrestConfig  `env:",prefix=POSTGREST_"`
	Streamdoc  StreamdocConfig  `env:",prefix=STREAMDOC_"`
	TokenStore TokenStoreConfig `env:",prefix=TOKENSTORE_"`
	Flow       FlowConfig       `env:",prefix=FLOW_"`
	CORS       CORSConfig       `env:",prefix=CORS_"`
	Env        string           `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8675"`
	Host         string   `env:"HOST,default=127.0.0.1"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

// BackendConfig selects the active auth provider. The selection is resolved
// once at boot and is stable for the lifetime of the process.
type BackendConfig struct {
	Provider string `env:"PROVIDER,default=postgrest"`
}

type PostgrestConfig struct {
	BaseURL     string   `env:"BASE_URL"`
	AnonKey     string   `env:"ANON_KEY"`
	HTTPTimeout Duration `env:"HTTP_TIMEOUT,default=10s"`
	// RequireConfirmedEmail gates isAuthenticated on a confirmed email for
	// this backend. Policy here, not universal: the reactive backend has no
	// such gate.
	RequireConfirmedEmail bool `env:"REQUIRE_CONFIRMED_EMAIL,default=true"`
}

type StreamdocConfig struct {
	URL            string   `env:"URL,default=nats://localhost:4222"`
	SubjectPrefix  string   `env:"SUBJECT_PREFIX,default=authsync"`
	RequestTimeout Duration `env:"REQUEST_TIMEOUT,default=5s"`
	// NominalExpiry is reported as expires_in on synthetic sessions; the
	// backend manages real token lifetime internally.
	NominalExpiry Duration `env:"NOMINAL_EXPIRY,default=1h"`
}

type TokenStoreConfig struct {
	Kind          string `env:"KIND,default=file"`
	Path          string `env:"PATH,default=.authsync/tokens"`
	Passphrase    string `env:"PASSPHRASE"`
	RedisHost     string `env:"REDIS_HOST,default=localhost"`
	RedisPort     string `env:"REDIS_PORT,default=6379"`
	RedisPassword string `env:"REDIS_PASSWORD,default="`
	RedisDB       int    `env:"REDIS_DB,default=0"`
	RedisKey      string `env:"REDIS_KEY,default=authsync:session"`
}

type FlowConfig struct {
	ResendCooldown Duration `env:"RESEND_COOLDOWN,default=60s"`
	// CallbackWait bounds the fallback poll for backend-side session
	// auto-detection in the deep-link callback flow; one retry after
	// CallbackRetryDelay, then failure.
	CallbackWait       Duration `env:"CALLBACK_WAIT,default=3s"`
	CallbackRetryDelay Duration `env:"CALLBACK_RETRY_DELAY,default=1500ms"`
	// PasswordUpdateTimeout is a soft timeout: the caller stops waiting but
	// the request is not aborted, because the backend is known to hang while
	// still succeeding server-side.
	PasswordUpdateTimeout Duration `env:"PASSWORD_UPDATE_TIMEOUT,default=10s"`
	// PlaceholderStall bounds how long a "pending" placeholder user may
	// persist before a hard error is surfaced.
	PlaceholderStall Duration `env:"PLACEHOLDER_STALL,default=30s"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// RedisAddress returns the Redis connection address for the token store.
func (t TokenStoreConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%s", t.RedisHost, t.RedisPort)
}

// Load loads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints that envconfig tags cannot express.
func (c *Config) Validate() error {
	switch c.Backend.Provider {
	case ProviderPostgrest:
		if c.Postgrest.BaseURL == "" {
			return fmt.Errorf("POSTGREST_BASE_URL is required when BACKEND_PROVIDER=postgrest")
		}
	case ProviderStreamdoc, ProviderNoop:
	default:
		return fmt.Errorf("unknown backend provider %q", c.Backend.Provider)
	}

	switch c.TokenStore.Kind {
	case TokenStoreFile:
		if c.TokenStore.Passphrase == "" {
			return fmt.Errorf("TOKENSTORE_PASSPHRASE is required for the file token store")
		}
	case TokenStoreRedis, TokenStoreMemory:
	default:
		return fmt.Errorf("unknown token store kind %q", c.TokenStore.Kind)
	}

	return nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
