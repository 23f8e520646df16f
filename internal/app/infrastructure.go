package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kitbase/authsync/internal/config"
	"github.com/kitbase/authsync/internal/tokenstore"
	"github.com/kitbase/authsync/pkg/database"
	"github.com/kitbase/authsync/pkg/observability"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

type Infrastructure interface {
	Tokens() tokenstore.Store
	NATS() *nats.Conn
	Logger() *zap.Logger
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	tokens         tokenstore.Store
	nats           *nats.Conn
	logger         *zap.Logger
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

var _ Infrastructure = &infrastructure{}

func NewInfrastructure(ctx context.Context, cfg config.Config) (*infrastructure, error) {
	i := &infrastructure{}

	logger, err := observability.InitLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	i.logger = logger

	tokens, err := newTokenStore(ctx, cfg.TokenStore)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token store: %w", err)
	}
	i.tokens = tokens

	// NATS only exists for the streamdoc backend; the others never touch it.
	if cfg.Backend.Provider == config.ProviderStreamdoc {
		conn, err := nats.Connect(cfg.Streamdoc.URL,
			nats.Name("authsync"),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			_ = i.tokens.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		i.nats = conn
	}

	meterProvider, metricsHandler, err := observability.InitTelemetry("authsync")
	if err != nil {
		_ = i.tokens.Close()
		if i.nats != nil {
			i.nats.Close()
		}
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	i.meterProvider = meterProvider
	i.metricsHandler = metricsHandler

	return i, nil
}

// newTokenStore resolves the configured token persistence backend.
func newTokenStore(ctx context.Context, cfg config.TokenStoreConfig) (tokenstore.Store, error) {
	switch cfg.Kind {
	case config.TokenStoreFile:
		store := tokenstore.NewFile(cfg.Path, cfg.Passphrase)
		if err := store.Ping(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.TokenStoreRedis:
		redis, err := database.NewRedis(cfg.RedisAddress(), cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return tokenstore.NewRedis(redis, cfg.RedisKey), nil
	case config.TokenStoreMemory:
		return tokenstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown token store kind %q", cfg.Kind)
	}
}

func (i *infrastructure) Tokens() tokenstore.Store {
	return i.tokens
}

func (i *infrastructure) NATS() *nats.Conn {
	return i.nats
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *infrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *infrastructure) Shutdown(ctx context.Context) error {
	errs := make(chan error, 4)

	go func() { errs <- i.tokens.Close() }()
	go func() { errs <- i.logger.Sync() }()
	go func() { errs <- observability.Shutdown(ctx, i.meterProvider, i.logger) }()
	go func() {
		if i.nats != nil {
			errs <- i.nats.Drain()
			return
		}
		errs <- nil
	}()

	return errors.Join(<-errs, <-errs, <-errs, <-errs)
}
