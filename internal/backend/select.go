package backend

import (
	"fmt"

	"github.com/kitbase/authsync/internal/backend/postgrest"
	"github.com/kitbase/authsync/internal/backend/streamdoc"
	"github.com/kitbase/authsync/internal/config"
	"github.com/kitbase/authsync/internal/tokenstore"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Deps carries the infrastructure a provider may need. NATS is only set when
// the streamdoc backend is configured.
type Deps struct {
	Logger *zap.Logger
	Tokens tokenstore.Store
	NATS   *nats.Conn
}

// New resolves the single active provider from configuration.
func New(cfg *config.Config, deps Deps) (Provider, error) {
	switch cfg.Backend.Provider {
	case config.ProviderPostgrest:
		return postgrest.New(cfg.Postgrest, deps.Logger, deps.Tokens), nil
	case config.ProviderStreamdoc:
		if deps.NATS == nil {
			return nil, fmt.Errorf("streamdoc backend requires a NATS connection")
		}
		return streamdoc.New(cfg.Streamdoc, deps.NATS, deps.Logger)
	case config.ProviderNoop:
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Backend.Provider)
	}
}
