package session

import (
	"context"
	"time"

	"github.com/kitbase/authsync/internal/domain"
	"go.uber.org/zap"
)

// bridgeState is the reduced form of one live auth-state document. The
// reduction is level-triggered: every signal maps to a state from its
// content alone, so a missed or duplicated document can never wedge the
// store.
type bridgeState string

const (
	statePendingInitial  bridgeState = "pending_initial"
	stateUnauthenticated bridgeState = "unauthenticated"
	stateLoadingProfile  bridgeState = "loading_profile"
	statePlaceholder     bridgeState = "placeholder"
	stateWithProfile     bridgeState = "with_profile"
)

// BridgeOptions tunes the bridge's timing behaviour.
type BridgeOptions struct {
	// StallTimeout bounds how long the store may stay on a placeholder user
	// before the condition is reported as an error.
	StallTimeout time.Duration
	// NominalExpiry is the advertised lifetime of synthetic sessions; the
	// backend manages real token lifetimes internally.
	NominalExpiry time.Duration
}

// Bridge folds a backend's live auth-state stream into the session store.
// It is the only writer besides the store's own actions.
type Bridge struct {
	store    *Store
	signals  <-chan domain.AuthSignal
	provider domain.Provider
	logger   *zap.Logger
	opts     BridgeOptions

	last           bridgeState
	hasInitialized bool
	stallTimer     *time.Timer
}

// NewBridge creates a bridge over the store's backend stream. Returns nil
// when the backend has no live stream; call-response backends need no
// bridge.
func NewBridge(store *Store, logger *zap.Logger, opts BridgeOptions) *Bridge {
	signals := store.Provider().Signals()
	if signals == nil {
		return nil
	}
	if opts.StallTimeout <= 0 {
		opts.StallTimeout = 30 * time.Second
	}
	if opts.NominalExpiry <= 0 {
		opts.NominalExpiry = time.Hour
	}

	return &Bridge{
		store:    store,
		signals:  signals,
		provider: store.Provider().Name(),
		logger:   logger,
		opts:     opts,
		last:     statePendingInitial,
	}
}

// Run consumes the stream until the context is cancelled or the stream
// closes.
func (b *Bridge) Run(ctx context.Context) {
	stall := time.NewTimer(b.opts.StallTimeout)
	if !stall.Stop() {
		<-stall.C
	}
	b.stallTimer = stall
	defer stall.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case signal, ok := <-b.signals:
			if !ok {
				b.logger.Info("Auth state stream closed")
				return
			}
			b.apply(ctx, signal)
		case <-stall.C:
			b.onStall(ctx)
		}
	}
}

// reduce maps a signal to its bridge state. Profile semantics are
// tri-state: unresolved means the profile query is still running, resolved
// with no profile means the account exists but its profile document does
// not yet.
func reduce(signal domain.AuthSignal) bridgeState {
	switch {
	case signal.Loading:
		return statePendingInitial
	case !signal.Authenticated:
		return stateUnauthenticated
	case !signal.ProfileResolved:
		return stateLoadingProfile
	case signal.Profile == nil:
		return statePlaceholder
	default:
		return stateWithProfile
	}
}

// apply writes one reduced state into the store.
func (b *Bridge) apply(ctx context.Context, signal domain.AuthSignal) {
	state := reduce(signal)

	if state != b.last || !b.hasInitialized {
		b.logger.Debug("Auth state transition",
			zap.String("from", string(b.last)),
			zap.String("to", string(state)))
		b.store.metrics.bridgeTransition(ctx, string(state))
	}
	b.last = state
	b.hasInitialized = true

	switch state {
	case statePendingInitial:
		// The backend is still deciding; leave whatever the store holds.

	case stateUnauthenticated:
		b.stopStallTimer()
		b.store.SetAuth(nil, nil)

	case stateLoadingProfile:
		// Authenticated, profile query in flight. The current user (if any)
		// stays visible; only the loading flag flips.
		b.store.SetLoading(true)

	case statePlaceholder:
		user := domain.PlaceholderUser(b.provider)
		b.store.SetAuth(user, b.syntheticSession(user))
		b.startStallTimer()

	case stateWithProfile:
		b.stopStallTimer()
		user := signal.Profile.CanonicalUser(b.provider)
		b.store.SetAuth(user, b.syntheticSession(user))
		b.store.SetHasCompletedOnboarding(signal.Profile.OnboardingDone)
	}
}

func (b *Bridge) syntheticSession(user *domain.User) *domain.Session {
	return domain.SyntheticSession(user, int(b.opts.NominalExpiry.Seconds()))
}

// onStall fires when the profile never materialized behind a placeholder
// user. The store stays usable; the condition is surfaced, not fatal.
func (b *Bridge) onStall(ctx context.Context) {
	b.logger.Error("Profile still unresolved after stall timeout",
		zap.Duration("timeout", b.opts.StallTimeout))
	b.store.metrics.placeholderStall(ctx)
	b.store.SetLastError("profile sync stalled; account data may be incomplete")
}

func (b *Bridge) startStallTimer() {
	if b.stallTimer == nil {
		return
	}
	if !b.stallTimer.Stop() {
		select {
		case <-b.stallTimer.C:
		default:
		}
	}
	b.stallTimer.Reset(b.opts.StallTimeout)
}

func (b *Bridge) stopStallTimer() {
	if b.stallTimer == nil {
		return
	}
	if !b.stallTimer.Stop() {
		select {
		case <-b.stallTimer.C:
		default:
		}
	}
}
