package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/kitbase/authsync/internal/autherr"
	"github.com/kitbase/authsync/internal/backend"
	"github.com/kitbase/authsync/internal/domain"
	"github.com/kitbase/authsync/internal/utils"
	"go.uber.org/zap"
)

// Store is the process-wide source of truth for "who is logged in",
// independent of the active backend. Only the store's own actions and the
// sync bridge may write to it; everything else observes snapshots.
type Store struct {
	provider backend.Provider
	logger   *zap.Logger
	metrics  *storeMetrics

	mu      sync.RWMutex
	state   Snapshot
	subs    map[int]chan Snapshot
	nextSub int

	initOnce sync.Once
}

// NewStore creates the store in the "unknown" state: loading until
// Initialize has decided.
func NewStore(provider backend.Provider, logger *zap.Logger) *Store {
	return &Store{
		provider: provider,
		logger:   logger,
		metrics:  newStoreMetrics(),
		state:    Snapshot{Loading: true, Version: 1},
		subs:     map[int]chan Snapshot{},
	}
}

// Provider exposes the active backend to collaborating flows.
func (s *Store) Provider() backend.Provider { return s.provider }

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers an observer. The channel holds the latest snapshot
// only; slow consumers never block the store. The returned cancel func must
// be called when done.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- s.state
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Initialize populates state from any remembered session. Idempotent; later
// calls are no-ops. It never returns an error to the caller: failures
// degrade to the unauthenticated state with a logged error, and loading is
// always false afterwards.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		s.refresh(ctx)
	})
}

// refresh queries the backend for canonical state and applies it. Shared by
// Initialize and VerifyEmail.
func (s *Store) refresh(ctx context.Context) {
	session, err := s.provider.CurrentSession(ctx)
	if err != nil {
		s.logger.Error("Failed to restore session", zap.Error(err))
		s.mutate(func(st *Snapshot) {
			st.User = nil
			st.Session = nil
			st.Loading = false
		})
		return
	}

	s.mutate(func(st *Snapshot) {
		if session != nil {
			st.User = session.User
			st.Session = session
		} else {
			st.User = nil
			st.Session = nil
		}
		st.Loading = false
	})
}

// SignIn authenticates with the active backend. On failure the previously
// authenticated state is left untouched: a failed re-login never logs the
// user out. The special "email not confirmed" case installs the pending
// user so navigation can route to verification, while Authenticated stays
// false.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	if !utils.ValidateEmail(email) {
		return autherr.New(autherr.KindInvalidEmailFormat, "invalid email")
	}

	session, err := s.signCall(ctx, func() (*domain.Session, error) {
		return s.provider.SignIn(ctx, utils.SanitizeEmail(email), password)
	})
	s.metrics.signIn(ctx, err)
	return s.applySignResult(session, err)
}

// SignUp registers a new account. Accounts whose email is pre-confirmed
// (auto-confirm instances) come back with a full session; the rest surface
// the email-not-confirmed result and install the pending user.
func (s *Store) SignUp(ctx context.Context, email, password string) error {
	if !utils.ValidateEmail(email) {
		return autherr.New(autherr.KindInvalidEmailFormat, "invalid email")
	}
	if !utils.ValidatePassword(password) {
		return autherr.New(autherr.KindWeakPassword, "Password should be at least 8 characters with uppercase, lowercase, and a number")
	}

	session, err := s.signCall(ctx, func() (*domain.Session, error) {
		return s.provider.SignUp(ctx, utils.SanitizeEmail(email), password)
	})
	s.metrics.signUp(ctx, err)
	return s.applySignResult(session, err)
}

// SignOut clears local state unconditionally, even when the backend call
// fails: user-initiated sign-out must never leave the store stuck
// authenticated.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	if err != nil {
		s.logger.Warn("Backend sign-out failed, clearing local state anyway", zap.Error(err))
	}

	s.mutate(func(st *Snapshot) {
		st.User = nil
		st.Session = nil
		st.Loading = false
		st.HasCompletedOnboarding = false
		st.LastError = ""
	})
	s.metrics.signOut(ctx)
	return err
}

// VerifyEmail redeems a deep-link confirmation code, then re-runs the
// initialize semantics to refresh canonical state.
func (s *Store) VerifyEmail(ctx context.Context, code string) error {
	s.mu.RLock()
	email := ""
	if s.state.User != nil {
		email = s.state.User.Email
	}
	s.mu.RUnlock()

	session, err := s.signCall(ctx, func() (*domain.Session, error) {
		return s.provider.VerifyOTP(ctx, email, code)
	})
	if err != nil {
		return autherr.AsError(err)
	}

	if session != nil {
		s.applyAuth(session.User, session)
		return nil
	}
	s.refresh(ctx)
	return nil
}

// ResetPassword fires the recovery email. No session exists yet, so state
// is not touched.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	if !utils.ValidateEmail(email) {
		return autherr.New(autherr.KindInvalidEmailFormat, "invalid email")
	}
	if err := s.provider.ResetPassword(ctx, utils.SanitizeEmail(email)); err != nil {
		return autherr.AsError(err)
	}
	return nil
}

// UpdatePassword sets a new password for the current user.
func (s *Store) UpdatePassword(ctx context.Context, newPassword string) error {
	if !utils.ValidatePassword(newPassword) {
		return autherr.New(autherr.KindWeakPassword, "Password should be at least 8 characters with uppercase, lowercase, and a number")
	}
	if err := s.provider.UpdatePassword(ctx, newPassword); err != nil {
		return autherr.AsError(err)
	}
	return nil
}

// SetUser installs a user directly, bypassing adapter calls. Used by the
// sync bridge.
func (s *Store) SetUser(user *domain.User) {
	s.mutate(func(st *Snapshot) {
		st.User = user
	})
}

// SetSession installs a session directly. When the session embeds a user,
// the top-level user follows it so the two can never disagree on identity.
func (s *Store) SetSession(session *domain.Session) {
	s.mutate(func(st *Snapshot) {
		st.Session = session
		if session != nil && session.User != nil {
			st.User = session.User
		}
	})
}

// SetAuth installs user and session as one atomic mutation.
func (s *Store) SetAuth(user *domain.User, session *domain.Session) {
	s.applyAuth(user, session)
}

// SetLoading flips the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mutate(func(st *Snapshot) {
		st.Loading = loading
	})
}

// SetHasCompletedOnboarding records onboarding completion.
func (s *Store) SetHasCompletedOnboarding(done bool) {
	s.mutate(func(st *Snapshot) {
		st.HasCompletedOnboarding = done
	})
}

// SetLastError surfaces a hard, non-flow error (for example a placeholder
// stall) to consumers.
func (s *Store) SetLastError(message string) {
	s.mutate(func(st *Snapshot) {
		st.LastError = message
	})
}

// signCall runs a provider auth call, converting panics and unclassified
// failures into classified errors so the caller never sees a raw backend
// exception.
func (s *Store) signCall(_ context.Context, call func() (*domain.Session, error)) (session *domain.Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Auth backend panicked", zap.Any("panic", r))
			session = nil
			err = autherr.New(autherr.KindUnknown, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	session, err = call()
	if err != nil {
		return nil, autherr.AsError(err)
	}
	return session, nil
}

// applySignResult folds a provider sign-in/up result into store state.
func (s *Store) applySignResult(session *domain.Session, err error) error {
	if err != nil {
		ae := autherr.AsError(err)
		if ae.Kind == autherr.KindEmailNotConfirmed && ae.PendingUser != nil {
			// Route to verification: user is visible, authentication is not
			// granted, and any prior session stays as it was.
			s.mutate(func(st *Snapshot) {
				st.User = ae.PendingUser
				st.Loading = false
			})
		}
		return ae
	}

	if session != nil {
		s.applyAuth(session.User, session)
		return nil
	}

	// A nil session with no error means state arrives through the backend's
	// live stream; keep loading until the bridge applies it. Backends
	// without a stream resolve to unauthenticated immediately.
	if s.provider.Signals() != nil {
		s.SetLoading(true)
		return nil
	}
	s.mutate(func(st *Snapshot) {
		st.Loading = false
	})
	return nil
}

// applyAuth installs the user+session pair and derived flags as one
// mutation.
func (s *Store) applyAuth(user *domain.User, session *domain.Session) {
	s.mutate(func(st *Snapshot) {
		st.User = user
		st.Session = session
		st.Loading = false
		st.LastError = ""
	})
}

// mutate applies fn to the state under the write lock, recomputes derived
// flags, bumps the version, and publishes the new snapshot.
func (s *Store) mutate(fn func(*Snapshot)) {
	s.mu.Lock()

	fn(&s.state)
	s.state.EmailConfirmed = s.state.User.EmailConfirmed()
	s.state.Authenticated = s.derivedAuthenticated()
	s.state.Version++
	snapshot := s.state

	for _, sub := range s.subs {
		// Latest-wins: replace a pending snapshot instead of blocking.
		select {
		case <-sub:
		default:
		}
		select {
		case sub <- snapshot:
		default:
		}
	}
	s.mu.Unlock()
}

// derivedAuthenticated computes the authenticated flag. The
// email-confirmation gate is backend policy, not a universal rule. The
// store can never report authenticated without a user.
func (s *Store) derivedAuthenticated() bool {
	if s.state.Session == nil || s.state.User == nil {
		return false
	}
	if s.provider.RequiresConfirmedEmail() && !s.state.User.EmailConfirmed() {
		return false
	}
	return true
}
