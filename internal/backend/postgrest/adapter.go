package postgrest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kitbase/authsync/internal/autherr"
	"github.com/kitbase/authsync/internal/config"
	"github.com/kitbase/authsync/internal/domain"
	"github.com/kitbase/authsync/internal/tokenstore"
	"go.uber.org/zap"
)

// expirySkew renews a session slightly before its actual expiry so callers
// never receive a token that dies mid-request.
const expirySkew = 30 * time.Second

// Adapter translates the SQL BaaS auth API into the canonical User/Session
// contract. It mirrors the token pair into the token store so a remembered
// session survives restarts.
type Adapter struct {
	client *Client
	logger *zap.Logger
	tokens tokenstore.Store

	requireConfirmedEmail bool

	mu      sync.Mutex
	session *domain.Session
}

// New creates the SQL BaaS adapter.
func New(cfg config.PostgrestConfig, logger *zap.Logger, tokens tokenstore.Store) *Adapter {
	return &Adapter{
		client:                NewClient(cfg.BaseURL, cfg.AnonKey, cfg.HTTPTimeout.Duration),
		logger:                logger,
		tokens:                tokens,
		requireConfirmedEmail: cfg.RequireConfirmedEmail,
	}
}

func (a *Adapter) Name() domain.Provider { return domain.ProviderPostgrest }

func (a *Adapter) RequiresConfirmedEmail() bool { return a.requireConfirmedEmail }

// Signals returns nil: this backend is call/response, nothing is pushed.
func (a *Adapter) Signals() <-chan domain.AuthSignal { return nil }

func (a *Adapter) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	payload, err := a.client.PasswordGrant(ctx, email, password)
	if err != nil {
		var ae *autherr.Error
		if errors.As(err, &ae) && ae.Kind == autherr.KindEmailNotConfirmed {
			// Attach a minimal pending user so the caller can route to the
			// verification screen without treating the login as successful.
			ae.PendingUser = &domain.User{Email: email, Provider: domain.ProviderPostgrest}
		}
		return nil, err
	}

	session := a.adopt(ctx, payload)
	return session, nil
}

func (a *Adapter) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	sessionPayload, user, err := a.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if sessionPayload == nil {
		// Confirmation required: no tokens yet, surface the pending user.
		ae := autherr.New(autherr.KindEmailNotConfirmed, "")
		ae.PendingUser = user.canonical()
		if ae.PendingUser == nil {
			ae.PendingUser = &domain.User{Email: email, Provider: domain.ProviderPostgrest}
		}
		return nil, ae
	}

	return a.adopt(ctx, sessionPayload), nil
}

func (a *Adapter) SignOut(ctx context.Context) error {
	a.mu.Lock()
	session := a.session
	a.session = nil
	a.mu.Unlock()

	if err := a.tokens.Clear(ctx); err != nil {
		a.logger.Warn("Failed to clear persisted tokens", zap.Error(err))
	}

	if session == nil {
		return nil
	}
	// Best effort: local state is already gone regardless of the outcome.
	if err := a.client.Logout(ctx, session.AccessToken); err != nil {
		a.logger.Warn("Backend sign-out failed", zap.Error(err))
		return err
	}
	return nil
}

// CurrentSession returns the active session, restoring it from the persisted
// token pair when needed. (nil, nil) means no session is remembered.
func (a *Adapter) CurrentSession(ctx context.Context) (*domain.Session, error) {
	a.mu.Lock()
	cached := a.session
	a.mu.Unlock()

	if cached != nil && time.Until(cached.ExpiresAt) > expirySkew {
		return cached, nil
	}

	rec, err := a.tokens.Load(ctx)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return nil, nil
		}
		if errors.Is(err, tokenstore.ErrDecrypt) {
			// Unreadable mirror is treated as no session; a fresh sign-in
			// will overwrite it.
			a.logger.Warn("Stored session unreadable, discarding", zap.Error(err))
			_ = a.tokens.Clear(ctx)
			return nil, nil
		}
		return nil, err
	}

	if time.Until(rec.ExpiresAt) > expirySkew {
		if session, err := a.restore(ctx, rec); err == nil {
			return session, nil
		} else {
			a.logger.Debug("Failed to restore session from stored access token", zap.Error(err))
		}
	}

	payload, err := a.client.RefreshGrant(ctx, rec.RefreshToken)
	if err != nil {
		if autherr.KindOf(err) == autherr.KindNetwork {
			return nil, err
		}
		// The backend rejected the refresh token: the remembered session is
		// authoritatively gone.
		a.logger.Info("Stored refresh token rejected, clearing", zap.String("kind", string(autherr.KindOf(err))))
		_ = a.tokens.Clear(ctx)
		return nil, nil
	}

	return a.adopt(ctx, payload), nil
}

func (a *Adapter) VerifyOTP(ctx context.Context, email, code string) (*domain.Session, error) {
	payload, err := a.client.Verify(ctx, "signup", email, code)
	if err != nil {
		// Codes sent for already-confirmed accounts use the "email" type.
		if autherr.KindOf(err) == autherr.KindInvalidCredentials {
			payload, err = a.client.Verify(ctx, "email", email, code)
		}
		if err != nil {
			return nil, err
		}
	}
	return a.adopt(ctx, payload), nil
}

func (a *Adapter) ResetPassword(ctx context.Context, email string) error {
	return a.client.Recover(ctx, email)
}

func (a *Adapter) UpdatePassword(ctx context.Context, newPassword string) error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()

	if session == nil {
		return autherr.New(autherr.KindUnknown, "no active session")
	}
	return a.client.UpdatePassword(ctx, session.AccessToken, newPassword)
}

func (a *Adapter) ExchangeCode(ctx context.Context, code string) (*domain.Session, error) {
	payload, err := a.client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return a.adopt(ctx, payload), nil
}

func (a *Adapter) AdoptTokens(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error) {
	claims, err := decodeClaims(accessToken)
	if err != nil {
		return nil, autherr.New(autherr.KindInvalidCredentials, "malformed access token")
	}

	user, err := a.client.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(time.Until(claims.ExpiresAt).Seconds()),
		ExpiresAt:    claims.ExpiresAt,
		User:         user.canonical(),
	}
	a.install(ctx, session)
	return session, nil
}

func (a *Adapter) Close() error { return nil }

// adopt converts a backend session payload and installs it as current.
func (a *Adapter) adopt(ctx context.Context, payload *sessionPayload) *domain.Session {
	session := &domain.Session{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		ExpiresAt:    time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
		User:         payload.User.canonical(),
	}
	a.install(ctx, session)
	return session
}

// restore rebuilds a session from a persisted record whose access token is
// still valid, fetching the authoritative user from the backend.
func (a *Adapter) restore(ctx context.Context, rec *tokenstore.Record) (*domain.Session, error) {
	user, err := a.client.GetUser(ctx, rec.AccessToken)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		ExpiresIn:    int(time.Until(rec.ExpiresAt).Seconds()),
		ExpiresAt:    rec.ExpiresAt,
		User:         user.canonical(),
	}

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()
	return session, nil
}

func (a *Adapter) install(ctx context.Context, session *domain.Session) {
	a.mu.Lock()
	a.session = session
	a.mu.Unlock()

	rec := &tokenstore.Record{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
		Provider:     string(domain.ProviderPostgrest),
		SavedAt:      time.Now().UTC(),
	}
	if err := a.tokens.Save(ctx, rec); err != nil {
		a.logger.Warn("Failed to persist token pair", zap.Error(err))
	}
}
