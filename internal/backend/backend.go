package backend

import (
	"context"

	"github.com/kitbase/authsync/internal/domain"
)

// Provider is the uniform contract every backend must satisfy. Exactly one
// provider is resolved at boot and injected by reference into all consumers;
// there is no runtime backend switching.
//
// CurrentSession returns (nil, nil) when no session is remembered; absence
// is not an error. Signals returns nil for call-response backends; a non-nil
// channel means auth state is pushed by the backend and must be consumed by
// the sync bridge.
type Provider interface {
	Name() domain.Provider

	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*domain.Session, error)
	VerifyOTP(ctx context.Context, email, code string) (*domain.Session, error)
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, newPassword string) error

	// ExchangeCode trades a deep-link authorization code (PKCE / email
	// confirmation) for a session. AdoptTokens installs tokens delivered in
	// a URL hash fragment (implicit flow).
	ExchangeCode(ctx context.Context, code string) (*domain.Session, error)
	AdoptTokens(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error)

	// RequiresConfirmedEmail reports whether isAuthenticated is gated on a
	// confirmed email for this backend. Policy, not a universal invariant.
	RequiresConfirmedEmail() bool

	Signals() <-chan domain.AuthSignal

	Close() error
}
