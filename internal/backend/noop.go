package backend

import (
	"context"

	"github.com/kitbase/authsync/internal/domain"
)

// noopProvider is a complete no-op: it never performs network I/O and never
// yields a session. It backs tests and consumers that need a constructible
// but inert backend.
type noopProvider struct{}

// NewNoop creates the inert provider.
func NewNoop() Provider {
	return noopProvider{}
}

func (noopProvider) Name() domain.Provider { return domain.ProviderNone }

func (noopProvider) SignIn(context.Context, string, string) (*domain.Session, error) {
	return nil, nil
}

func (noopProvider) SignUp(context.Context, string, string) (*domain.Session, error) {
	return nil, nil
}

func (noopProvider) SignOut(context.Context) error { return nil }

func (noopProvider) CurrentSession(context.Context) (*domain.Session, error) {
	return nil, nil
}

func (noopProvider) VerifyOTP(context.Context, string, string) (*domain.Session, error) {
	return nil, nil
}

func (noopProvider) ResetPassword(context.Context, string) error { return nil }

func (noopProvider) UpdatePassword(context.Context, string) error { return nil }

func (noopProvider) ExchangeCode(context.Context, string) (*domain.Session, error) {
	return nil, nil
}

func (noopProvider) AdoptTokens(context.Context, string, string) (*domain.Session, error) {
	return nil, nil
}

func (noopProvider) RequiresConfirmedEmail() bool { return false }

func (noopProvider) Signals() <-chan domain.AuthSignal { return nil }

func (noopProvider) Close() error { return nil }
