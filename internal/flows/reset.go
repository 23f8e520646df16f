package flows

import (
	"context"
	"errors"
	"time"

	"github.com/kitbase/authsync/internal/session"
	"go.uber.org/zap"
)

// ErrUpdateTimeout means the backend did not answer a password update within
// the bound. The request was not aborted and may still have succeeded
// server-side; callers should tell the user to try their new password.
var ErrUpdateTimeout = errors.New("password update timed out; the change may still have been applied")

// ResetFlow drives password recovery: request a reset email, then set the
// new password once the user arrives through the recovery link.
type ResetFlow struct {
	store   *session.Store
	logger  *zap.Logger
	timeout time.Duration
}

// NewResetFlow creates the flow. timeout bounds how long UpdatePassword
// waits for the backend.
func NewResetFlow(store *session.Store, logger *zap.Logger, timeout time.Duration) *ResetFlow {
	return &ResetFlow{store: store, logger: logger, timeout: timeout}
}

// Request fires the recovery email. Session state is untouched; no session
// exists at this point.
func (f *ResetFlow) Request(ctx context.Context, email string) error {
	return f.store.ResetPassword(ctx, email)
}

// UpdatePassword races the backend call against a soft timeout. The update
// endpoint has a known hang failure mode where the server applies the change
// but the response never arrives, so on timeout the caller stops waiting
// without aborting the request.
func (f *ResetFlow) UpdatePassword(ctx context.Context, newPassword string) error {
	done := make(chan error, 1)
	go func() {
		err := f.store.UpdatePassword(ctx, newPassword)
		done <- err
		if err != nil {
			f.logger.Debug("Password update finished", zap.Error(err))
		}
	}()

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		f.logger.Warn("Password update exceeded soft timeout",
			zap.Duration("timeout", f.timeout))
		return ErrUpdateTimeout
	}
}
