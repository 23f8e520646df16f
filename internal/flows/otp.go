package flows

import (
	"context"
	"errors"
	"sync"

	"github.com/kitbase/authsync/internal/autherr"
	"github.com/kitbase/authsync/internal/session"
	"go.uber.org/zap"
)

// ErrResendNotReady is returned while the resend cooldown is still running.
var ErrResendNotReady = errors.New("resend is not available yet")

// OTPState is the verification flow's position. The machine is linear:
// entering-code, verifying, then success; errors return to entering-code
// with a retryable message.
type OTPState string

const (
	OTPEnteringCode OTPState = "entering_code"
	OTPVerifying    OTPState = "verifying"
	OTPSuccess      OTPState = "success"
)

// OTPFlow drives email verification: the user submits a code from their
// inbox, with a cooldown-gated resend on the side. The resend action is
// injected because it differs per context (confirmation email vs recovery
// email).
type OTPFlow struct {
	store     *session.Store
	logger    *zap.Logger
	resend    func(ctx context.Context) error
	countdown *Countdown

	mu           sync.Mutex
	state        OTPState
	code         string
	errorMessage string
}

// NewOTPFlow starts the flow in the entering-code state with the cooldown
// already running; an email was just sent to get here.
func NewOTPFlow(store *session.Store, logger *zap.Logger, resend func(ctx context.Context) error, cooldownSeconds int) *OTPFlow {
	f := &OTPFlow{
		store:     store,
		logger:    logger,
		resend:    resend,
		countdown: NewCountdown(cooldownSeconds),
		state:     OTPEnteringCode,
	}
	f.countdown.Start()
	return f
}

// SetCode records the code as the user types it.
func (f *OTPFlow) SetCode(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.code = code
}

// Submit verifies the entered code. Failure is retryable: the flow returns
// to entering-code carrying a user-facing message.
func (f *OTPFlow) Submit(ctx context.Context) error {
	f.mu.Lock()
	code := f.code
	f.state = OTPVerifying
	f.errorMessage = ""
	f.mu.Unlock()

	err := f.store.VerifyEmail(ctx, code)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = OTPEnteringCode
		f.errorMessage = autherr.Format(err)
		return err
	}
	f.state = OTPSuccess
	return nil
}

// Resend re-sends the email, restarts the cooldown, and clears any code the
// user had entered; the old code is dead the moment a new one is issued.
func (f *OTPFlow) Resend(ctx context.Context) error {
	if !f.countdown.CanResend() {
		return ErrResendNotReady
	}
	if err := f.resend(ctx); err != nil {
		f.logger.Warn("Failed to resend verification email", zap.Error(err))
		f.mu.Lock()
		f.errorMessage = autherr.Format(err)
		f.mu.Unlock()
		return autherr.AsError(err)
	}

	f.countdown.Start()
	f.mu.Lock()
	f.code = ""
	f.state = OTPEnteringCode
	f.errorMessage = ""
	f.mu.Unlock()
	return nil
}

// State reports the current flow state.
func (f *OTPFlow) State() OTPState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Code returns the currently entered code.
func (f *OTPFlow) Code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code
}

// ErrorMessage returns the last retryable error, formatted for display.
func (f *OTPFlow) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errorMessage
}

// ResendIn reports seconds until resend unlocks.
func (f *OTPFlow) ResendIn() int { return f.countdown.Remaining() }

// CanResend reports whether the cooldown has elapsed.
func (f *OTPFlow) CanResend() bool { return f.countdown.CanResend() }

// Close stops the cooldown ticker.
func (f *OTPFlow) Close() { f.countdown.Stop() }
