package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kitbase/authsync/internal/dto"
	"github.com/kitbase/authsync/internal/flows"
	"github.com/kitbase/authsync/internal/session"
)

// AuthHandler exposes the session store's actions over the loopback API.
type AuthHandler struct {
	store *session.Store
	reset *flows.ResetFlow
	otp   *flows.OTPFlow
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store *session.Store, reset *flows.ResetFlow, otp *flows.OTPFlow) *AuthHandler {
	return &AuthHandler{
		store: store,
		reset: reset,
		otp:   otp,
	}
}

// SignIn authenticates with the configured backend and returns the
// resulting session snapshot.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.store.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.store.Snapshot())
}

// SignUp registers a new account. Backends that require email confirmation
// answer with the email-not-confirmed kind; the snapshot then carries the
// pending user for the verification flow.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.store.SignUp(c.Request.Context(), req.Email, req.Password); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.store.Snapshot())
}

// SignOut ends the session. Local state is already cleared even when the
// backend call failed, so failure still reports the (signed-out) snapshot.
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.store.SignOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"snapshot": h.store.Snapshot(),
			"warning":  "backend sign-out failed; local session cleared",
		})
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// Verify redeems an emailed confirmation code for the pending user.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	h.otp.SetCode(req.Code)
	if err := h.otp.Submit(c.Request.Context()); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.store.Snapshot())
}

// Resend re-sends the verification email, gated by the cooldown.
func (h *AuthHandler) Resend(c *gin.Context) {
	if err := h.otp.Resend(c.Request.Context()); err != nil {
		if errors.Is(err, flows.ErrResendNotReady) {
			c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:   "Resend unavailable",
				Kind:    "rate_limited",
				Message: "Please wait before requesting another email",
			})
			return
		}
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Verification email sent",
	})
}

// Reset fires the password recovery email.
func (h *AuthHandler) Reset(c *gin.Context) {
	var req dto.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.reset.Request(c.Request.Context(), req.Email); err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Recovery email sent",
	})
}

// UpdatePassword sets a new password. A soft timeout answers 202: the
// backend may still have applied the change.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req dto.PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.reset.UpdatePassword(c.Request.Context(), req.Password); err != nil {
		if errors.Is(err, flows.ErrUpdateTimeout) {
			c.JSON(http.StatusAccepted, dto.SuccessResponse{
				Message: "Password update is taking longer than expected; it may still have been applied",
			})
			return
		}
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Password updated",
	})
}
