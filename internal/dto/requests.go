package dto

// CredentialsRequest carries email+password for sign-in and sign-up.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// VerifyRequest carries the emailed confirmation code.
type VerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// ResetRequest starts password recovery for an email.
type ResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// PasswordRequest sets a new password for the signed-in user.
type PasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response. Kind is the stable taxonomy
// identifier; Message is already formatted for display and may be empty for
// kinds the UI routes on instead of rendering.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
