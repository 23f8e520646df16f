package acceptance

import (
	"encoding/json"
	"net/http"

	"github.com/kitbase/authsync/internal/dto"
	"github.com/kitbase/authsync/internal/session"
)

func (s *Suite) TestSignIn_Success() {
	s.Backend.AddConfirmedUser("test@example.com", "Password123")

	var snap session.Snapshot
	resp := s.postJSON("/api/v1/auth/signin", dto.CredentialsRequest{
		Email:    "test@example.com",
		Password: "Password123",
	}, &snap)

	s.Equal(http.StatusOK, resp.StatusCode)
	s.True(snap.Authenticated)
	s.False(snap.Loading)
	s.Require().NotNil(snap.User)
	s.Equal("test@example.com", snap.User.Email)
	s.Require().NotNil(snap.Session)
	s.NotEmpty(snap.Session.AccessToken)
}

func (s *Suite) TestSignIn_InvalidCredentials() {
	s.Backend.AddConfirmedUser("test@example.com", "Password123")

	var errResp dto.ErrorResponse
	resp := s.postJSON("/api/v1/auth/signin", dto.CredentialsRequest{
		Email:    "test@example.com",
		Password: "WrongPassword1",
	}, &errResp)

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("invalid_credentials", errResp.Kind)
	s.Contains(errResp.Message, "Invalid email or password")
}

func (s *Suite) TestSignIn_MalformedEmail() {
	var errResp dto.ErrorResponse
	resp := s.postJSON("/api/v1/auth/signin", dto.CredentialsRequest{
		Email:    "not-an-email",
		Password: "Password123",
	}, &errResp)

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("invalid_email_format", errResp.Kind)
}

func (s *Suite) TestSignUp_ConfirmationFlow() {
	var errResp dto.ErrorResponse
	resp := s.postJSON("/api/v1/auth/signup", dto.CredentialsRequest{
		Email:    "new@example.com",
		Password: "Password123",
	}, &errResp)

	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("email_not_confirmed", errResp.Kind)
	s.Empty(errResp.Message, "confirmation is a routing signal, not an error message")

	// The pending user is visible but not authenticated.
	var snap session.Snapshot
	s.getJSON("/api/v1/session", &snap)
	s.Require().NotNil(snap.User)
	s.Equal("new@example.com", snap.User.Email)
	s.False(snap.Authenticated)

	// Redeeming the emailed code completes the flow.
	code := s.Backend.PendingCode("new@example.com")
	s.Require().NotEmpty(code)

	resp = s.postJSON("/api/v1/auth/verify", dto.VerifyRequest{Code: code}, &snap)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.True(snap.Authenticated)
	s.True(snap.EmailConfirmed)
}

func (s *Suite) TestSignUp_AlreadyRegistered() {
	s.Backend.AddConfirmedUser("taken@example.com", "Password123")

	var errResp dto.ErrorResponse
	resp := s.postJSON("/api/v1/auth/signup", dto.CredentialsRequest{
		Email:    "taken@example.com",
		Password: "Password123",
	}, &errResp)

	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("already_registered", errResp.Kind)
	s.Contains(errResp.Message, "already registered")
}

func (s *Suite) TestSignOut_ClearsSession() {
	s.Backend.AddConfirmedUser("test@example.com", "Password123")

	var snap session.Snapshot
	s.postJSON("/api/v1/auth/signin", dto.CredentialsRequest{
		Email:    "test@example.com",
		Password: "Password123",
	}, &snap)
	s.Require().True(snap.Authenticated)

	resp := s.postJSON("/api/v1/auth/signout", struct{}{}, &snap)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.False(snap.Authenticated)
	s.Nil(snap.User)
	s.Nil(snap.Session)
}

func (s *Suite) TestResetPassword() {
	var ok dto.SuccessResponse
	resp := s.postJSON("/api/v1/auth/reset", dto.ResetRequest{Email: "test@example.com"}, &ok)

	s.Equal(http.StatusOK, resp.StatusCode)
	s.NotEmpty(ok.Message)
}

func (s *Suite) TestSession_DefaultState() {
	var snap session.Snapshot
	s.getJSON("/api/v1/session", &snap)

	s.False(snap.Authenticated)
	s.False(snap.Loading)
	s.Equal(session.PhaseUnauthenticated, snap.Phase())
}

func (s *Suite) getJSON(path string, out any) {
	resp, err := http.Get(s.BaseURL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}
