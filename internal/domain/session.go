package domain

import "time"

// SyntheticTokenValue fills the token fields of sessions issued by the
// reactive backend, which manages credentials internally. The canonical
// Session exists there only to satisfy the uniform contract.
const SyntheticTokenValue = "managed-by-backend"

// Session is the canonical representation of an active login.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}

// Synthetic reports whether this session's tokens are placeholders for a
// backend that owns token lifecycle itself.
func (s *Session) Synthetic() bool {
	return s != nil && s.AccessToken == SyntheticTokenValue
}

// SyntheticSession builds a placeholder session for backends that never
// expose raw tokens. expiresIn is a nominal constant reported best-effort.
func SyntheticSession(user *User, expiresIn int) *Session {
	return &Session{
		AccessToken:  SyntheticTokenValue,
		RefreshToken: SyntheticTokenValue,
		ExpiresIn:    expiresIn,
		ExpiresAt:    time.Now().Add(time.Duration(expiresIn) * time.Second),
		User:         user,
	}
}
