package domain

import "time"

// Provider identifies which backend issued an identity. It is carried for
// diagnostics only; business logic outside the adapters must not branch on it.
type Provider string

const (
	ProviderPostgrest Provider = "postgrest"
	ProviderStreamdoc Provider = "streamdoc"
	ProviderNone      Provider = "none"
)

// PlaceholderUserID marks a synthetic user created while the reactive backend
// reports an authenticated session but the profile query has not provisioned
// a record yet.
const PlaceholderUserID = "pending"

// User is the canonical, backend-agnostic representation of an authenticated
// principal.
type User struct {
	ID               string            `json:"id"`
	Email            string            `json:"email,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	EmailConfirmedAt *time.Time        `json:"email_confirmed_at,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Provider         Provider          `json:"provider"`
}

// EmailConfirmed reports whether the identity is usable for full app features.
func (u *User) EmailConfirmed() bool {
	return u != nil && u.EmailConfirmedAt != nil
}

// IsPlaceholder reports whether this user was synthesized to unblock
// navigation during an auth/profile provisioning race.
func (u *User) IsPlaceholder() bool {
	return u != nil && u.ID == PlaceholderUserID
}

// PlaceholderUser returns the synthetic user installed while the profile
// record for an authenticated reactive session has not resolved yet.
func PlaceholderUser(p Provider) *User {
	return &User{
		ID:        PlaceholderUserID,
		CreatedAt: time.Now().UTC(),
		Provider:  p,
	}
}
