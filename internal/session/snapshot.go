package session

import "github.com/kitbase/authsync/internal/domain"

// Snapshot is one externally observable state of the store. Consumers only
// ever see whole snapshots; user, session and loading always change together,
// so no render can observe a torn state.
type Snapshot struct {
	User                   *domain.User    `json:"user"`
	Session                *domain.Session `json:"session"`
	Loading                bool            `json:"loading"`
	Authenticated          bool            `json:"is_authenticated"`
	EmailConfirmed         bool            `json:"is_email_confirmed"`
	HasCompletedOnboarding bool            `json:"has_completed_onboarding"`
	LastError              string          `json:"last_error,omitempty"`
	Version                uint64          `json:"version"`
}

// Phase collapses a snapshot to the single navigation-relevant state.
// Exactly one of unauthenticated / loading / authenticated holds at any
// observed instant.
type Phase string

const (
	PhaseLoading         Phase = "loading"
	PhaseAuthenticated   Phase = "authenticated"
	PhaseUnauthenticated Phase = "unauthenticated"
)

// Phase reports the navigation phase of this snapshot. Authenticated must
// not be trusted while the phase is loading.
func (s Snapshot) Phase() Phase {
	if s.Loading {
		return PhaseLoading
	}
	if s.Authenticated {
		return PhaseAuthenticated
	}
	return PhaseUnauthenticated
}
