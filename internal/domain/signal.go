package domain

// Profile is the reactive backend's user-profile document.
type Profile struct {
	ID             string `json:"id"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	OnboardingDone bool   `json:"onboarding_done"`
}

// AuthSignal is one observation of the reactive backend's auth state: the
// (isAuthenticated, isLoading, profile) tuple the sync bridge consumes.
//
// Profile carries three meanings: ProfileResolved=false means the live query
// has not answered yet; ProfileResolved=true with a nil Profile means the
// query answered "no record"; a non-nil Profile is the provisioned record.
type AuthSignal struct {
	Authenticated   bool     `json:"is_authenticated"`
	Loading         bool     `json:"is_loading"`
	Profile         *Profile `json:"profile,omitempty"`
	ProfileResolved bool     `json:"profile_resolved"`
}

// CanonicalUser translates a profile document into the canonical User shape.
func (p *Profile) CanonicalUser(provider Provider) *User {
	if p == nil {
		return nil
	}
	u := &User{
		ID:       p.ID,
		Email:    p.Email,
		Provider: provider,
	}
	if p.Name != "" || p.AvatarURL != "" {
		u.Metadata = map[string]string{}
		if p.Name != "" {
			u.Metadata["name"] = p.Name
		}
		if p.AvatarURL != "" {
			u.Metadata["avatar_url"] = p.AvatarURL
		}
	}
	return u
}
