package flows

import (
	"context"
	"net/url"
	"time"

	"github.com/kitbase/authsync/internal/autherr"
	"github.com/kitbase/authsync/internal/domain"
	"github.com/kitbase/authsync/internal/session"
	"go.uber.org/zap"
)

// DeepLink is the auth payload carried by a confirmation or recovery URL.
// Backends and platforms disagree on the shape: confirmation links carry
// ?code=&type=, PKCE links a bare ?code=, and implicit-flow links put the
// tokens in the hash fragment.
type DeepLink struct {
	Code         string
	Type         string
	AccessToken  string
	RefreshToken string
}

// Empty reports whether the link carried nothing usable.
func (l DeepLink) Empty() bool {
	return l.Code == "" && l.AccessToken == ""
}

// ParseDeepLink extracts the auth payload from a callback URL. Query
// parameters win over the hash fragment when both are present.
func ParseDeepLink(raw string) (DeepLink, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return DeepLink{}, err
	}

	q := u.Query()
	if code := q.Get("code"); code != "" {
		return DeepLink{Code: code, Type: q.Get("type")}, nil
	}
	// Fragment tokens re-posted as query parameters by the callback shim.
	if at := q.Get("access_token"); at != "" {
		return DeepLink{AccessToken: at, RefreshToken: q.Get("refresh_token")}, nil
	}

	if u.Fragment != "" {
		frag, err := url.ParseQuery(u.Fragment)
		if err == nil && frag.Get("access_token") != "" {
			return DeepLink{
				AccessToken:  frag.Get("access_token"),
				RefreshToken: frag.Get("refresh_token"),
			}, nil
		}
	}
	return DeepLink{}, nil
}

// CallbackFlow turns a deep link into an authenticated session.
type CallbackFlow struct {
	store      *session.Store
	logger     *zap.Logger
	wait       time.Duration
	retryDelay time.Duration
}

// NewCallbackFlow creates the flow. wait bounds the initial poll delay and
// retryDelay the single retry that follows it.
func NewCallbackFlow(store *session.Store, logger *zap.Logger, wait, retryDelay time.Duration) *CallbackFlow {
	return &CallbackFlow{store: store, logger: logger, wait: wait, retryDelay: retryDelay}
}

// Handle exchanges whatever the link carries for a session. Links that
// yield nothing directly fall back to a bounded wait plus one retry against
// the backend's session getter before failing: some backends finish the
// exchange server-side and only expose the result through that getter.
func (f *CallbackFlow) Handle(ctx context.Context, rawURL string) (*domain.Session, error) {
	link, err := ParseDeepLink(rawURL)
	if err != nil {
		return nil, autherr.New(autherr.KindUnknown, "malformed sign-in link")
	}

	provider := f.store.Provider()

	var sess *domain.Session
	switch {
	case link.Code != "" && (link.Type == "signup" || link.Type == "email"):
		sess, err = provider.VerifyOTP(ctx, "", link.Code)
	case link.Code != "":
		sess, err = provider.ExchangeCode(ctx, link.Code)
	case link.AccessToken != "":
		sess, err = provider.AdoptTokens(ctx, link.AccessToken, link.RefreshToken)
	}
	if err != nil {
		return nil, autherr.AsError(err)
	}

	if sess == nil {
		sess, err = f.pollSession(ctx)
		if err != nil {
			return nil, err
		}
	}
	if sess == nil {
		return nil, autherr.New(autherr.KindUnknown, "could not establish a session from the sign-in link")
	}

	f.store.SetAuth(sess.User, sess)
	return sess, nil
}

// pollSession waits for the backend to settle, asks for the session, and
// retries exactly once.
func (f *CallbackFlow) pollSession(ctx context.Context) (*domain.Session, error) {
	delays := []time.Duration{f.wait, f.retryDelay}
	for i, delay := range delays {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		sess, err := f.store.Provider().CurrentSession(ctx)
		if err != nil {
			f.logger.Warn("Session poll after callback failed", zap.Error(err))
			if i == len(delays)-1 {
				return nil, autherr.AsError(err)
			}
			continue
		}
		if sess != nil {
			return sess, nil
		}
	}
	return nil, nil
}
