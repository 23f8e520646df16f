package flows

import (
	"context"
	"testing"
	"time"

	"github.com/kitbase/authsync/internal/autherr"
	"github.com/kitbase/authsync/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseDeepLink(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want DeepLink
	}{
		{
			"signup confirmation",
			"app://auth/callback?code=abc123&type=signup",
			DeepLink{Code: "abc123", Type: "signup"},
		},
		{
			"email change confirmation",
			"app://auth/callback?code=abc123&type=email",
			DeepLink{Code: "abc123", Type: "email"},
		},
		{
			"pkce exchange",
			"http://localhost:3999/auth/callback?code=xyz",
			DeepLink{Code: "xyz"},
		},
		{
			"implicit flow hash tokens",
			"http://localhost:3999/auth/callback#access_token=at1&refresh_token=rt1&token_type=bearer",
			DeepLink{AccessToken: "at1", RefreshToken: "rt1"},
		},
		{
			"query wins over hash",
			"app://cb?code=q1#access_token=at1",
			DeepLink{Code: "q1"},
		},
		{
			"shim re-posted tokens in query",
			"http://localhost:3999/auth/callback?from_fragment=1&access_token=at1&refresh_token=rt1",
			DeepLink{AccessToken: "at1", RefreshToken: "rt1"},
		},
		{
			"nothing usable",
			"app://auth/callback?error=access_denied",
			DeepLink{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDeepLink(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newCallbackFixture(provider *scriptedProvider) (*CallbackFlow, *session.Store) {
	store := session.NewStore(provider, zap.NewNop())
	return NewCallbackFlow(store, zap.NewNop(), time.Millisecond, time.Millisecond), store
}

func TestCallbackVerifiesConfirmationCode(t *testing.T) {
	provider := &scriptedProvider{verifySession: testSession("u1")}
	f, store := newCallbackFixture(provider)

	sess, err := f.Handle(context.Background(), "app://cb?code=abc&type=signup")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, 1, provider.verifyCalls)
	assert.Zero(t, provider.exchangeCalls)

	snap := store.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, "u1", snap.User.ID)
}

func TestCallbackExchangesPKCECode(t *testing.T) {
	provider := &scriptedProvider{exchangeSession: testSession("u1")}
	f, _ := newCallbackFixture(provider)

	_, err := f.Handle(context.Background(), "app://cb?code=abc")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.exchangeCalls)
	assert.Zero(t, provider.verifyCalls)
}

func TestCallbackAdoptsHashTokens(t *testing.T) {
	provider := &scriptedProvider{adoptSession: testSession("u1")}
	f, _ := newCallbackFixture(provider)

	_, err := f.Handle(context.Background(), "app://cb#access_token=at1&refresh_token=rt1")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.adoptCalls)
}

func TestCallbackFallsBackToSessionPoll(t *testing.T) {
	provider := &scriptedProvider{
		currentQueue: []currentResult{
			{nil, nil},
			{testSession("u1"), nil},
		},
	}
	f, store := newCallbackFixture(provider)

	sess, err := f.Handle(context.Background(), "app://cb")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, 2, provider.currentCalls, "exactly one retry after the initial poll")
	assert.True(t, store.Snapshot().Authenticated)
}

func TestCallbackFailsAfterSingleRetry(t *testing.T) {
	provider := &scriptedProvider{}
	f, store := newCallbackFixture(provider)

	sess, err := f.Handle(context.Background(), "app://cb")
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.Equal(t, 2, provider.currentCalls)
	assert.Equal(t, autherr.KindUnknown, autherr.KindOf(err))
	assert.False(t, store.Snapshot().Authenticated)
}

func TestCallbackSurfacesVerifyError(t *testing.T) {
	provider := &scriptedProvider{verifyErr: autherr.New(autherr.KindInvalidCredentials, "Token has expired or is invalid")}
	f, _ := newCallbackFixture(provider)

	_, err := f.Handle(context.Background(), "app://cb?code=abc&type=signup")
	assert.Equal(t, autherr.KindInvalidCredentials, autherr.KindOf(err))
}
