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

func newResetFixture(provider *scriptedProvider, timeout time.Duration) *ResetFlow {
	store := session.NewStore(provider, zap.NewNop())
	return NewResetFlow(store, zap.NewNop(), timeout)
}

func TestResetRequestValidatesEmail(t *testing.T) {
	f := newResetFixture(&scriptedProvider{}, time.Second)

	err := f.Request(context.Background(), "not-an-email")
	assert.Equal(t, autherr.KindInvalidEmailFormat, autherr.KindOf(err))
}

func TestResetRequestFiresRecoveryEmail(t *testing.T) {
	f := newResetFixture(&scriptedProvider{}, time.Second)
	require.NoError(t, f.Request(context.Background(), "a@b.c"))
}

func TestUpdatePasswordCompletesWithinBound(t *testing.T) {
	f := newResetFixture(&scriptedProvider{}, time.Second)
	require.NoError(t, f.UpdatePassword(context.Background(), "Str0ngPass1"))
}

func TestUpdatePasswordSoftTimeout(t *testing.T) {
	provider := &scriptedProvider{updateDelay: 200 * time.Millisecond}
	f := newResetFixture(provider, 10*time.Millisecond)

	start := time.Now()
	err := f.UpdatePassword(context.Background(), "Str0ngPass1")
	assert.ErrorIs(t, err, ErrUpdateTimeout)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "caller must stop waiting at the bound")
}

func TestUpdatePasswordRejectsWeakPasswordBeforeBackend(t *testing.T) {
	f := newResetFixture(&scriptedProvider{}, time.Second)

	err := f.UpdatePassword(context.Background(), "short")
	assert.Equal(t, autherr.KindWeakPassword, autherr.KindOf(err))
}
