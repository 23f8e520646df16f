package session

import (
	"context"

	"github.com/kitbase/authsync/internal/autherr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// storeMetrics counts auth outcomes and bridge activity. Counter creation
// errors are ignored; metrics must never break auth.
type storeMetrics struct {
	signIns           metric.Int64Counter
	signUps           metric.Int64Counter
	signOuts          metric.Int64Counter
	bridgeTransitions metric.Int64Counter
	placeholderStalls metric.Int64Counter
}

func newStoreMetrics() *storeMetrics {
	meter := otel.Meter("authsync/session")

	m := &storeMetrics{}
	m.signIns, _ = meter.Int64Counter("auth_sign_in_total")
	m.signUps, _ = meter.Int64Counter("auth_sign_up_total")
	m.signOuts, _ = meter.Int64Counter("auth_sign_out_total")
	m.bridgeTransitions, _ = meter.Int64Counter("auth_bridge_transitions_total")
	m.placeholderStalls, _ = meter.Int64Counter("auth_placeholder_stalls_total")
	return m
}

func outcome(err error) attribute.KeyValue {
	if err == nil {
		return attribute.String("outcome", "success")
	}
	return attribute.String("outcome", string(autherr.KindOf(err)))
}

func (m *storeMetrics) signIn(ctx context.Context, err error) {
	m.signIns.Add(ctx, 1, metric.WithAttributes(outcome(err)))
}

func (m *storeMetrics) signUp(ctx context.Context, err error) {
	m.signUps.Add(ctx, 1, metric.WithAttributes(outcome(err)))
}

func (m *storeMetrics) signOut(ctx context.Context) {
	m.signOuts.Add(ctx, 1)
}

func (m *storeMetrics) bridgeTransition(ctx context.Context, state string) {
	m.bridgeTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

func (m *storeMetrics) placeholderStall(ctx context.Context) {
	m.placeholderStalls.Add(ctx, 1)
}
