package streamdoc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kitbase/authsync/internal/autherr"
	"github.com/kitbase/authsync/internal/config"
	"github.com/kitbase/authsync/internal/domain"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Adapter wraps the reactive document-store backend. Its auth calls are
// request/reply; the current auth state is a live subscription consumed by
// the sync bridge, so successful sign-in/up return no session here; state
// lands in the store through the bridge.
type Adapter struct {
	conn   *nats.Conn
	cfg    config.StreamdocConfig
	logger *zap.Logger
	stream *stream
}

// rpcRequest is the request/reply body for the backend's auth operations.
type rpcRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Code     string `json:"code,omitempty"`
}

// rpcReply is the backend's answer. Error carries vendor error text that
// gets classified into the closed taxonomy.
type rpcReply struct {
	OK            bool            `json:"ok"`
	Error         string          `json:"error,omitempty"`
	Authenticated bool            `json:"is_authenticated,omitempty"`
	Profile       *domain.Profile `json:"profile,omitempty"`
}

// New creates the reactive backend adapter and starts the live auth-state
// subscription.
func New(cfg config.StreamdocConfig, conn *nats.Conn, logger *zap.Logger) (*Adapter, error) {
	st, err := newStream(conn, cfg.SubjectPrefix+".auth.state", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to auth state: %w", err)
	}

	return &Adapter{
		conn:   conn,
		cfg:    cfg,
		logger: logger,
		stream: st,
	}, nil
}

func (a *Adapter) Name() domain.Provider { return domain.ProviderStreamdoc }

// RequiresConfirmedEmail is false: this backend reports authenticated or not,
// there is no separate email-confirmation gate.
func (a *Adapter) RequiresConfirmedEmail() bool { return false }

func (a *Adapter) Signals() <-chan domain.AuthSignal { return a.stream.signals }

func (a *Adapter) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	if err := a.call(ctx, "signin", rpcRequest{Email: email, Password: password}, nil); err != nil {
		return nil, err
	}
	// State propagation happens via the live subscription.
	return nil, nil
}

func (a *Adapter) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	if err := a.call(ctx, "signup", rpcRequest{Email: email, Password: password}, nil); err != nil {
		return nil, err
	}
	return nil, nil
}

func (a *Adapter) SignOut(ctx context.Context) error {
	return a.call(ctx, "signout", rpcRequest{}, nil)
}

// CurrentSession asks the backend for its current auth state and shapes it
// into a synthetic session; tokens are managed inside the backend.
func (a *Adapter) CurrentSession(ctx context.Context) (*domain.Session, error) {
	reply := &rpcReply{}
	if err := a.call(ctx, "session", rpcRequest{}, reply); err != nil {
		return nil, err
	}
	if !reply.Authenticated {
		return nil, nil
	}

	user := reply.Profile.CanonicalUser(domain.ProviderStreamdoc)
	if user == nil {
		user = domain.PlaceholderUser(domain.ProviderStreamdoc)
	}
	return domain.SyntheticSession(user, int(a.cfg.NominalExpiry.Duration.Seconds())), nil
}

func (a *Adapter) VerifyOTP(ctx context.Context, email, code string) (*domain.Session, error) {
	if err := a.call(ctx, "verify", rpcRequest{Email: email, Code: code}, nil); err != nil {
		return nil, err
	}
	return nil, nil
}

func (a *Adapter) ResetPassword(ctx context.Context, email string) error {
	return a.call(ctx, "reset", rpcRequest{Email: email}, nil)
}

func (a *Adapter) UpdatePassword(ctx context.Context, newPassword string) error {
	return a.call(ctx, "password", rpcRequest{Password: newPassword}, nil)
}

func (a *Adapter) ExchangeCode(ctx context.Context, code string) (*domain.Session, error) {
	if err := a.call(ctx, "exchange", rpcRequest{Code: code}, nil); err != nil {
		return nil, err
	}
	return nil, nil
}

// AdoptTokens is not meaningful here: the backend never exposes raw tokens.
func (a *Adapter) AdoptTokens(context.Context, string, string) (*domain.Session, error) {
	return nil, autherr.New(autherr.KindUnknown, "token adoption is not supported by this backend")
}

func (a *Adapter) Close() error {
	return a.stream.close()
}

// call performs one request/reply auth operation.
func (a *Adapter) call(ctx context.Context, op string, req rpcRequest, out *rpcReply) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout.Duration)
	defer cancel()

	msg, err := a.conn.RequestWithContext(ctx, a.cfg.SubjectPrefix+".auth."+op, payload)
	if err != nil {
		// No responders, timeouts, and broken connections all count as
		// connectivity failures to the caller.
		return autherr.New(autherr.KindNetwork, err.Error())
	}

	reply := out
	if reply == nil {
		reply = &rpcReply{}
	}
	if err := json.Unmarshal(msg.Data, reply); err != nil {
		return fmt.Errorf("failed to decode reply: %w", err)
	}

	if !reply.OK {
		return autherr.FromVendor(reply.Error)
	}
	return nil
}
