package flows

import (
	"context"
	"sync"
	"time"

	"github.com/kitbase/authsync/internal/domain"
)

// scriptedProvider lets each test script the backend calls a flow makes.
type scriptedProvider struct {
	mu sync.Mutex

	verifySession   *domain.Session
	verifyErr       error
	exchangeSession *domain.Session
	exchangeErr     error
	adoptSession    *domain.Session
	adoptErr        error
	resetErr        error
	updateErr       error
	updateDelay     time.Duration

	// currentQueue is consumed one entry per CurrentSession call.
	currentQueue []currentResult

	verifyCalls   int
	exchangeCalls int
	adoptCalls    int
	currentCalls  int
}

type currentResult struct {
	session *domain.Session
	err     error
}

func (p *scriptedProvider) Name() domain.Provider { return domain.ProviderPostgrest }

func (p *scriptedProvider) SignIn(context.Context, string, string) (*domain.Session, error) {
	return nil, nil
}

func (p *scriptedProvider) SignUp(context.Context, string, string) (*domain.Session, error) {
	return nil, nil
}

func (p *scriptedProvider) SignOut(context.Context) error { return nil }

func (p *scriptedProvider) CurrentSession(context.Context) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentCalls++
	if len(p.currentQueue) == 0 {
		return nil, nil
	}
	next := p.currentQueue[0]
	p.currentQueue = p.currentQueue[1:]
	return next.session, next.err
}

func (p *scriptedProvider) VerifyOTP(context.Context, string, string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verifyCalls++
	return p.verifySession, p.verifyErr
}

func (p *scriptedProvider) ResetPassword(context.Context, string) error { return p.resetErr }

func (p *scriptedProvider) UpdatePassword(context.Context, string) error {
	if p.updateDelay > 0 {
		time.Sleep(p.updateDelay)
	}
	return p.updateErr
}

func (p *scriptedProvider) ExchangeCode(context.Context, string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchangeCalls++
	return p.exchangeSession, p.exchangeErr
}

func (p *scriptedProvider) AdoptTokens(context.Context, string, string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adoptCalls++
	return p.adoptSession, p.adoptErr
}

func (p *scriptedProvider) RequiresConfirmedEmail() bool      { return false }
func (p *scriptedProvider) Signals() <-chan domain.AuthSignal { return nil }
func (p *scriptedProvider) Close() error                      { return nil }

func testSession(id string) *domain.Session {
	user := &domain.User{ID: id, Email: id + "@example.com", Provider: domain.ProviderPostgrest}
	return &domain.Session{AccessToken: "at-" + id, RefreshToken: "rt-" + id, ExpiresIn: 3600, User: user}
}
