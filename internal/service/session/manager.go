package session

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	model "github.com/Urbandonment/trophy-forge/internal/model/session"
	"github.com/Urbandonment/trophy-forge/internal/psn"
)

// Exchanger performs the upstream credential exchanges. *psn.Client satisfies
// it; tests substitute a fake.
type Exchanger interface {
	ExchangeNpssoForCode(ctx context.Context, npsso string) (string, error)
	ExchangeCodeForTokens(ctx context.Context, code string) (psn.TokenResponse, error)
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (psn.TokenResponse, error)
}

// Manager owns the single process-wide PSN session. Concurrent callers that
// find the session missing or expired are coalesced onto one outstanding
// authentication operation; they all observe the same completed session.
type Manager struct {
	exchanger Exchanger
	npsso     string
	margin    time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	current model.Session

	group singleflight.Group
}

// NewManager builds a session manager around the given exchanger.
func NewManager(exchanger Exchanger, npsso string, margin time.Duration) *Manager {
	if margin <= 0 {
		margin = 60 * time.Second
	}
	return &Manager{
		exchanger: exchanger,
		npsso:     npsso,
		margin:    margin,
		now:       time.Now,
	}
}

// Ensure returns a valid session, performing the initial authentication or a
// refresh when needed. A failed exchange surfaces to the caller and leaves
// any previously valid session untouched.
func (m *Manager) Ensure(ctx context.Context) (model.Session, error) {
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()

	if current.Valid(m.now()) {
		return current, nil
	}

	result, err, _ := m.group.Do("auth", func() (any, error) {
		return m.authenticate(ctx)
	})
	if err != nil {
		return model.Session{}, err
	}
	return result.(model.Session), nil
}

// authenticate runs inside the single flight. It re-checks the session first:
// a caller that queued behind a completed refresh must not trigger another.
func (m *Manager) authenticate(ctx context.Context) (model.Session, error) {
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()

	if current.Valid(m.now()) {
		return current, nil
	}

	var tokens psn.TokenResponse
	var err error
	if current.RefreshToken != "" {
		log.Printf("[session] access token expired, refreshing")
		tokens, err = m.exchanger.ExchangeRefreshToken(ctx, current.RefreshToken)
	} else {
		log.Printf("[session] authenticating with NPSSO token")
		var code string
		code, err = m.exchanger.ExchangeNpssoForCode(ctx, m.npsso)
		if err == nil {
			tokens, err = m.exchanger.ExchangeCodeForTokens(ctx, code)
		}
	}
	if err != nil {
		return model.Session{}, psn.AuthFailure(err)
	}

	next := model.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    m.now().Add(time.Duration(tokens.ExpiresIn)*time.Second - m.margin),
	}

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()

	return next, nil
}
