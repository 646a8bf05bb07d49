package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Urbandonment/trophy-forge/internal/psn"
)

// fakeExchanger counts exchange calls and can hold the initial exchange open
// until released, so tests can pile callers onto one in-flight authentication.
type fakeExchanger struct {
	codeCalls    atomic.Int64
	tokenCalls   atomic.Int64
	refreshCalls atomic.Int64

	hold chan struct{}

	refreshErr error
	expiresIn  int
}

func (f *fakeExchanger) ExchangeNpssoForCode(ctx context.Context, npsso string) (string, error) {
	f.codeCalls.Add(1)
	if f.hold != nil {
		<-f.hold
	}
	return "code-" + npsso, nil
}

func (f *fakeExchanger) ExchangeCodeForTokens(ctx context.Context, code string) (psn.TokenResponse, error) {
	n := f.tokenCalls.Add(1)
	return psn.TokenResponse{
		AccessToken:  "access-" + string(rune('0'+n)),
		RefreshToken: "refresh-" + string(rune('0'+n)),
		ExpiresIn:    f.expiry(),
	}, nil
}

func (f *fakeExchanger) ExchangeRefreshToken(ctx context.Context, refreshToken string) (psn.TokenResponse, error) {
	f.refreshCalls.Add(1)
	if f.refreshErr != nil {
		return psn.TokenResponse{}, f.refreshErr
	}
	return psn.TokenResponse{
		AccessToken:  "refreshed-access",
		RefreshToken: "refreshed-refresh",
		ExpiresIn:    f.expiry(),
	}, nil
}

func (f *fakeExchanger) expiry() int {
	if f.expiresIn != 0 {
		return f.expiresIn
	}
	return 3600
}

func TestEnsureAuthenticatesOnce(t *testing.T) {
	fake := &fakeExchanger{}
	mgr := NewManager(fake, "npsso-1", time.Minute)

	first, err := mgr.Ensure(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.AccessToken == "" {
		t.Fatal("expected an access token")
	}

	second, err := mgr.Ensure(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.AccessToken != first.AccessToken {
		t.Fatalf("expected the cached session, got %q then %q", first.AccessToken, second.AccessToken)
	}
	if got := fake.codeCalls.Load(); got != 1 {
		t.Fatalf("expected 1 code exchange, got %d", got)
	}
}

func TestEnsureCoalescesConcurrentCallers(t *testing.T) {
	fake := &fakeExchanger{hold: make(chan struct{})}
	mgr := NewManager(fake, "npsso-1", time.Minute)

	const callers = 16
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := mgr.Ensure(context.Background())
			tokens[i], errs[i] = sess.AccessToken, err
		}(i)
	}

	// Give every caller a chance to reach the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(fake.hold)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if tokens[i] != tokens[0] {
			t.Fatalf("caller %d observed a different session: %q vs %q", i, tokens[i], tokens[0])
		}
	}
	if got := fake.codeCalls.Load(); got != 1 {
		t.Fatalf("expected 1 code exchange across %d callers, got %d", callers, got)
	}
	if got := fake.tokenCalls.Load(); got != 1 {
		t.Fatalf("expected 1 token exchange across %d callers, got %d", callers, got)
	}
}

func TestEnsureRefreshesExpiredSession(t *testing.T) {
	fake := &fakeExchanger{expiresIn: 3600}
	mgr := NewManager(fake, "npsso-1", time.Minute)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return clock }

	first, err := mgr.Ensure(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Inside the safety margin the token counts as expired even though the
	// upstream lifetime has a minute left.
	clock = clock.Add(3600*time.Second - 30*time.Second)

	second, err := mgr.Ensure(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.AccessToken == first.AccessToken {
		t.Fatal("expected a refreshed access token")
	}
	if second.AccessToken != "refreshed-access" {
		t.Fatalf("expected the refresh path, got token %q", second.AccessToken)
	}
	if got := fake.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 refresh, got %d", got)
	}
	if got := fake.codeCalls.Load(); got != 1 {
		t.Fatalf("expected the NPSSO exchange to run once, got %d", got)
	}
}

func TestEnsureSurfacesRefreshFailure(t *testing.T) {
	fake := &fakeExchanger{refreshErr: errors.New("refresh token revoked")}
	mgr := NewManager(fake, "npsso-1", time.Minute)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return clock }

	if _, err := mgr.Ensure(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock = clock.Add(2 * time.Hour)

	_, err := mgr.Ensure(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if psn.OutcomeOf(err) != psn.OutcomeAuthFailure {
		t.Fatalf("expected an auth failure, got outcome %v", psn.OutcomeOf(err))
	}

	// The stale session must not be handed out after a failed refresh.
	mgr.mu.RLock()
	current := mgr.current
	mgr.mu.RUnlock()
	if current.Valid(clock) {
		t.Fatal("expected the stored session to remain expired")
	}
}
