package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProvider struct {
	calls int
	id    *Identity
	err   error
}

func (f *fakeProvider) Session(_ context.Context) (*Identity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.id, nil
}

type fakeTokens struct {
	token  string
	userID string
}

func (f fakeTokens) AuthToken() (string, error) { return f.token, nil }
func (f fakeTokens) UserID() (string, error)    { return f.userID, nil }

func TestResolveExactRetryBound(t *testing.T) {
	provider := &fakeProvider{err: ErrNoSession}
	r := NewResolver(provider, fakeTokens{}, 3, 20*time.Millisecond, nil)

	start := time.Now()
	_, err := r.Resolve(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("error = %v, want ErrUnauthenticated", err)
	}
	if provider.calls != 3 {
		t.Errorf("provider calls = %d, want exactly 3", provider.calls)
	}
	// Two inter-attempt delays for three attempts.
	if elapsed < 40*time.Millisecond {
		t.Errorf("elapsed = %v, want at least two 20ms delays", elapsed)
	}
}

func TestResolveLiveSessionWinsFirstAttempt(t *testing.T) {
	provider := &fakeProvider{id: &Identity{UserID: "u-1", Email: "nok@example.com", Token: "tok"}}
	r := NewResolver(provider, fakeTokens{}, 3, time.Hour, nil)

	id, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != "u-1" {
		t.Errorf("UserID = %q", id.UserID)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (no retries after success)", provider.calls)
	}
}

func TestResolveFallsBackToStoredTokens(t *testing.T) {
	provider := &fakeProvider{err: ErrNoSession}
	r := NewResolver(provider, fakeTokens{token: "tok-9", userID: "u-9"}, 3, time.Hour, nil)

	id, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != "u-9" || id.Token != "tok-9" {
		t.Errorf("fallback identity = %+v", id)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (fallback hit on first attempt)", provider.calls)
	}
}

func TestResolveIgnoresPartialFallback(t *testing.T) {
	// Token without a user id is unusable; the loop must keep going.
	provider := &fakeProvider{err: ErrNoSession}
	r := NewResolver(provider, fakeTokens{token: "tok-9"}, 2, time.Millisecond, nil)

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("error = %v, want ErrUnauthenticated", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}
}

func TestResolveHonorsContextCancel(t *testing.T) {
	provider := &fakeProvider{err: ErrNoSession}
	r := NewResolver(provider, fakeTokens{}, 3, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.Resolve(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDefaultsApplied(t *testing.T) {
	r := NewResolver(&fakeProvider{err: ErrNoSession}, fakeTokens{}, 0, 0, nil)
	if r.attempts != 3 {
		t.Errorf("attempts = %d, want 3", r.attempts)
	}
	if r.delay != 500*time.Millisecond {
		t.Errorf("delay = %v, want 500ms", r.delay)
	}
}
