package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ratthapon/talad/internal/session"
)

type fakeProvider struct {
	id  *session.Identity
	err error
}

func (p *fakeProvider) Session(ctx context.Context) (*session.Identity, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.id, nil
}

type fakeTokens struct {
	token  string
	userID string
}

func (f *fakeTokens) AuthToken() (string, error) { return f.token, nil }
func (f *fakeTokens) UserID() (string, error)    { return f.userID, nil }

func newTestScreen(provider session.Provider, fallback session.TokenStore, backend *recordingBackend) *Screen {
	resolver := session.NewResolver(provider, fallback, 1, time.Millisecond, nil)
	return NewScreen("c1", resolver, backend, backend, time.Hour, nil, nil, nil)
}

func TestScreenOpenAuthenticatedStartsPolling(t *testing.T) {
	provider := &fakeProvider{id: &session.Identity{UserID: "u1", Token: "tok"}}
	backend := &recordingBackend{}
	scr := newTestScreen(provider, &fakeTokens{}, backend)
	defer scr.Close()

	if err := scr.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if scr.State() != Authenticated {
		t.Errorf("expected %s, got %s", Authenticated, scr.State())
	}
	if id := scr.Identity(); id == nil || id.UserID != "u1" {
		t.Errorf("unexpected identity: %+v", id)
	}
	if ops := backend.operations(); len(ops) != 1 || ops[0] != "fetch" {
		t.Errorf("expected immediate fetch on open, got %v", ops)
	}
}

func TestScreenOpenUnauthenticatedIsTerminal(t *testing.T) {
	provider := &fakeProvider{err: session.ErrNoSession}
	backend := &recordingBackend{}
	scr := newTestScreen(provider, &fakeTokens{}, backend)

	err := scr.Open(context.Background())
	if !errors.Is(err, session.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if scr.State() != Unauthenticated {
		t.Errorf("expected %s, got %s", Unauthenticated, scr.State())
	}
	if ops := backend.operations(); len(ops) != 0 {
		t.Errorf("poller started without identity: %v", ops)
	}
	if err := scr.SendText(context.Background(), "hi"); err == nil {
		t.Error("expected send to fail without identity")
	}
}

func TestScreenFallbackIdentity(t *testing.T) {
	provider := &fakeProvider{err: session.ErrNoSession}
	fallback := &fakeTokens{token: "persisted", userID: "u9"}
	backend := &recordingBackend{}
	scr := newTestScreen(provider, fallback, backend)
	defer scr.Close()

	if err := scr.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if id := scr.Identity(); id == nil || id.UserID != "u9" || id.Token != "persisted" {
		t.Errorf("expected fallback identity, got %+v", id)
	}
}

func TestScreenSendTextUsesResolvedIdentity(t *testing.T) {
	provider := &fakeProvider{id: &session.Identity{UserID: "u1", Token: "tok"}}
	backend := &recordingBackend{}
	scr := newTestScreen(provider, &fakeTokens{}, backend)
	defer scr.Close()

	if err := scr.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := scr.SendText(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if scr.State() != Authenticated {
		t.Errorf("expected %s after send, got %s", Authenticated, scr.State())
	}
	msgs := scr.Messages()
	if len(msgs) != 1 || msgs[0].SenderID != "u1" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestScreenCloseStopsPolling(t *testing.T) {
	provider := &fakeProvider{id: &session.Identity{UserID: "u1", Token: "tok"}}
	backend := &recordingBackend{}
	resolver := session.NewResolver(provider, &fakeTokens{}, 1, time.Millisecond, nil)
	interval := 20 * time.Millisecond
	scr := NewScreen("c1", resolver, backend, backend, interval, nil, nil, nil)

	if err := scr.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	time.Sleep(2 * interval)
	scr.Close()
	if scr.State() != Stopped {
		t.Errorf("expected %s, got %s", Stopped, scr.State())
	}

	before := len(backend.operations())
	time.Sleep(3 * interval)
	if after := len(backend.operations()); after != before {
		t.Errorf("fetches continued after close: %d -> %d", before, after)
	}
}
