package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ratthapon/talad/internal/rest"
)

type spyFeed struct {
	mu    sync.Mutex
	calls int
	msgs  []rest.Message
	err   error
}

func (f *spyFeed) Fetch(ctx context.Context, chatID string) ([]rest.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]rest.Message, len(f.msgs))
	copy(out, f.msgs)
	return out, nil
}

func (f *spyFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *spyFeed) set(msgs []rest.Message, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = msgs
	f.err = err
}

func TestPollerFetchesImmediatelyOnStart(t *testing.T) {
	feed := &spyFeed{msgs: []rest.Message{{Body: "hello"}}}
	p := NewPoller("c1", feed, time.Hour, nil, nil, nil)

	p.Start(context.Background())
	defer p.Stop()

	if feed.callCount() != 1 {
		t.Errorf("expected one fetch before the first tick, got %d", feed.callCount())
	}
	if got := p.Messages(); len(got) != 1 || got[0].Body != "hello" {
		t.Errorf("unexpected snapshot: %+v", got)
	}
}

func TestPollerStopCancelsTimer(t *testing.T) {
	feed := &spyFeed{}
	interval := 20 * time.Millisecond
	p := NewPoller("c1", feed, interval, nil, nil, nil)

	p.Start(context.Background())
	time.Sleep(3 * interval)
	p.Stop()

	stopped := feed.callCount()
	if stopped < 2 {
		t.Fatalf("expected ticks before stop, got %d fetches", stopped)
	}

	time.Sleep(3 * interval)
	if after := feed.callCount(); after != stopped {
		t.Errorf("fetches continued after Stop: %d -> %d", stopped, after)
	}
}

func TestPollerReplacesSnapshotWholesale(t *testing.T) {
	feed := &spyFeed{msgs: []rest.Message{{Body: "a"}, {Body: "b"}}}
	p := NewPoller("c1", feed, time.Hour, nil, nil, nil)

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := p.Messages(); len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}

	// Server dropped a message; the snapshot follows, no merging.
	feed.set([]rest.Message{{Body: "b"}}, nil)
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got := p.Messages()
	if len(got) != 1 || got[0].Body != "b" {
		t.Errorf("expected wholesale replacement, got %+v", got)
	}
}

func TestPollerKeepsSnapshotOnFetchError(t *testing.T) {
	feed := &spyFeed{msgs: []rest.Message{{Body: "kept"}}}
	p := NewPoller("c1", feed, time.Hour, nil, nil, nil)

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	feed.set(nil, errors.New("backend down"))
	if err := p.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	got := p.Messages()
	if len(got) != 1 || got[0].Body != "kept" {
		t.Errorf("snapshot lost on fetch error: %+v", got)
	}
}

func TestPollerDefaultInterval(t *testing.T) {
	p := NewPoller("c1", &spyFeed{}, 0, nil, nil, nil)
	if p.interval != DefaultInterval {
		t.Errorf("expected default interval %v, got %v", DefaultInterval, p.interval)
	}
}
