package chat

import (
	"context"
	"sync"
	"time"

	"github.com/ratthapon/talad/internal/bus"
	"github.com/ratthapon/talad/internal/metrics"
	"github.com/ratthapon/talad/internal/rest"
	"go.uber.org/zap"
)

// DefaultInterval is the poll cadence used when none is configured. The
// original screens ranged from 3 to 5 seconds.
const DefaultInterval = 4 * time.Second

// Poller maintains a near-real-time view of one chat's messages by fetching
// on a fixed interval. Every fetch replaces the snapshot wholesale in server
// order; there is no client-side sorting, deduplication or delta merge.
type Poller struct {
	chatID   string
	feed     Feed
	interval time.Duration
	bus      *bus.Bus
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu     sync.Mutex
	msgs   []rest.Message
	cancel context.CancelFunc
}

// NewPoller creates a poller for one chat. interval <= 0 uses the default.
func NewPoller(chatID string, feed Feed, interval time.Duration, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		chatID:   chatID,
		feed:     feed,
		interval: interval,
		bus:      b,
		metrics:  m,
		logger:   logger,
	}
}

// Start fetches immediately and then on every tick until Stop. Fetch
// failures are passive: logged, counted, never surfaced to the screen.
func (p *Poller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	_ = p.Refresh(ctx)
	go p.loop(ctx)
}

// Stop cancels the poll timer. No further fetches run after it returns;
// an in-flight fetch is cancelled at the transport level.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = p.Refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Refresh fetches once and replaces the snapshot. The send path calls it
// directly so an outgoing message becomes visible without waiting for the
// next tick.
func (p *Poller) Refresh(ctx context.Context) error {
	if p.metrics != nil {
		p.metrics.IncPollTick()
	}

	msgs, err := p.feed.Fetch(ctx, p.chatID)
	if err != nil {
		if p.metrics != nil {
			p.metrics.IncPollError()
		}
		p.logger.Error("message fetch failed", zap.String("chat_id", p.chatID), zap.Error(err))
		return err
	}

	p.mu.Lock()
	p.msgs = msgs
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.Publish(bus.Event{
			Kind:    "chat.messages_replaced",
			Payload: map[string]any{"chat_id": p.chatID, "count": len(msgs)},
		})
	}
	return nil
}

// Messages returns the current snapshot in server order.
func (p *Poller) Messages() []rest.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]rest.Message, len(p.msgs))
	copy(out, p.msgs)
	return out
}
