package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ratthapon/talad/internal/bus"
	"github.com/ratthapon/talad/internal/metrics"
	"github.com/ratthapon/talad/internal/rest"
	"github.com/ratthapon/talad/internal/session"
	"go.uber.org/zap"
)

// Screen is one mounted chat conversation: identity resolution, the poll
// loop and the send pipeline, tied to a single state machine.
type Screen struct {
	ChatID string

	machine  *Machine
	resolver *session.Resolver
	poller   *Poller
	sender   *Sender
	logger   *zap.Logger

	mu       sync.Mutex
	identity *session.Identity
}

// NewScreen wires a screen for one chat.
func NewScreen(chatID string, resolver *session.Resolver, feed Feed, writer MessageWriter, interval time.Duration, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *Screen {
	if logger == nil {
		logger = zap.NewNop()
	}
	poller := NewPoller(chatID, feed, interval, b, m, logger)
	return &Screen{
		ChatID:   chatID,
		machine:  NewMachine(chatID, b),
		resolver: resolver,
		poller:   poller,
		sender:   NewSender(chatID, writer, poller, m, logger),
		logger:   logger,
	}
}

// Open resolves identity with bounded retries and starts polling. An
// unresolved identity is terminal for this mount: the state machine lands
// in Unauthenticated and the caller navigates away.
func (s *Screen) Open(ctx context.Context) error {
	id, err := s.resolver.Resolve(ctx)
	if err != nil {
		_ = s.machine.Transition(Unauthenticated)
		s.logger.Warn("chat screen unauthenticated", zap.String("chat_id", s.ChatID))
		return fmt.Errorf("open chat %s: %w", s.ChatID, err)
	}

	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()

	if err := s.machine.Transition(Authenticated); err != nil {
		return err
	}
	// The poll loop outlives the call that mounted the screen; only Close
	// stops it.
	s.poller.Start(context.WithoutCancel(ctx))
	return nil
}

// Close cancels the poll timer. Idempotent.
func (s *Screen) Close() {
	s.poller.Stop()
	if s.machine.Current() != Stopped {
		_ = s.machine.Transition(Stopped)
	}
}

// State returns the screen's current lifecycle state.
func (s *Screen) State() State {
	return s.machine.Current()
}

// Identity returns the resolved identity, nil before Open succeeds.
func (s *Screen) Identity() *session.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Messages returns the current message snapshot.
func (s *Screen) Messages() []rest.Message {
	return s.poller.Messages()
}

// SendText sends a text message as the resolved identity.
func (s *Screen) SendText(ctx context.Context, body string) error {
	id, err := s.enterSending()
	if err != nil {
		return err
	}
	defer s.exitSending()
	return s.sender.SendText(ctx, id.UserID, body)
}

// SendMedia sends a binary message as the resolved identity.
func (s *Screen) SendMedia(ctx context.Context, mediaKind, filename string, data []byte) error {
	id, err := s.enterSending()
	if err != nil {
		return err
	}
	defer s.exitSending()
	return s.sender.SendMedia(ctx, id.UserID, mediaKind, filename, data)
}

func (s *Screen) enterSending() (*session.Identity, error) {
	s.mu.Lock()
	id := s.identity
	s.mu.Unlock()
	if id == nil {
		return nil, fmt.Errorf("chat %s: no resolved identity", s.ChatID)
	}
	// Sending is also the send-button-disabled signal: a second send while
	// one is in flight is rejected by the transition check.
	if err := s.machine.Transition(Sending); err != nil {
		return nil, err
	}
	return id, nil
}

func (s *Screen) exitSending() {
	_ = s.machine.Transition(Authenticated)
}

// Manager owns the screens the daemon currently has mounted, one per chat.
type Manager struct {
	resolver *session.Resolver
	client   *rest.Client
	interval time.Duration
	bus      *bus.Bus
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	screens map[string]*Screen
}

// NewManager creates the screen registry.
func NewManager(resolver *session.Resolver, client *rest.Client, interval time.Duration, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		resolver: resolver,
		client:   client,
		interval: interval,
		bus:      b,
		metrics:  m,
		logger:   logger,
		screens:  make(map[string]*Screen),
	}
}

// Open returns the mounted screen for a chat, opening one if needed.
func (m *Manager) Open(ctx context.Context, chatID string) (*Screen, error) {
	m.mu.Lock()
	if scr, ok := m.screens[chatID]; ok {
		m.mu.Unlock()
		return scr, nil
	}
	scr := NewScreen(chatID, m.resolver, &RestFeed{Client: m.client}, m.client, m.interval, m.bus, m.metrics, m.logger)
	m.screens[chatID] = scr
	m.mu.Unlock()

	if err := scr.Open(ctx); err != nil {
		m.mu.Lock()
		delete(m.screens, chatID)
		m.mu.Unlock()
		return nil, err
	}
	return scr, nil
}

// Close unmounts one chat screen.
func (m *Manager) Close(chatID string) {
	m.mu.Lock()
	scr, ok := m.screens[chatID]
	delete(m.screens, chatID)
	m.mu.Unlock()
	if ok {
		scr.Close()
	}
}

// CloseAll unmounts every screen; used at daemon shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	screens := m.screens
	m.screens = make(map[string]*Screen)
	m.mu.Unlock()
	for _, scr := range screens {
		scr.Close()
	}
}
