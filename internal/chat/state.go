package chat

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ratthapon/talad/internal/bus"
)

// State is a chat screen's lifecycle state.
type State string

const (
	// Resolving is the initial state: identity is being resolved with
	// bounded retries.
	Resolving State = "RESOLVING"
	// Authenticated means polling is running with a resolved identity.
	Authenticated State = "AUTHENTICATED"
	// Sending is a sub-state of Authenticated while a write is in flight.
	Sending State = "SENDING"
	// Unauthenticated is terminal for this mount: no identity after all
	// retries, the screen navigates away.
	Unauthenticated State = "UNAUTHENTICATED"
	// Stopped is terminal: the screen unmounted and the poll timer is
	// cancelled.
	Stopped State = "STOPPED"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Resolving:       {Authenticated, Unauthenticated, Stopped},
	Authenticated:   {Sending, Stopped},
	Sending:         {Authenticated, Stopped},
	Unauthenticated: {},
	Stopped:         {},
}

// Machine tracks and enforces one chat screen's state transitions.
type Machine struct {
	mu      sync.RWMutex
	chatID  string
	current State
	bus     *bus.Bus
}

// NewMachine creates a state machine starting in Resolving.
func NewMachine(chatID string, b *bus.Bus) *Machine {
	return &Machine{
		chatID:  chatID,
		current: Resolving,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns an error if the
// transition is not allowed.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind: "chat.state_changed",
			Payload: StateChange{
				ChatID: m.chatID,
				From:   from,
				To:     to,
			},
		})
	}
	return nil
}

// StateChange is the payload for chat state change events.
type StateChange struct {
	ChatID string
	From   State
	To     State
}
