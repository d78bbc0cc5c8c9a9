package chat

import "testing"

func TestMachineInitialState(t *testing.T) {
	m := NewMachine("c1", nil)
	if m.Current() != Resolving {
		t.Errorf("expected initial state %s, got %s", Resolving, m.Current())
	}
}

func TestMachineValidTransitions(t *testing.T) {
	steps := []State{Authenticated, Sending, Authenticated, Stopped}
	m := NewMachine("c1", nil)
	for _, to := range steps {
		if err := m.Transition(to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if m.Current() != Stopped {
		t.Errorf("expected %s, got %s", Stopped, m.Current())
	}
}

func TestMachineInvalidTransition(t *testing.T) {
	m := NewMachine("c1", nil)
	if err := m.Transition(Sending); err == nil {
		t.Error("expected error transitioning Resolving -> Sending")
	}
	if m.Current() != Resolving {
		t.Errorf("state changed on invalid transition: %s", m.Current())
	}
}

func TestMachineTerminalStates(t *testing.T) {
	for _, terminal := range []State{Unauthenticated, Stopped} {
		m := NewMachine("c1", nil)
		if err := m.Transition(terminal); err != nil {
			t.Fatalf("transition to %s: %v", terminal, err)
		}
		if err := m.Transition(Authenticated); err == nil {
			t.Errorf("expected %s to be terminal", terminal)
		}
	}
}
