package domain

import (
	"fmt"
	"strings"
)

// Groceries conversation menu labels
const (
	LabelAdd    = "Add to groceries list"
	LabelRemove = "Remove from groceries list"
	LabelExit   = "Exit groceries list mode"
)

// Transition is a labeled edge leaving a state
type Transition struct {
	Label  string
	Target State
	Prompt string
}

// Machine is a static conversation graph
type Machine struct {
	initial     State
	transitions map[State][]Transition
	terminal    map[State]bool
}

// NewMachine validates and builds a conversation graph.
// Labels must be unique within a state and terminal states have no transitions.
func NewMachine(initial State, transitions map[State][]Transition, terminal ...State) (*Machine, error) {
	m := &Machine{
		initial:     initial,
		transitions: make(map[State][]Transition, len(transitions)),
		terminal:    make(map[State]bool, len(terminal)),
	}
	for _, st := range terminal {
		if len(transitions[st]) > 0 {
			return nil, fmt.Errorf("terminal state %q has outgoing transitions", st)
		}
		m.terminal[st] = true
	}
	for st, list := range transitions {
		seen := make(map[string]struct{}, len(list))
		for _, tr := range list {
			if tr.Label == "" {
				return nil, fmt.Errorf("state %q has a transition without label", st)
			}
			if _, dup := seen[tr.Label]; dup {
				return nil, fmt.Errorf("state %q has duplicate transition %q", st, tr.Label)
			}
			seen[tr.Label] = struct{}{}
		}
		m.transitions[st] = append([]Transition(nil), list...)
	}
	return m, nil
}

// NewGroceriesMachine builds the groceries list conversation graph
func NewGroceriesMachine() *Machine {
	m, err := NewMachine(StateStart, map[State][]Transition{
		StateStart: {
			{Label: LabelAdd, Target: StateAdding, Prompt: "What do you want to add?"},
			{Label: LabelRemove, Target: StateRemoving, Prompt: "What do you want to remove?"},
			{Label: LabelExit, Target: StateEnd, Prompt: "Good bye!"},
		},
	}, StateEnd)
	if err != nil {
		panic(err)
	}
	return m
}

// Initial returns the entry state
func (m *Machine) Initial() State {
	return m.initial
}

// Transitions returns the ordered transitions leaving a state
func (m *Machine) Transitions(st State) []Transition {
	return m.transitions[st]
}

// Labels returns the ordered menu labels of a state
func (m *Machine) Labels(st State) []string {
	list := m.transitions[st]
	labels := make([]string, 0, len(list))
	for _, tr := range list {
		labels = append(labels, tr.Label)
	}
	return labels
}

// Match finds the transition whose label equals the trimmed text
func (m *Machine) Match(st State, text string) (Transition, bool) {
	text = strings.TrimSpace(text)
	for _, tr := range m.transitions[st] {
		if tr.Label == text {
			return tr, true
		}
	}
	return Transition{}, false
}

// IsTerminal reports whether a state ends the conversation
func (m *Machine) IsTerminal(st State) bool {
	return m.terminal[st]
}
