package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition — переход невозможен из текущего состояния.
	// Повторное применение уже применённого перехода тоже ошибка, а не no-op.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotAuthorized — роль актора не допущена к переходу.
	ErrNotAuthorized = errors.New("actor is not authorized for this transition")
)

// Transition — одно ребро графа состояний.
type Transition struct {
	From  string
	Event string
	To    string
	Roles []string // пустой список = переход только для системы (sweep)
}

type edgeKey struct {
	from  string
	event string
}

// Machine — таблица переходов с проверкой роли на каждом ребре.
// Состояния и события — строки, чтобы таблицы разных воркфлоу
// (брони, смена кампуса, жалобы) строились поверх одного движка.
type Machine struct {
	edges    map[edgeKey]Transition
	terminal map[string]bool
}

func New(transitions []Transition, terminal ...string) *Machine {
	m := &Machine{
		edges:    make(map[edgeKey]Transition, len(transitions)),
		terminal: make(map[string]bool, len(terminal)),
	}
	for _, t := range transitions {
		m.edges[edgeKey{from: t.From, event: t.Event}] = t
	}
	for _, s := range terminal {
		m.terminal[s] = true
	}
	return m
}

// Next возвращает целевое состояние для события из состояния from с ролью actorRole.
func (m *Machine) Next(from, event, actorRole string) (string, error) {
	if m.terminal[from] {
		return "", fmt.Errorf("%w: %q is terminal", ErrInvalidTransition, from)
	}

	t, ok := m.edges[edgeKey{from: from, event: event}]
	if !ok {
		return "", fmt.Errorf("%w: no edge %q from %q", ErrInvalidTransition, event, from)
	}

	if len(t.Roles) > 0 && !roleAllowed(t.Roles, actorRole) {
		return "", fmt.Errorf("%w: role %q cannot apply %q", ErrNotAuthorized, actorRole, event)
	}

	return t.To, nil
}

// CanFire сообщает, существует ли ребро, без проверки роли.
func (m *Machine) CanFire(from, event string) bool {
	if m.terminal[from] {
		return false
	}
	_, ok := m.edges[edgeKey{from: from, event: event}]
	return ok
}

// IsTerminal сообщает, является ли состояние поглощающим.
func (m *Machine) IsTerminal(state string) bool {
	return m.terminal[state]
}

func roleAllowed(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
