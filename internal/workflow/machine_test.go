package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestMachine() *Machine {
	return New([]Transition{
		{From: "Pending", Event: "approve", To: "Approved", Roles: []string{"admin"}},
		{From: "Pending", Event: "reject", To: "Rejected", Roles: []string{"admin"}},
		{From: "Approved", Event: "start", To: "Active"}, // системный переход
	}, "Rejected", "Done")
}

func TestMachineNext(t *testing.T) {
	m := newTestMachine()

	next, err := m.Next("Pending", "approve", "admin")
	assert.NoError(t, err)
	assert.Equal(t, "Approved", next)
}

func TestMachineUnauthorizedRole(t *testing.T) {
	m := newTestMachine()

	_, err := m.Next("Pending", "approve", "student")
	assert.True(t, errors.Is(err, ErrNotAuthorized))
}

func TestMachineUnknownEdge(t *testing.T) {
	m := newTestMachine()

	_, err := m.Next("Approved", "approve", "admin")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestMachineTerminalState(t *testing.T) {
	m := newTestMachine()

	_, err := m.Next("Rejected", "approve", "admin")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.True(t, m.IsTerminal("Rejected"))
	assert.False(t, m.IsTerminal("Pending"))
}

func TestMachineSystemEdgeIgnoresRole(t *testing.T) {
	m := newTestMachine()

	next, err := m.Next("Approved", "start", "")
	assert.NoError(t, err)
	assert.Equal(t, "Active", next)
}

func TestMachineCanFire(t *testing.T) {
	m := newTestMachine()

	assert.True(t, m.CanFire("Pending", "approve"))
	assert.False(t, m.CanFire("Rejected", "approve"))
	assert.False(t, m.CanFire("Pending", "start"))
}

// Повторное применение уже применённого перехода должно падать, а не молча проходить.
func TestMachineDoubleApproveFails(t *testing.T) {
	m := newTestMachine()

	next, err := m.Next("Pending", "approve", "admin")
	assert.NoError(t, err)

	_, err = m.Next(next, "approve", "admin")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}
