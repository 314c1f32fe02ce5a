package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to ItemStatus }{
		{StatusPending, StatusCreated},
		{StatusPending, StatusFailed},
		{StatusCreated, StatusPosted},
		{StatusCreated, StatusCreatedNotPosted},
	}
	for _, step := range legal {
		assert.True(t, step.from.CanTransition(step.to), "%s -> %s should be legal", step.from, step.to)
	}

	illegal := []struct{ from, to ItemStatus }{
		{StatusPending, StatusPosted},
		{StatusPending, StatusCreatedNotPosted},
		{StatusCreated, StatusPending},
		{StatusPosted, StatusCreated},
		{StatusPosted, StatusPending},
		{StatusFailed, StatusCreated},
		{StatusCreatedNotPosted, StatusPosted},
	}
	for _, step := range illegal {
		assert.False(t, step.from.CanTransition(step.to), "%s -> %s should be illegal", step.from, step.to)
	}
}

func TestTransition_MutatesOnLegalStep(t *testing.T) {
	item := ComposedItem{ID: "item-1", Status: StatusPending}

	require.NoError(t, item.Transition(StatusCreated))
	assert.Equal(t, StatusCreated, item.Status)

	require.NoError(t, item.Transition(StatusPosted))
	assert.Equal(t, StatusPosted, item.Status)
}

func TestTransition_RejectsIllegalStep(t *testing.T) {
	item := ComposedItem{ID: "item-1", Status: StatusPending}

	err := item.Transition(StatusPosted)
	require.Error(t, err)
	assert.Equal(t, StatusPending, item.Status)
	assert.Contains(t, err.Error(), "invalid status transition")
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []ItemStatus{StatusPosted, StatusFailed, StatusCreatedNotPosted} {
		for _, next := range []ItemStatus{StatusPending, StatusCreated, StatusPosted, StatusFailed, StatusCreatedNotPosted} {
			assert.False(t, terminal.CanTransition(next), "%s -> %s", terminal, next)
		}
	}
}
