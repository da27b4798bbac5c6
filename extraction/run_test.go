package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunState_CanTransitionTo_FollowsLinearOrder(t *testing.T) {
	assert.True(t, StatePending.CanTransitionTo(StateChunking))
	assert.True(t, StateChunking.CanTransitionTo(StateClassifying))
	assert.True(t, StateWriting.CanTransitionTo(StateCompleted))
	assert.False(t, StatePending.CanTransitionTo(StateExtracting))
	assert.False(t, StateCompleted.CanTransitionTo(StateChunking))
}

func TestRunState_IsTerminal(t *testing.T) {
	assert.True(t, StateCompleted.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateChunking.IsTerminal())
}

func TestRunManager_StartAndTransition(t *testing.T) {
	m := NewRunManager(0)
	run := m.Start("run-1", "doc-1", "tenant-a", "ws-a")
	assert.Equal(t, StatePending, run.State)

	require.NoError(t, m.TransitionTo("run-1", StateChunking))
	got, ok := m.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, StateChunking, got.State)
	assert.Nil(t, got.CompletedAt)
}

func TestRunManager_TransitionTo_RejectsSkippedState(t *testing.T) {
	m := NewRunManager(0)
	m.Start("run-1", "doc-1", "tenant-a", "ws-a")
	err := m.TransitionTo("run-1", StateWriting)
	assert.Error(t, err)
}

func TestRunManager_TransitionTo_UnknownRun(t *testing.T) {
	m := NewRunManager(0)
	err := m.TransitionTo("missing", StateChunking)
	assert.Error(t, err)
}

func TestRunManager_Fail_SetsTerminalStateAndReason(t *testing.T) {
	m := NewRunManager(0)
	m.Start("run-1", "doc-1", "tenant-a", "ws-a")
	require.NoError(t, m.TransitionTo("run-1", StateChunking))

	require.NoError(t, m.Fail("run-1", "boom"))
	got, ok := m.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, StateFailed, got.State)
	assert.Equal(t, []string{"boom"}, got.Errors)
	assert.NotNil(t, got.CompletedAt)
}

func TestRunManager_Fail_RejectsAlreadyTerminalRun(t *testing.T) {
	m := NewRunManager(0)
	m.Start("run-1", "doc-1", "tenant-a", "ws-a")
	require.NoError(t, m.Fail("run-1", "first failure"))
	assert.Error(t, m.Fail("run-1", "second failure"))
}

func TestRunManager_SetStat(t *testing.T) {
	m := NewRunManager(0)
	m.Start("run-1", "doc-1", "tenant-a", "ws-a")
	m.SetStat("run-1", "nodes_written", 7)
	got, ok := m.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, 7, got.Stats["nodes_written"])
}

func TestRunManager_Start_EvictsOldestWhenFull(t *testing.T) {
	m := NewRunManager(2)
	m.Start("run-1", "doc-1", "tenant-a", "ws-a")
	m.Start("run-2", "doc-2", "tenant-a", "ws-a")
	m.Start("run-3", "doc-3", "tenant-a", "ws-a")

	assert.Len(t, m.List(), 2)
	_, ok := m.Get("run-1")
	assert.False(t, ok, "oldest run should have been evicted")
	_, ok = m.Get("run-3")
	assert.True(t, ok)
}
