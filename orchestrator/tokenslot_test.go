package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenSlot_ConsumeWithinBudgetSucceeds(t *testing.T) {
	slot := newTokenSlot(100)
	assert.True(t, slot.Consume(40))
	assert.Equal(t, 60, slot.Remaining())
}

func TestTokenSlot_ConsumeOverBudgetFails(t *testing.T) {
	slot := newTokenSlot(100)
	assert.True(t, slot.Consume(90))
	assert.False(t, slot.Consume(20))
	assert.Equal(t, 10, slot.Remaining())
}

func TestTokenSlot_DefaultsBudgetWhenNonPositive(t *testing.T) {
	slot := newTokenSlot(0)
	assert.Equal(t, defaultTokenBudget, slot.Remaining())
}

func TestOrchestrator_AcquireAndReleaseTokenSlot(t *testing.T) {
	o := &Orchestrator{slots: make(map[string]*TokenSlot)}

	slot := o.acquireTokenSlot("t:w:s", 500)
	assert.Equal(t, 500, slot.Remaining())
	assert.Len(t, o.slots, 1)

	o.releaseTokenSlot("t:w:s")
	assert.Empty(t, o.slots)
}
