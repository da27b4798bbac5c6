package httpapi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentKey_FollowsPersistedLayout(t *testing.T) {
	key := agentKey("tenant1", "workspace1", "agent1")
	assert.Equal(t, "agent:tenant1:workspace1:agent1", key)
}

func TestIsNotFound_MatchesKVNotFoundMessage(t *testing.T) {
	err := fmt.Errorf(`kv: key "agent:t:w:a" not found`)
	assert.True(t, isNotFound(err))
}

func TestIsNotFound_FalseForOtherErrors(t *testing.T) {
	assert.False(t, isNotFound(errors.New("connection refused")))
	assert.False(t, isNotFound(nil))
}
