package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purplefabric.ai/graphrag/chat"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(fmt.Sprintf("redis://%s/0", mr.Addr()), nil, nil)
	require.NoError(t, err)
	return s, mr
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("not-a-url", nil, nil)
	assert.Error(t, err)
}

func TestPoolFor_RoutesTypesToFixedPools(t *testing.T) {
	assert.Equal(t, PoolAgent, PoolFor(TypeSemantic))
	assert.Equal(t, PoolAgent, PoolFor(TypeEvent))
	assert.Equal(t, PoolUser, PoolFor(TypePreference))
	assert.Equal(t, PoolUser, PoolFor(TypeDecision))
}

func TestRecordKey_AgentVsUserScoping(t *testing.T) {
	assert.Equal(t, "memory:agent:agent1:user1:mem1", recordKey(PoolAgent, "agent1", "user1", "mem1"))
	assert.Equal(t, "memory:user:user1:mem1", recordKey(PoolUser, "agent1", "user1", "mem1"))
}

func TestExtractJSONBody_StripsMarkdownFence(t *testing.T) {
	raw := "```json\n{\"candidates\":[]}\n```"
	assert.Equal(t, `{"candidates":[]}`, extractJSONBody(raw))
}

func TestExtractJSONBody_PassesThroughPlainJSON(t *testing.T) {
	raw := `{"candidates":[]}`
	assert.Equal(t, raw, extractJSONBody(raw))
}

func TestParseConsolidationDecision_FillsDefaultsFromCandidate(t *testing.T) {
	raw := rawCandidate{Content: "fallback content", Importance: 0.4}

	decision, err := parseConsolidationDecision(`{"action":"ADD"}`, raw)
	require.NoError(t, err)
	assert.Equal(t, actionAdd, decision.Action)
	assert.Equal(t, "fallback content", decision.Content)
	assert.InDelta(t, 0.4, decision.Importance, 0.0001)
}

func TestParseConsolidationDecision_PrefersModelFields(t *testing.T) {
	raw := rawCandidate{Content: "fallback content", Importance: 0.4}

	decision, err := parseConsolidationDecision(`{"action":"UPDATE","content":"refined content","importance":0.7,"target_id":"mem_123"}`, raw)
	require.NoError(t, err)
	assert.Equal(t, actionUpdate, decision.Action)
	assert.Equal(t, "refined content", decision.Content)
	assert.InDelta(t, 0.7, decision.Importance, 0.0001)
	assert.Equal(t, "mem_123", decision.TargetID)
}

func TestParseConsolidationDecision_RejectsMalformedJSON(t *testing.T) {
	_, err := parseConsolidationDecision("not json", rawCandidate{})
	assert.Error(t, err)
}

func TestConsolidate_NoSimilarMemoriesAddsWithoutCallingChat(t *testing.T) {
	s, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	called := false
	s.chat = chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		called = true
		return chat.Response{}, nil
	})

	decision, err := s.consolidate(ctx, "agent1", "user1", rawCandidate{Type: TypeSemantic, Content: "new fact", Importance: 0.5})
	require.NoError(t, err)
	assert.False(t, called, "consolidate must not call chat when there are no similar memories to consolidate against")
	assert.Equal(t, actionAdd, decision.Action)
	assert.Equal(t, "new fact", decision.Content)
}

func TestAppendSessionMessage_TrimsToBoundedLog(t *testing.T) {
	s, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	for i := 0; i < maxSessionMessages+10; i++ {
		err := s.AppendSessionMessage(ctx, "agent1", "user1", "sess1", SessionMessage{
			Role:      "user",
			Content:   fmt.Sprintf("msg-%d", i),
			Timestamp: time.Now(),
		})
		require.NoError(t, err)
	}

	log, err := s.SessionHistory(ctx, "agent1", "user1", "sess1")
	require.NoError(t, err)
	assert.Len(t, log, maxSessionMessages)
	assert.Equal(t, "msg-10", log[0].Content)
}

func TestListSessions_OrdersByRecency(t *testing.T) {
	s, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, s.AppendSessionMessage(ctx, "agent1", "user1", "sess-old", SessionMessage{Content: "a", Timestamp: base}))
	require.NoError(t, s.AppendSessionMessage(ctx, "agent1", "user1", "sess-new", SessionMessage{Content: "b", Timestamp: base.Add(time.Hour)}))

	sessions, err := s.ListSessions(ctx, "agent1", "user1", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "sess-new", sessions[0])
}

func TestCoreBlock_SetAndGetRoundTrips(t *testing.T) {
	s, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, s.setCoreBlock(ctx, "agent1", "user1", "user prefers concise answers"))

	block, err := s.getCoreBlock(ctx, "agent1", "user1")
	require.NoError(t, err)
	assert.Equal(t, "user prefers concise answers", block.Content)
}

func TestCoreBlock_TruncatesToCap(t *testing.T) {
	s, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	oversized := make([]byte, maxCoreBlockChars+500)
	for i := range oversized {
		oversized[i] = 'x'
	}
	require.NoError(t, s.setCoreBlock(ctx, "agent1", "user1", string(oversized)))

	block, err := s.getCoreBlock(ctx, "agent1", "user1")
	require.NoError(t, err)
	assert.Len(t, block.Content, maxCoreBlockChars)
}

func TestDecayMemories_DecaysImportanceByFactorAfterSoftWindowWhenNeverRecalled(t *testing.T) {
	s, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	rec := Record{
		MemoryID:     "mem1",
		Pool:         PoolAgent,
		AgentID:      "agent1",
		UserID:       "user1",
		Type:         TypeSemantic,
		Content:      "stale fact",
		Importance:   0.8,
		AccessCount:  0,
		Status:       StatusActive,
		CreatedAt:    time.Now().Add(-45 * 24 * time.Hour),
		LastAccessed: time.Now().Add(-45 * 24 * time.Hour),
	}
	require.NoError(t, s.setJSON(ctx, recordKey(PoolAgent, "agent1", "user1", "mem1"), rec))

	decayed, err := s.DecayMemories(ctx, "agent1", "user1")
	require.NoError(t, err)
	assert.Equal(t, 1, decayed)

	updated, err := s.getRecord(ctx, recordKey(PoolAgent, "agent1", "user1", "mem1"))
	require.NoError(t, err)
	assert.Equal(t, StatusActive, updated.Status)
	assert.InDelta(t, 0.72, updated.Importance, 0.0001)
}

func TestDecayMemories_SoftWindowSkipsMemoriesThatWereRecalled(t *testing.T) {
	s, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	rec := Record{
		MemoryID:     "mem1",
		Pool:         PoolAgent,
		AgentID:      "agent1",
		UserID:       "user1",
		Type:         TypeSemantic,
		Content:      "still useful fact",
		Importance:   0.8,
		AccessCount:  3,
		Status:       StatusActive,
		CreatedAt:    time.Now().Add(-45 * 24 * time.Hour),
		LastAccessed: time.Now().Add(-45 * 24 * time.Hour),
	}
	require.NoError(t, s.setJSON(ctx, recordKey(PoolAgent, "agent1", "user1", "mem1"), rec))

	decayed, err := s.DecayMemories(ctx, "agent1", "user1")
	require.NoError(t, err)
	assert.Equal(t, 0, decayed)

	updated, err := s.getRecord(ctx, recordKey(PoolAgent, "agent1", "user1", "mem1"))
	require.NoError(t, err)
	assert.Equal(t, StatusActive, updated.Status)
	assert.InDelta(t, 0.8, updated.Importance, 0.0001)
}

func TestDecayMemories_InvalidatesAfterHardWindowOnlyWhenLowImportanceAndRarelyAccessed(t *testing.T) {
	s, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	rec := Record{
		MemoryID:     "mem1",
		Pool:         PoolUser,
		UserID:       "user1",
		Type:         TypePreference,
		Content:      "ancient preference",
		Importance:   0.2,
		AccessCount:  1,
		Status:       StatusActive,
		CreatedAt:    time.Now().Add(-120 * 24 * time.Hour),
		LastAccessed: time.Now().Add(-120 * 24 * time.Hour),
	}
	require.NoError(t, s.setJSON(ctx, recordKey(PoolUser, "", "user1", "mem1"), rec))

	decayed, err := s.DecayMemories(ctx, "agent1", "user1")
	require.NoError(t, err)
	assert.Equal(t, 1, decayed)

	updated, err := s.getRecord(ctx, recordKey(PoolUser, "", "user1", "mem1"))
	require.NoError(t, err)
	assert.Equal(t, StatusInvalid, updated.Status)
}

func TestDecayMemories_HardWindowSparesImportantFrequentlyAccessedMemories(t *testing.T) {
	s, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	rec := Record{
		MemoryID:     "mem1",
		Pool:         PoolUser,
		UserID:       "user1",
		Type:         TypePreference,
		Content:      "important, well-used preference",
		Importance:   0.9,
		AccessCount:  10,
		Status:       StatusActive,
		CreatedAt:    time.Now().Add(-120 * 24 * time.Hour),
		LastAccessed: time.Now().Add(-120 * 24 * time.Hour),
	}
	require.NoError(t, s.setJSON(ctx, recordKey(PoolUser, "", "user1", "mem1"), rec))

	decayed, err := s.DecayMemories(ctx, "agent1", "user1")
	require.NoError(t, err)
	assert.Equal(t, 0, decayed)

	updated, err := s.getRecord(ctx, recordKey(PoolUser, "", "user1", "mem1"))
	require.NoError(t, err)
	assert.Equal(t, StatusActive, updated.Status)
	assert.InDelta(t, 0.9, updated.Importance, 0.0001)
}

func TestClearAllAgentData_RemovesAgentScopeOnly(t *testing.T) {
	s, mr := newTestStore(t)
	defer mr.Close()
	ctx := context.Background()

	agentKey := recordKey(PoolAgent, "agent1", "user1", "mem1")
	userKey := recordKey(PoolUser, "", "user1", "mem2")
	require.NoError(t, s.setJSON(ctx, agentKey, Record{MemoryID: "mem1"}))
	require.NoError(t, s.setJSON(ctx, userKey, Record{MemoryID: "mem2"}))

	require.NoError(t, s.ClearAllAgentData(ctx, "agent1", "user1"))

	_, err := s.getRecord(ctx, agentKey)
	assert.Error(t, err)
	_, err = s.getRecord(ctx, userKey)
	assert.NoError(t, err)
}

func TestEscapeTag_EscapesReservedCharacters(t *testing.T) {
	assert.Equal(t, "tenant\\-a", escapeTag("tenant-a"))
	assert.Equal(t, "10\\.0\\.0\\.1", escapeTag("10.0.0.1"))
}
