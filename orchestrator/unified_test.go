package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"purplefabric.ai/graphrag/chat"
)

func TestPlanMode_ParsesEachKnownAnswer(t *testing.T) {
	cases := map[string]Mode{
		"rag":     ModeRAG,
		"graph":   ModeGraph,
		"graphdb": ModeGraphDB,
		"hybrid":  ModeHybrid,
		"RAG":     ModeRAG,
	}
	for answer, want := range cases {
		model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
			return chat.Response{Content: answer}, nil
		})
		assert.Equal(t, want, planMode(context.Background(), model, "question"))
	}
}

func TestPlanMode_DefaultsToHybridOnUnknownAnswer(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: "something unexpected"}, nil
	})
	assert.Equal(t, ModeHybrid, planMode(context.Background(), model, "question"))
}

func TestPlanMode_DefaultsToHybridWhenModelNil(t *testing.T) {
	assert.Equal(t, ModeHybrid, planMode(context.Background(), nil, "question"))
}

func TestPlanMode_DefaultsToHybridOnModelError(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{}, assert.AnError
	})
	assert.Equal(t, ModeHybrid, planMode(context.Background(), model, "question"))
}
