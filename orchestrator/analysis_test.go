package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"purplefabric.ai/graphrag/chat"
)

func TestExtractKeyTerms_UsesModelWhenAvailable(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: "Acme Corp, revenue, 2024"}, nil
	})

	terms := ExtractKeyTerms(context.Background(), model, "what was Acme Corp's revenue in 2024?")
	assert.Equal(t, []string{"Acme Corp", "revenue", "2024"}, terms)
}

func TestExtractKeyTerms_FallsBackWhenModelNil(t *testing.T) {
	terms := ExtractKeyTerms(context.Background(), nil, "What is the relationship between Acme Corp and Globex Inc?")
	assert.Contains(t, terms, "Acme Corp")
	assert.Contains(t, terms, "Globex Inc")
	assert.LessOrEqual(t, len(terms), maxKeyTerms)
}

func TestExtractKeyTerms_FallsBackWhenModelErrors(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{}, assert.AnError
	})

	terms := ExtractKeyTerms(context.Background(), model, "how does billing work?")
	assert.NotEmpty(t, terms)
}

func TestExtractKeyTermsDeterministic_DropsStopwordsAndDuplicates(t *testing.T) {
	terms := extractKeyTermsDeterministic("what is the status of the status report")
	for _, term := range terms {
		assert.NotEqual(t, "the", term)
		assert.NotEqual(t, "is", term)
	}
	assert.Len(t, terms, 2) // "status", "report" (deduplicated)
}

func TestExtractKeyTermsDeterministic_CapsAtMaxKeyTerms(t *testing.T) {
	terms := extractKeyTermsDeterministic("Alpha Beta Gamma Delta Epsilon Zeta Eta Theta Iota")
	assert.LessOrEqual(t, len(terms), maxKeyTerms)
}
