package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purplefabric.ai/graphrag/chat"
)

func TestStripJSONFence_RemovesMarkdownFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripJSONFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFence(`{"a":1}`))
}

func TestClassify_ParsesModelResponse(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: `{"document_type":"contract","industry":"legal","topics":["nda"],"confidence":0.8}`}, nil
	})

	got, err := Classify(context.Background(), model, "some document text")
	require.NoError(t, err)
	assert.Equal(t, "contract", got.DocumentType)
	assert.Equal(t, "legal", got.Industry)
	assert.Equal(t, []string{"nda"}, got.Topics)
	assert.Equal(t, 0.8, got.Confidence)
}

func TestClassify_PropagatesModelError(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{}, errors.New("backend unavailable")
	})

	_, err := Classify(context.Background(), model, "text")
	assert.Error(t, err)
}

func TestClassify_PropagatesMalformedJSON(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: "not json"}, nil
	})

	_, err := Classify(context.Background(), model, "text")
	assert.Error(t, err)
}
