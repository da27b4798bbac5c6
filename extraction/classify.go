package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"purplefabric.ai/graphrag/chat"
)

// DocumentClassification is the result of one classification call, used
// only to pick an ontology slice when more than one exists (§4.4 Classify).
type DocumentClassification struct {
	DocumentType string   `json:"document_type"`
	Industry     string   `json:"industry"`
	Topics       []string `json:"topics"`
	Confidence   float64  `json:"confidence"`
}

const classifySystemPrompt = `You classify a source document for a knowledge-extraction pipeline.
Respond with JSON only: {"document_type":"...","industry":"...","topics":["..."],"confidence":0.0}`

// Classify issues the single LLM call §4.4 specifies to produce a
// DocumentClassification from the document's (leading) text.
func Classify(ctx context.Context, model chat.Model, documentText string) (DocumentClassification, error) {
	resp, err := model.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: documentText},
		},
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		return DocumentClassification{}, fmt.Errorf("extraction: Classify: %w", err)
	}

	var c DocumentClassification
	if err := json.Unmarshal([]byte(stripJSONFence(resp.Content)), &c); err != nil {
		return DocumentClassification{}, fmt.Errorf("extraction: Classify parse: %w", err)
	}
	return c, nil
}

// stripJSONFence strips a surrounding ```json fence, if the model wrapped
// its JSON reply in one, before unmarshaling.
func stripJSONFence(content string) string {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
