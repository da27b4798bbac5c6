package orchestrator

import (
	"context"
	"regexp"
	"strings"

	"purplefabric.ai/graphrag/chat"
)

const maxKeyTerms = 7

var (
	capitalizedRunRe = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9]*(?:\s+[A-Z][a-zA-Z0-9]*)*)\b`)
	wordRe           = regexp.MustCompile(`[A-Za-z0-9]+`)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "for": {}, "to": {},
	"and": {}, "or": {}, "is": {}, "are": {}, "was": {}, "were": {}, "what": {},
	"who": {}, "which": {}, "how": {}, "does": {}, "do": {}, "did": {}, "with": {},
	"about": {}, "that": {}, "this": {}, "it": {}, "by": {}, "as": {}, "be": {},
}

const termExtractionPrompt = `Extract up to 7 key search terms from the question below, preserving multi-word proper-noun phrases intact. Respond with a comma-separated list only, no explanation.

Question: `

// ExtractKeyTerms picks up to maxKeyTerms search terms out of question, per
// §4.7's hybrid algorithm step 1: LLM-assisted when model is non-nil, with
// a deterministic fallback (stopword removal plus a regex for capitalized
// runs) used both when model is nil and when the LLM call fails.
func ExtractKeyTerms(ctx context.Context, model chat.Model, question string) []string {
	if model != nil {
		if terms, err := extractKeyTermsLLM(ctx, model, question); err == nil && len(terms) > 0 {
			return terms
		}
	}
	return extractKeyTermsDeterministic(question)
}

func extractKeyTermsLLM(ctx context.Context, model chat.Model, question string) ([]string, error) {
	resp, err := model.Complete(ctx, chat.Request{
		Messages:    []chat.Message{{Role: "user", Content: termExtractionPrompt + question}},
		Temperature: 0,
		MaxTokens:   128,
	})
	if err != nil {
		return nil, err
	}

	var terms []string
	for _, raw := range strings.Split(resp.Content, ",") {
		term := strings.TrimSpace(raw)
		if term != "" {
			terms = append(terms, term)
		}
		if len(terms) == maxKeyTerms {
			break
		}
	}
	return terms, nil
}

// extractKeyTermsDeterministic prefers capitalized compound runs (proper
// nouns), then falls back to individual non-stopword tokens, until
// maxKeyTerms terms are collected.
func extractKeyTermsDeterministic(question string) []string {
	seen := make(map[string]struct{})
	var terms []string

	add := func(term string) bool {
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		terms = append(terms, term)
		return len(terms) >= maxKeyTerms
	}

	for _, m := range capitalizedRunRe.FindAllString(question, -1) {
		if add(m) {
			return terms
		}
	}

	for _, w := range wordRe.FindAllString(question, -1) {
		if _, stop := stopwords[strings.ToLower(w)]; stop {
			continue
		}
		if add(w) {
			return terms
		}
	}

	return terms
}
