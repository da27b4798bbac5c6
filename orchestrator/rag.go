package orchestrator

import (
	"context"
	"fmt"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/graphragerr"
	"purplefabric.ai/graphrag/store/vector"
)

const lowResultFallbackThreshold = 3

const ragAnswerPromptPreamble = `Answer the question using only the excerpts below. If the excerpts do not contain the answer, say so plainly.

`

// handleRAG answers purely from the vector store, per §4.7 "rag | vector
// only; low-result fallback may add triplestore entity lookup".
func handleRAG(ctx context.Context, o *Orchestrator, req Request, slot *TokenSlot) (*Response, error) {
	chunks, err := searchVector(ctx, o, req)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if len(chunks) < lowResultFallbackThreshold && o.Stores.Triplestore != nil {
		extra, fallbackErr := fallbackEntityLookup(ctx, o, req)
		if fallbackErr != nil {
			warnings = append(warnings, fmt.Sprintf("triplestore fallback lookup failed: %v", fallbackErr))
		} else {
			chunks = append(chunks, extra...)
		}
	}

	answer, err := answerFromChunks(ctx, o.Chat, req.Question, chunks, slot)
	if err != nil {
		return nil, err
	}

	return &Response{Mode: ModeRAG, Answer: answer, SourceChunks: chunks, Warnings: warnings}, nil
}

func searchVector(ctx context.Context, o *Orchestrator, req Request) ([]ScoredChunk, error) {
	if o.Stores.Vector == nil || o.Embed == nil {
		return nil, graphragerr.New(graphragerr.KindConfigurationError, "orchestrator: vector store or embed model not configured")
	}

	vecs, err := o.Embed.Embed(ctx, []string{req.Question})
	if err != nil {
		return nil, graphragerr.Wrap(graphragerr.KindBackendUnavailable, err, "orchestrator: embedding question")
	}
	if len(vecs) == 0 {
		return nil, graphragerr.New(graphragerr.KindBackendUnavailable, "orchestrator: embed model returned no vectors")
	}

	results, err := o.Stores.Vector.SemanticSearch(ctx, vecs[0], req.maxContextChunks(), vector.Filters{
		TenantID:    req.TenantID,
		WorkspaceID: req.WorkspaceID,
		DocumentIDs: req.FolderIDs,
	})
	if err != nil {
		return nil, graphragerr.Wrap(graphragerr.KindBackendUnavailable, err, "orchestrator: vector search")
	}

	chunks := make([]ScoredChunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, ScoredChunk{
			ChunkID:    r.ChunkID,
			DocumentID: r.DocumentID,
			Text:       r.Text,
			Score:      r.Similarity,
			Source:     "vector",
		})
	}
	return chunks, nil
}

// fallbackEntityLookup is a best-effort, low-result rescue: when vector
// search starves, pull any entities the triplestore has recorded for the
// question's key terms and surface them as synthetic low-confidence
// chunks rather than returning nothing.
func fallbackEntityLookup(ctx context.Context, o *Orchestrator, req Request) ([]ScoredChunk, error) {
	terms := ExtractKeyTerms(ctx, o.Chat, req.Question)
	if len(terms) == 0 {
		return nil, nil
	}

	query := buildEntityLookupSPARQL(terms)
	bindings, err := o.Stores.Triplestore.ExecuteSPARQL(ctx, req.TenantID, req.WorkspaceID, query, triplestoreOptions(req))
	if err != nil {
		return nil, err
	}

	chunks := make([]ScoredChunk, 0, len(bindings))
	for _, row := range bindings {
		label, ok := row["label"]
		if !ok {
			continue
		}
		chunks = append(chunks, ScoredChunk{
			Text:   fmt.Sprintf("%s is recorded in the knowledge graph.", label.Value),
			Score:  0.3,
			Source: "graph",
		})
	}
	return chunks, nil
}

func buildEntityLookupSPARQL(terms []string) string {
	filters := ""
	for i, term := range terms {
		if i > 0 {
			filters += " || "
		}
		filters += fmt.Sprintf(`CONTAINS(LCASE(?label), LCASE("%s"))`, escapeSPARQLLiteral(term))
	}
	return fmt.Sprintf(`SELECT ?s ?label WHERE { ?s <http://www.w3.org/2000/01/rdf-schema#label> ?label . FILTER(%s) } LIMIT 10`, filters)
}

func escapeSPARQLLiteral(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '"' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

// answerFromChunks asks the chat model to answer req's question grounded
// strictly in chunks, consuming a rough token estimate from slot.
func answerFromChunks(ctx context.Context, model chat.Model, question string, chunks []ScoredChunk, slot *TokenSlot) (string, error) {
	if model == nil {
		return "", graphragerr.New(graphragerr.KindConfigurationError, "orchestrator: chat model not configured")
	}

	prompt := ragAnswerPromptPreamble
	for _, c := range chunks {
		prompt += fmt.Sprintf("---\n%s\n", c.Text)
	}
	prompt += fmt.Sprintf("\nQuestion: %s\n", question)

	if slot != nil {
		slot.Consume(estimateTokens(prompt))
	}

	resp, err := model.Complete(ctx, chat.Request{
		Messages:    []chat.Message{{Role: "user", Content: prompt}},
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindBackendUnavailable, err, "orchestrator: generating answer")
	}
	return resp.Content, nil
}

// estimateTokens uses the common ~4-chars-per-token rule of thumb; no
// tokenizer dependency is in the retrieval pack.
func estimateTokens(s string) int {
	return len(s)/4 + 1
}
