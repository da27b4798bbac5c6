package querygen

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/graphragerr"
)

const cypherPrimingTemplate = `You translate a natural-language question into a single Cypher query.

Node labels: {{range .NodeLabels}}{{.}} {{end}}

Relationship patterns (copy the direction exactly as shown):
{{range .Relationships}}- {{.SamplePattern}} ({{.Type}}: {{.FromLabel}} -> {{.ToLabel}})
{{end}}
Sample property values:
{{range $label, $vals := .SampleValues}}{{$label}}: {{$vals}}
{{end}}
Rules:
- Every MATCH node MUST carry WHERE n.workspace_id = '{{.WorkspaceID}}'.
{{if .FolderIDs}}- Nodes MUST also filter n.source_document IN [{{range $i, $f := .FolderIDs}}{{if $i}}, {{end}}"{{$f}}"{{end}}].
{{end}}- LIMIT is mandatory for any non-aggregate query.
- Respond with the Cypher query only, no explanation, no markdown fence.

Question: {{.Question}}`

type cypherPromptParams struct {
	CypherSchema
	WorkspaceID string
	FolderIDs   []string
	Question    string
}

var (
	cypherFenceRe = regexp.MustCompile("(?s)```(?:cypher|Cypher)?\\s*(.*?)\\s*```")
	cypherWriteRe = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|SET|REMOVE|DROP)\b`)
)

func stripCypherFence(raw string) string {
	if m := cypherFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// validateCypherReadOnly rejects any write clause (the Query Orchestrator's
// Cypher path is read-only traversal, never a mutation) and any query that
// does not mention both workspace_id and workspaceID somewhere in its text.
// It does not check each MATCH node separately.
func validateCypherReadOnly(query, workspaceID string) error {
	if cypherWriteRe.MatchString(query) {
		return fmt.Errorf("querygen: generated Cypher contains a write clause")
	}
	if !strings.Contains(query, "workspace_id") {
		return fmt.Errorf("querygen: generated Cypher is missing the workspace_id tenant filter")
	}
	if !strings.Contains(query, workspaceID) {
		return fmt.Errorf("querygen: generated Cypher does not scope to workspace %q", workspaceID)
	}
	return nil
}

// GenerateCypher synthesizes a tenant-scoped, read-only Cypher query for
// question against schema. The prompt asks for §4.6's workspace and
// (optional) document-scope filters; the returned query is checked for the
// workspace filter only, not for the document-scope filter.
func (g *Generator) GenerateCypher(ctx context.Context, schema CypherSchema, workspaceID string, folderIDs []string, question string) (string, error) {
	prompt, err := g.templates.render("cypher_priming", cypherPrimingTemplate, cypherPromptParams{
		CypherSchema: schema,
		WorkspaceID:  workspaceID,
		FolderIDs:    folderIDs,
		Question:     question,
	})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "render Cypher priming text")
	}

	resp, err := g.Chat.Complete(ctx, chat.Request{
		Messages:    []chat.Message{{Role: "system", Content: prompt}},
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "chat completion for Cypher generation")
	}

	query := stripCypherFence(resp.Content)
	if err := validateCypherReadOnly(query, workspaceID); err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "generated Cypher failed validation")
	}
	return query, nil
}

// repairCypherWithModel resubmits the failing query, its error, and schema
// for one corrected attempt.
func (g *Generator) repairCypherWithModel(ctx context.Context, schema CypherSchema, workspaceID string, folderIDs []string, question, failedQuery string, execErr error) (string, error) {
	prompt, err := g.templates.render("cypher_priming", cypherPrimingTemplate, cypherPromptParams{
		CypherSchema: schema,
		WorkspaceID:  workspaceID,
		FolderIDs:    folderIDs,
		Question:     question,
	})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "render Cypher priming text for repair")
	}

	resp, err := g.Chat.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: prompt},
			{Role: "assistant", Content: failedQuery},
			{Role: "user", Content: "That query failed with error: " + execErr.Error() + "\nCorrect it. Respond with the corrected Cypher query only."},
		},
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "chat completion for Cypher repair")
	}

	repaired := stripCypherFence(resp.Content)
	if err := validateCypherReadOnly(repaired, workspaceID); err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "repaired Cypher failed validation")
	}
	return repaired, nil
}
