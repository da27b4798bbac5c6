package querygen

import (
	"context"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/graphragerr"
)

const sparqlPrimingTemplate = `You translate a natural-language question into a single SPARQL query.

Classes:
{{range .Classes}}- {{.Name}} <{{.IRI}}>
{{range .DataProperties}}    data property {{.Name}}: {{.Range}}
{{end}}{{range .ObjectProperties}}    object property {{.Name}} -> {{.Range}}
{{end}}{{end}}
Sample rows (at most 30):
{{range .SampleRows}}{{range $k, $v := .}}{{$k}}={{$v}} {{end}}
{{end}}
Rules:
- Use full IRIs in <...>.
- Use OPTIONAL for properties that are not total across instances.
- Use REGEX(?x, "...", "i") for text matching.
- Prefer multi-hop patterns with UNION or nested triples to express AND/OR.
- Respond with the SPARQL query only, no explanation, no markdown fence.

Question: {{.Question}}`

type sparqlPromptParams struct {
	SPARQLSchema
	Question string
}

// GenerateSPARQL synthesizes a read-only SPARQL query for question against
// schema, applying §4.6's post-processing repairs before returning it.
func (g *Generator) GenerateSPARQL(ctx context.Context, schema SPARQLSchema, question string) (string, error) {
	primed := schema.Truncated()
	prompt, err := g.templates.render("sparql_priming", sparqlPrimingTemplate, sparqlPromptParams{SPARQLSchema: primed, Question: question})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "render SPARQL priming text")
	}

	resp, err := g.Chat.Complete(ctx, chat.Request{
		Messages:    []chat.Message{{Role: "system", Content: prompt}},
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "chat completion for SPARQL generation")
	}

	query := repairSPARQL(resp.Content)
	if err := validateSPARQLReadOnly(query); err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "generated SPARQL failed read-only validation")
	}
	return query, nil
}

// repairSPARQLWithModel resubmits the failing query, its error, and schema
// for one corrected attempt, the retry half of §4.6's repair loop.
func (g *Generator) repairSPARQLWithModel(ctx context.Context, schema SPARQLSchema, question, failedQuery string, execErr error) (string, error) {
	primed := schema.Truncated()
	prompt, err := g.templates.render("sparql_priming", sparqlPrimingTemplate, sparqlPromptParams{SPARQLSchema: primed, Question: question})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "render SPARQL priming text for repair")
	}

	resp, err := g.Chat.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: prompt},
			{Role: "assistant", Content: failedQuery},
			{Role: "user", Content: "That query failed with error: " + execErr.Error() + "\nCorrect it. Respond with the corrected SPARQL query only."},
		},
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "chat completion for SPARQL repair")
	}

	repaired := repairSPARQL(resp.Content)
	if err := validateSPARQLReadOnly(repaired); err != nil {
		return "", graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "repaired SPARQL failed read-only validation")
	}
	return repaired, nil
}
