package querygen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/store/lpg"
)

func TestGenerateSPARQL_ReturnsRepairedQuery(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: "```sparql\nSELECT ?s WHERE { ?s a <http://x/Person> } LIMIT 5\n```"}, nil
	})
	g := New(model)

	schema := SPARQLSchema{Classes: []ClassInfo{{Name: "Person", IRI: "http://x/Person"}}}
	query, err := g.GenerateSPARQL(context.Background(), schema, "who are the people?")
	require.NoError(t, err)
	assert.Contains(t, query, "SELECT ?s")
	assert.NotContains(t, query, "```")
}

func TestGenerateSPARQL_RejectsWriteVerb(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: "INSERT DATA { <http://x/a> <http://x/b> <http://x/c> }"}, nil
	})
	g := New(model)

	_, err := g.GenerateSPARQL(context.Background(), SPARQLSchema{}, "do something bad")
	assert.Error(t, err)
}

func TestGenerateCypher_EnforcesWorkspaceScope(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: `MATCH (n:Person) WHERE n.workspace_id = 'ws1' RETURN n LIMIT 10`}, nil
	})
	g := New(model)

	schema := lpg.Schema{NodeLabels: []string{"Person"}}
	query, err := g.GenerateCypher(context.Background(), schema, "ws1", nil, "who works here?")
	require.NoError(t, err)
	assert.Contains(t, query, "ws1")
}

func TestExecuteSPARQLWithRepair_SucceedsOnFirstTry(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		t.Fatal("model should not be called when execute succeeds on first try")
		return chat.Response{}, nil
	})
	g := New(model)

	execute := func(ctx context.Context, query string) (interface{}, error) {
		return "ok", nil
	}

	result, query, err := g.ExecuteSPARQLWithRepair(context.Background(), SPARQLSchema{}, "q", "SELECT ?s WHERE { ?s a <http://x/Person> }", execute)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Contains(t, query, "SELECT")
}

func TestExecuteSPARQLWithRepair_RetriesOnceThenSucceeds(t *testing.T) {
	calls := 0
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: "SELECT ?s WHERE { ?s a <http://x/Person> } LIMIT 5"}, nil
	})
	g := New(model)

	execute := func(ctx context.Context, query string) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("syntax error")
		}
		return "ok", nil
	}

	result, _, err := g.ExecuteSPARQLWithRepair(context.Background(), SPARQLSchema{}, "q", "SELECT ?s WHERE { ?s a <http://x/Person> }", execute)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestExecuteSPARQLWithRepair_ReturnsStructuredFailureOnSecondFailure(t *testing.T) {
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: "SELECT ?s WHERE { ?s a <http://x/Person> } LIMIT 5"}, nil
	})
	g := New(model)

	execute := func(ctx context.Context, query string) (interface{}, error) {
		return nil, errors.New("still broken")
	}

	_, attempted, err := g.ExecuteSPARQLWithRepair(context.Background(), SPARQLSchema{}, "q", "SELECT ?s WHERE { ?s a <http://x/Person> }", execute)
	require.Error(t, err)
	var failed *FailedQueryResult
	require.ErrorAs(t, err, &failed)
	assert.NotEmpty(t, failed.AttemptedQuery)
	assert.NotEmpty(t, attempted)
}
