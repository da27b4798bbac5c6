package triplestore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purplefabric.ai/graphrag/concurrency"
)

func TestInjectFromClauses_InsertsBeforeWhere(t *testing.T) {
	query := "SELECT ?s WHERE { ?s ?p ?o }"
	out := injectFromClauses(query, []string{"FROM <http://example/data>"})
	assert.Contains(t, out, "FROM <http://example/data> WHERE")
}

func TestInjectFromClauses_NoOpWithoutClauses(t *testing.T) {
	query := "SELECT ?s WHERE { ?s ?p ?o }"
	assert.Equal(t, query, injectFromClauses(query, nil))
}

func TestRenderTemplate_SubstitutesParams(t *testing.T) {
	out, err := RenderTemplate("q", "SELECT * WHERE {{.Body}}", struct{ Body string }{Body: "{ ?s ?p ?o }"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * WHERE { ?s ?p ?o }", out)
}

func TestExecuteSPARQL_ParsesBindings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.Write([]byte(`{
			"head": {"vars": ["s"]},
			"results": {"bindings": [{"s": {"type": "uri", "value": "http://example/1"}}]}
		}`))
	}))
	defer server.Close()

	adapter := New(server.URL, "repo1", "", "", 2, 5*time.Second)
	bindings, err := adapter.ExecuteSPARQL(context.Background(), "t1", "w1", "SELECT ?s WHERE { ?s ?p ?o }", Options{})
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, TermURI, bindings[0]["s"].Kind)
	assert.Equal(t, "http://example/1", bindings[0]["s"].Value)
}

func TestExecuteSPARQL_SurfacesQueryExecutionFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("malformed query"))
	}))
	defer server.Close()

	adapter := New(server.URL, "repo1", "", "", 2, 5*time.Second)
	_, err := adapter.ExecuteSPARQL(context.Background(), "t1", "w1", "SELECT ?s WHERE { ?s ?p ?o }", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QueryExecutionFailed")
}

func TestExecuteSPARQL_RetriesResendFullBodyNotAnEmptyOne(t *testing.T) {
	var bodies []string
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(raw))
		bodies = append(bodies, form.Get("query"))

		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("temporary failure"))
			return
		}
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.Write([]byte(`{"head":{"vars":["s"]},"results":{"bindings":[{"s":{"type":"uri","value":"http://example/1"}}]}}`))
	}))
	defer server.Close()

	adapter := New(server.URL, "repo1", "", "", 2, 5*time.Second)
	adapter.retry = concurrency.RetryPolicy{Delays: []time.Duration{time.Millisecond}, MaxTrys: 3}

	query := "SELECT ?s WHERE { ?s ?p ?o }"
	bindings, err := adapter.ExecuteSPARQL(context.Background(), "t1", "w1", query, Options{})
	require.NoError(t, err)
	require.Len(t, bindings, 1)

	require.Len(t, bodies, 2)
	assert.Equal(t, query, bodies[0])
	assert.Equal(t, query, bodies[1], "retry must resend the original query body, not an empty one")
}

func TestCountTriplesInGraph_ParsesCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.Write([]byte(`{"head":{"vars":["count"]},"results":{"bindings":[{"count":{"type":"literal","value":"42"}}]}}`))
	}))
	defer server.Close()

	adapter := New(server.URL, "repo1", "", "", 2, 5*time.Second)
	count, err := adapter.CountTriplesInGraph(context.Background(), "http://example/graph")
	require.NoError(t, err)
	assert.EqualValues(t, 42, count)
}
