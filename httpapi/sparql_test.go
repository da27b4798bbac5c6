package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedSPARQLVerb_AcceptsSelect(t *testing.T) {
	assert.True(t, allowedSPARQLVerb.MatchString("SELECT ?s WHERE { ?s ?p ?o }"))
}

func TestAllowedSPARQLVerb_AcceptsPrefixedSelect(t *testing.T) {
	query := "PREFIX pf: <http://purplefabric.ai/> SELECT ?s WHERE { ?s a pf:Entity }"
	assert.True(t, allowedSPARQLVerb.MatchString(query))
}

func TestAllowedSPARQLVerb_AcceptsAskConstructDescribeWith(t *testing.T) {
	for _, verb := range []string{"ASK", "CONSTRUCT", "DESCRIBE", "WITH"} {
		assert.True(t, allowedSPARQLVerb.MatchString(verb+" { ?s ?p ?o }"), verb)
	}
}

func TestAllowedSPARQLVerb_RejectsMutatingQueries(t *testing.T) {
	for _, query := range []string{
		"INSERT DATA { <http://x/e1> <http://x/p> \"v\" }",
		"DELETE WHERE { ?s ?p ?o }",
		"DROP GRAPH <http://x/g>",
		"LOAD <http://x/data.ttl>",
	} {
		assert.False(t, allowedSPARQLVerb.MatchString(query), query)
	}
}

func TestHandleSPARQLQuery_RejectsMutatingQueryBeforeExecution(t *testing.T) {
	e := echo.New()
	body := `{"query":"DELETE WHERE { ?s ?p ?o }","tenantId":"t1","workspaceId":"w1"}`
	req := httptest.NewRequest(http.MethodPost, "/sparql/query", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &Handlers{}
	err := h.handleSPARQLQuery(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ValidationFailed")
}

func TestHandleSPARQLQuery_RejectsEmptyQuery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/sparql/query", strings.NewReader(`{"query":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &Handlers{}
	err := h.handleSPARQLQuery(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
