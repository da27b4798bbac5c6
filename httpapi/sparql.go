package httpapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"purplefabric.ai/graphrag/graphragerr"
	"purplefabric.ai/graphrag/store/triplestore"
)

// allowedSPARQLVerb matches the query forms §6 permits: SELECT, WITH,
// ASK, CONSTRUCT, DESCRIBE. Anything else (INSERT, DELETE, LOAD, CLEAR,
// DROP, ...) is rejected before it ever reaches the triplestore.
var allowedSPARQLVerb = regexp.MustCompile(`(?is)^\s*(PREFIX\s+\S+\s*:\s*<[^>]*>\s*)*(SELECT|WITH|ASK|CONSTRUCT|DESCRIBE)\b`)

type sparqlRequest struct {
	Query       string `json:"query"`
	TenantID    string `json:"tenantId"`
	WorkspaceID string `json:"workspaceId"`
}

type sparqlResponse struct {
	Bindings []triplestore.Binding `json:"bindings"`
}

// handleSPARQLQuery implements POST /sparql/query: validate the query
// form, then execute it unmodified against the default graph set, per
// §6 "only SELECT/WITH/ASK/CONSTRUCT/DESCRIBE allowed; others fail with
// a structured error".
func (h *Handlers) handleSPARQLQuery(c echo.Context) error {
	var req sparqlRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: err.Error()})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: "query is required"})
	}
	if !allowedSPARQLVerb.MatchString(req.Query) {
		err := graphragerr.New(graphragerr.KindValidationFailed, "sparql: only SELECT/WITH/ASK/CONSTRUCT/DESCRIBE queries are allowed")
		return writeError(c, err)
	}

	bindings, err := h.Stores.Triplestore.ExecuteSPARQL(c.Request().Context(), req.TenantID, req.WorkspaceID, req.Query, triplestore.Options{})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, sparqlResponse{Bindings: bindings})
}
