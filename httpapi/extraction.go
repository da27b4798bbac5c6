package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"purplefabric.ai/graphrag/extraction"
)

// extractionRunRequest is the POST /extraction/run body, per §6. The
// ontology slice travels inline in the request since no ontology-version
// resolver is wired into this ambient layer; a fuller deployment would
// resolve Profile/OntologyVersion against a stored ontology fabric
// instead.
type extractionRunRequest struct {
	DocumentID      string                   `json:"documentId"`
	OntologyVersion string                   `json:"ontologyVersion"`
	Profile         string                   `json:"profile"`
	Text            string                   `json:"text"`
	ChunkSize       int                      `json:"chunkSize"`
	Ontology        extraction.OntologySlice `json:"ontology"`
}

type extractionRunResponse struct {
	RunID string `json:"runId"`
	State string `json:"state"`
}

// handleExtractionRun implements POST /extraction/run: it starts the
// pipeline asynchronously and returns the run id immediately, since the
// wire protocol §6 describes ("streamed state transitions") lives
// outside this collaborator — GET /extraction/run/:id lets a caller poll
// the same Run record the stream would have carried.
func (h *Handlers) handleExtractionRun(c echo.Context) error {
	scope := scopeFromRequest(c)

	var req extractionRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: err.Error()})
	}
	if req.DocumentID == "" || req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: "documentId and text are required"})
	}

	runID := uuid.NewString()
	pipelineReq := extraction.Request{
		RunID:       runID,
		DocumentID:  req.DocumentID,
		TenantID:    scope.TenantID,
		WorkspaceID: scope.WorkspaceID,
		Text:        req.Text,
		Ontology:    req.Ontology,
		ChunkSize:   req.ChunkSize,
	}

	go func() {
		ctx := context.Background()
		_, _ = h.Extraction.Run(ctx, pipelineReq)
	}()

	return c.JSON(http.StatusAccepted, extractionRunResponse{RunID: runID, State: string(extraction.StatePending)})
}

type extractionStatusResponse struct {
	RunID       string         `json:"runId"`
	DocumentID  string         `json:"documentId"`
	State       string         `json:"state"`
	Errors      []string       `json:"errors,omitempty"`
	Stats       map[string]int `json:"stats,omitempty"`
}

// handleExtractionStatus implements GET /extraction/run/:id.
func (h *Handlers) handleExtractionStatus(c echo.Context) error {
	runID := c.Param("id")

	run, ok := h.Extraction.Runs.Get(runID)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFound", Message: "unknown run id"})
	}

	return c.JSON(http.StatusOK, extractionStatusResponse{
		RunID:      run.RunID,
		DocumentID: run.DocumentID,
		State:      string(run.State),
		Errors:     run.Errors,
		Stats:      run.Stats,
	})
}
