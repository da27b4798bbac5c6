package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"purplefabric.ai/graphrag/orchestrator"
)

// chatRequest is the POST /agents/:id/chat body, per §6.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Mode      string `json:"mode"`
}

// chatSources mirrors the response's sources{} breakdown.
type chatSources struct {
	Chunks        []orchestrator.ScoredChunk `json:"chunks"`
	GraphEntities int                        `json:"graphEntities"`
}

type chatMetadata struct {
	SearchMode  orchestrator.Mode `json:"searchMode"`
	ResultCount int               `json:"resultCount"`
}

type chatResponse struct {
	Content      string                     `json:"content"`
	Sources      chatSources                `json:"sources"`
	Metadata     chatMetadata               `json:"metadata"`
	ContextGraph *orchestrator.ContextGraph `json:"context_graph,omitempty"`
	Warnings     []string                   `json:"warnings,omitempty"`
	CompareModes []orchestrator.Mode        `json:"compareModes,omitempty"`
}

// handleChat implements POST /agents/:id/chat, dispatching straight
// through to the Orchestrator.
func (h *Handlers) handleChat(c echo.Context) error {
	agentID := c.Param("id")
	scope := scopeFromRequest(c)

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: err.Error()})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: "message is required"})
	}

	mode := orchestrator.Mode(req.Mode)
	if mode == "" {
		mode = orchestrator.ModeHybrid
	}

	resp, err := h.Orchestrator.Query(c.Request().Context(), orchestrator.Request{
		TenantID:    scope.TenantID,
		WorkspaceID: scope.WorkspaceID,
		UserID:      scope.UserID,
		SessionID:   req.SessionID,
		Mode:        mode,
		Question:    req.Message,
	})
	if err != nil {
		return writeError(c, err)
	}

	out := chatResponse{
		Content: resp.Answer,
		Sources: chatSources{Chunks: resp.SourceChunks},
		Metadata: chatMetadata{
			SearchMode:  resp.Mode,
			ResultCount: len(resp.SourceChunks),
		},
		ContextGraph: resp.ContextGraph,
		Warnings:     resp.Warnings,
	}
	if resp.CompareAnswers != nil {
		for m := range resp.CompareAnswers {
			out.CompareModes = append(out.CompareModes, m)
		}
	}
	_ = agentID // agent_id is accepted for routing but the orchestrator is not agent-scoped beyond tenant/workspace/session

	return c.JSON(http.StatusOK, out)
}
