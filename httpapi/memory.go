package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"purplefabric.ai/graphrag/memory"
)

type addMemoryRequest struct {
	AgentID    string   `json:"agentId"`
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	Importance float64  `json:"importance"`
	Tags       []string `json:"tags,omitempty"`
	SessionID  string   `json:"sessionId,omitempty"`
}

// handleAddMemory implements POST /memory: Agent/Memory CRUD's create
// operation, per §6.
func (h *Handlers) handleAddMemory(c echo.Context) error {
	scope := scopeFromRequest(c)

	var req addMemoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: err.Error()})
	}
	if req.AgentID == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: "agentId and content are required"})
	}

	record, err := h.Memory.AddMemory(c.Request().Context(), req.AgentID, scope.UserID, memory.AddRequest{
		Type:       memory.Type(req.Type),
		Content:    req.Content,
		Importance: req.Importance,
		Tags:       req.Tags,
		SessionID:  req.SessionID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, record)
}

// handleSearchMemory implements GET /memory/search: Memory CRUD's search
// operation, per §6. Query params: agentId (required), q (required),
// topK (optional, default 10).
func (h *Handlers) handleSearchMemory(c echo.Context) error {
	scope := scopeFromRequest(c)
	agentID := c.QueryParam("agentId")
	query := c.QueryParam("q")
	if agentID == "" || query == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: "agentId and q are required"})
	}

	topK := 10
	if raw := c.QueryParam("topK"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			topK = n
		}
	}

	results, err := h.Memory.SearchMemories(c.Request().Context(), agentID, scope.UserID, query, topK)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, results)
}

// handleSessionHistory implements GET /memory/sessions/:sessionId.
func (h *Handlers) handleSessionHistory(c echo.Context) error {
	scope := scopeFromRequest(c)
	agentID := c.QueryParam("agentId")
	sessionID := c.Param("sessionId")
	if agentID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: "agentId is required"})
	}

	history, err := h.Memory.SessionHistory(c.Request().Context(), agentID, scope.UserID, sessionID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, history)
}
