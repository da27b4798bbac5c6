package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// isNotFound reports whether err is kv.Adapter's "key not found" error.
// The adapter wraps redis.Nil into a plain fmt.Errorf (see store/kv), so
// the only reliable signal left at this layer is the message text.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}

// AgentRecord is the JSON blob stored at the §6 "agent:{tenant}:{workspace}:{agentId}"
// key — just enough identity and system-prompt configuration for the
// chat endpoint to route against; it carries no business logic, per
// spec.md §1's "thin collaborator" framing for this ambient layer.
type AgentRecord struct {
	AgentID      string    `json:"agentId"`
	TenantID     string    `json:"tenantId"`
	WorkspaceID  string    `json:"workspaceId"`
	Name         string    `json:"name"`
	SystemPrompt string    `json:"systemPrompt,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func agentKey(tenant, workspace, agentID string) string {
	return fmt.Sprintf("agent:%s:%s:%s", tenant, workspace, agentID)
}

type upsertAgentRequest struct {
	Name         string `json:"name"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

// handleCreateAgent implements the create half of "Agent CRUD on
// (tenant, workspace, agent_id)" per §6.
func (h *Handlers) handleCreateAgent(c echo.Context) error {
	scope := scopeFromRequest(c)
	agentID := c.Param("id")

	var req upsertAgentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: err.Error()})
	}

	now := time.Now()
	record := AgentRecord{
		AgentID:      agentID,
		TenantID:     scope.TenantID,
		WorkspaceID:  scope.WorkspaceID,
		Name:         req.Name,
		SystemPrompt: req.SystemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Stores.KV.SetJSON(c.Request().Context(), agentKey(scope.TenantID, scope.WorkspaceID, agentID), record, 0); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

// handleGetAgent implements the read half of Agent CRUD.
func (h *Handlers) handleGetAgent(c echo.Context) error {
	scope := scopeFromRequest(c)
	agentID := c.Param("id")

	var record AgentRecord
	err := h.Stores.KV.GetJSON(c.Request().Context(), agentKey(scope.TenantID, scope.WorkspaceID, agentID), &record)
	if isNotFound(err) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFound", Message: "unknown agent id"})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// handleUpdateAgent implements the update half of Agent CRUD.
func (h *Handlers) handleUpdateAgent(c echo.Context) error {
	scope := scopeFromRequest(c)
	agentID := c.Param("id")
	key := agentKey(scope.TenantID, scope.WorkspaceID, agentID)

	var existing AgentRecord
	if err := h.Stores.KV.GetJSON(c.Request().Context(), key, &existing); err != nil {
		if isNotFound(err) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "NotFound", Message: "unknown agent id"})
		}
		return writeError(c, err)
	}

	var req upsertAgentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "InvalidRequest", Message: err.Error()})
	}
	existing.Name = req.Name
	existing.SystemPrompt = req.SystemPrompt
	existing.UpdatedAt = time.Now()

	if err := h.Stores.KV.SetJSON(c.Request().Context(), key, existing, 0); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, existing)
}

// handleDeleteAgent implements the delete half of Agent CRUD.
func (h *Handlers) handleDeleteAgent(c echo.Context) error {
	scope := scopeFromRequest(c)
	agentID := c.Param("id")

	if err := h.Stores.KV.Del(c.Request().Context(), agentKey(scope.TenantID, scope.WorkspaceID, agentID)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
