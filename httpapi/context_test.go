package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestScopeFromRequest_ReadsHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("x-tenant-id", "tenant1")
	req.Header.Set("x-workspace-id", "workspace1")
	req.Header.Set("x-user-id", "user1")
	c := e.NewContext(req, httptest.NewRecorder())

	scope := scopeFromRequest(c)

	assert.Equal(t, "tenant1", scope.TenantID)
	assert.Equal(t, "workspace1", scope.WorkspaceID)
	assert.Equal(t, "user1", scope.UserID)
}

func TestScopeFromRequest_MissingHeadersAreEmpty(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	scope := scopeFromRequest(c)

	assert.Empty(t, scope.TenantID)
	assert.Empty(t, scope.WorkspaceID)
	assert.Empty(t, scope.UserID)
}
