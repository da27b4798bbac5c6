package httpapi

import "github.com/labstack/echo/v4"

// requestScope carries the tenant/workspace/user identifiers every
// operation is scoped by, read directly off the request headers per
// §6's "no auth middleware" design (the wire wrapping that would
// authenticate these values lives outside this collaborator).
type requestScope struct {
	TenantID    string
	WorkspaceID string
	UserID      string
}

func scopeFromRequest(c echo.Context) requestScope {
	return requestScope{
		TenantID:    c.Request().Header.Get("x-tenant-id"),
		WorkspaceID: c.Request().Header.Get("x-workspace-id"),
		UserID:      c.Request().Header.Get("x-user-id"),
	}
}
