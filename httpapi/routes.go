package httpapi

import "github.com/labstack/echo/v4"

// RegisterRoutes wires every §6 HTTP operation onto e, grounded on the
// teacher's api.SetupRoutes call in cli/root.go's runServer.
func RegisterRoutes(e *echo.Echo, h *Handlers) {
	e.GET("/healthz", HealthCheckHandler("graphrag", "0.1.0"))

	agents := e.Group("/agents")
	agents.POST("/:id", h.handleCreateAgent)
	agents.GET("/:id", h.handleGetAgent)
	agents.PUT("/:id", h.handleUpdateAgent)
	agents.DELETE("/:id", h.handleDeleteAgent)
	agents.POST("/:id/chat", h.handleChat)

	memory := e.Group("/memory")
	memory.POST("", h.handleAddMemory)
	memory.GET("/search", h.handleSearchMemory)
	memory.GET("/sessions/:sessionId", h.handleSessionHistory)

	e.POST("/sparql/query", h.handleSPARQLQuery)

	extractionGroup := e.Group("/extraction")
	extractionGroup.POST("/run", h.handleExtractionRun)
	extractionGroup.GET("/run/:id", h.handleExtractionStatus)
}
