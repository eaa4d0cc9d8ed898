package api

import (
	"github.com/gin-gonic/gin"
	"github.com/airwave-tv/airwave/internal/events"
)

// SetupEventRoutes registers the schedule change event stream
func SetupEventRoutes(apiGroup *gin.RouterGroup, hub *events.Hub) {
	apiGroup.GET("/events", hub.HandleWebSocket)
}
