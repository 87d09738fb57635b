package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomfinder/roomfinder_backend/middleware"
	"github.com/roomfinder/roomfinder_backend/models"
	"github.com/roomfinder/roomfinder_backend/websocket"
)

// RegisterWebSocketRoutes registers the realtime notification endpoint.
// Each connection is keyed by the caller's receiver identity so that
// notifications fan out to every device the same party has open.
func RegisterWebSocketRoutes(e *echo.Echo, hub *websocket.Hub) {
	wsGroup := e.Group("/api")
	wsGroup.Use(middleware.JWTMiddleware())

	wsGroup.GET("/ws", func(c echo.Context) error {
		claims := middleware.GetUserFromToken(c)
		if claims == nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}
		if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}

		identityKey := models.ReceiverModelForUserType(claims.UserType) + "-" + claims.UserID

		// Handle the WebSocket connection
		return websocket.HandleWebSocket(c, hub, identityKey)
	})
}
