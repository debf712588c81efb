package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/ruangchat/internal/handlers"
	"github.com/thereayou/ruangchat/internal/middleware"
	"github.com/thereayou/ruangchat/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
	authH *handlers.AuthHandler,
	userH *handlers.UserHandler,
	roomH *handlers.RoomHandler,
	messageH *handlers.HTTPMessageHandler,
	wsH *handlers.WebSocketHandler,
) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), authH.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1", middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.GET("/users/me", userH.GetMe)
		api.PATCH("/users/me", userH.UpdateMe)
		api.GET("/users/:id", userH.GetUser)

		api.POST("/rooms", roomH.CreateRoom)
		api.GET("/rooms", roomH.GetMyRooms)
		api.GET("/rooms/:id", roomH.GetRoom)
		api.DELETE("/rooms/:id", roomH.DeleteRoom)

		api.GET("/rooms/:id/participants", roomH.GetRoomParticipants)
		api.POST("/rooms/:id/participants", roomH.AddParticipant)
		api.DELETE("/rooms/:id/participants/:user_id", roomH.RemoveParticipant)

		api.POST("/rooms/:id/messages", messageH.SendMessage)
		api.GET("/rooms/:id/messages", messageH.GetRoomMessages)
	}

	// WebSocket endpoint
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
