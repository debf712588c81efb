package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/thereayou/ruangchat/internal/chat"
	"github.com/thereayou/ruangchat/internal/database"
	"github.com/thereayou/ruangchat/internal/handlers"
	"github.com/thereayou/ruangchat/internal/websocket"
	"github.com/thereayou/ruangchat/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *websocket.Hub
	Chat       *chat.Service
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	hub := websocket.NewHub()
	chatService := chat.NewService(dbConn, websocket.NewBroadcaster(hub))

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	userH := handlers.NewUserHandler(dbConn)
	roomH := handlers.NewRoomHandler(dbConn, hub)
	messageH := handlers.NewHTTPMessageHandler(chatService)
	wsH := handlers.NewWebSocketHandler(hub, handlers.NewMessageHandler(chatService, hub))

	router := gin.Default()
	APIEndpoints(router, jwtMgr, rdb, authH, userH, roomH, messageH, wsH)

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
		Chat:       chatService,
	}
}

func (s *Server) Run() {
	go s.Hub.Run()
	defer s.Hub.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
