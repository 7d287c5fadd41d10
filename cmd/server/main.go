package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/sevans717/aphila-sub007/internal/cache"
	"github.com/sevans717/aphila-sub007/internal/dispatch"
	"github.com/sevans717/aphila-sub007/internal/events"
	"github.com/sevans717/aphila-sub007/internal/handlers"
	"github.com/sevans717/aphila-sub007/internal/handlers/ws"
	"github.com/sevans717/aphila-sub007/internal/httpx"
	"github.com/sevans717/aphila-sub007/internal/middleware"
	"github.com/sevans717/aphila-sub007/internal/presence"
	"github.com/sevans717/aphila-sub007/internal/repository"
	"github.com/sevans717/aphila-sub007/internal/service"
	"github.com/sevans717/aphila-sub007/internal/validation"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Aphila Interaction Core",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Supports-Gzip",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}
	presenceCache := cache.NewPresenceCache(redisCache)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Event bus feeds the live bridge; everything downstream is best-effort.
	bus := events.NewBus(256)

	// Presence tracker, fed connection events by the hub.
	tracker := presence.NewTracker(presence.DefaultConfig(), presenceCache, userRepo, bus)
	tracker.Start()
	defer tracker.Stop()

	hub := ws.NewHub(tracker)
	defer hub.Stop()

	// Push sender: web push when VAPID keys are configured, dry-run otherwise.
	var sender dispatch.PushSender
	vapidPublic := os.Getenv("VAPID_PUBLIC_KEY")
	vapidPrivate := os.Getenv("VAPID_PRIVATE_KEY")
	if vapidPublic != "" && vapidPrivate != "" {
		sender = dispatch.NewWebPushSender(vapidPublic, vapidPrivate, os.Getenv("VAPID_SUBSCRIBER"))
		log.Println("Web push sender initialized")
	} else {
		sender = &dispatch.LogSender{}
		log.Println("WARNING: VAPID keys not configured, push notifications run dry")
	}

	dispatcher := dispatch.NewDispatcher(notificationRepo, deviceRepo, sender, dispatch.DefaultConfig())
	dispatcher.Start()
	defer dispatcher.Stop()

	// Initialize services
	matchService := service.NewMatchService(likeRepo, blockRepo, matchRepo, dispatcher, bus)
	messageService := service.NewMessageService(messageRepo, reactionRepo, matchRepo, hub, dispatcher, bus)
	deviceService := service.NewDeviceService(deviceRepo, topicRepo)

	// Bridge bus events onto live sessions. Message frames are pushed inline
	// by the message pipeline, so only lifecycle kinds go through here.
	go bridgeEvents(bus.Subscribe(), hub)

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(messageService, tracker, hub)
	matchHandler := handlers.NewMatchHandler(matchService)
	messageHandler := handlers.NewMessageHandler(messageService)
	deviceHandler := handlers.NewDeviceHandler(deviceService)
	presenceHandler := handlers.NewPresenceHandler(tracker)

	api := app.Group("/api", middleware.OriginAllowed())

	protected := api.Group("/", middleware.AuthRequired())
	protected.Post(
		"/likes",
		limiter.New(limiter.Config{
			Max:        60,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				if uid, err := httpx.LocalUint(c, "userID"); err == nil {
					return "likes:" + strconv.FormatUint(uint64(uid), 10)
				}
				return c.IP()
			},
		}),
		matchHandler.Like,
	)
	protected.Get("/matches", matchHandler.ListMatches)
	protected.Post("/matches/:id/unmatch", matchHandler.Unmatch)
	protected.Post("/blocks", matchHandler.Block)

	protected.Post("/messages", messageHandler.Send)
	protected.Get("/messages", messageHandler.History)
	protected.Post("/messages/:id/read", messageHandler.MarkRead)
	protected.Post("/messages/:id/reactions", messageHandler.React)
	protected.Get("/messages/:id/reactions", messageHandler.ListReactions)

	protected.Post("/activity", presenceHandler.StartActivity)
	protected.Delete("/activity/:type", presenceHandler.EndActivity)
	protected.Get("/presence/:user_id", presenceHandler.Get)

	protected.Post("/devices", deviceHandler.Register)
	protected.Post("/devices/:device_id/topics", deviceHandler.SubscribeTopic)
	protected.Delete("/devices/:device_id/topics/:topic", deviceHandler.UnsubscribeTopic)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			deviceID := c.Query("device_id")
			if !validation.ValidateDeviceID(deviceID) {
				return httpx.BadRequest(c, "invalid_device_id", "device_id query parameter is required")
			}
			c.Locals("deviceID", deviceID)
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"connections": hub.Count(),
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// bridgeEvents forwards lifecycle events to the live sessions of the users
// they concern. Chat frames never pass through here; the message pipeline
// delivers those itself so it can observe the live/offline outcome.
func bridgeEvents(ch <-chan events.Event, hub *ws.Hub) {
	for ev := range ch {
		switch ev.Kind {
		case events.MatchCreated, events.MatchUnmatched, events.MatchBlocked, events.PresenceChanged:
			for _, userID := range ev.UserIDs {
				hub.Deliver(userID, map[string]interface{}{
					"type":    "event",
					"kind":    ev.Kind,
					"payload": ev.Payload,
				})
			}
		}
	}
}
