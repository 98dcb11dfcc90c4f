package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"studycircle-backend/internal/config"
	"studycircle-backend/internal/database"
	calendarHandler "studycircle-backend/internal/handler/http/calendar"
	callHandler "studycircle-backend/internal/handler/http/call"
	circleHandler "studycircle-backend/internal/handler/http/circle"
	postHandler "studycircle-backend/internal/handler/http/post"
	wsHandler "studycircle-backend/internal/handler/ws"
	"studycircle-backend/internal/middleware"
	"studycircle-backend/internal/repository/cassandra"
	"studycircle-backend/internal/repository/cockroach"
	"studycircle-backend/internal/repository/memory"
	redisrepo "studycircle-backend/internal/repository/redis"
	calendarService "studycircle-backend/internal/service/calendar"
	callService "studycircle-backend/internal/service/call"
	circleService "studycircle-backend/internal/service/circle"
	postService "studycircle-backend/internal/service/post"
	"studycircle-backend/internal/worker"
	"studycircle-backend/pkg/logger"
	"studycircle-backend/pkg/metrics"
)

func main() {
	logger.InitDefault()
	defer logger.Sync()

	cfg := config.Load()

	// 1. Metrics registry
	appMetrics := metrics.NewMetrics("studycircle")
	prometheusMiddleware := middleware.NewPrometheusMiddleware(appMetrics)

	// 2. Connect to CockroachDB (circles, calendar)
	cockroachDB, err := database.NewDB(context.Background(), cfg.DBConnectionString(), nil)
	if err != nil {
		log.Fatalf("Failed to connect to CockroachDB: %v", err)
	}
	defer cockroachDB.Close()

	log.Println("✅ Connected to CockroachDB")

	// 3. Connect to Cassandra (circle feed)
	cassandraDB, err := database.NewCassandraDB(&database.CassandraConfig{
		Hosts:    cfg.CassandraHosts,
		Keyspace: cfg.CassandraKeyspace,
		Username: cfg.CassandraUser,
		Password: cfg.CassandraPassword,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Cassandra: %v", err)
	}
	defer cassandraDB.Close()

	log.Println("✅ Connected to Cassandra")

	// 4. Connect to Redis (presence, call events, reminder dedupe)
	redisDB, err := database.NewRedisClient(&database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	}, appMetrics.GetRegistry())
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisDB.Close()

	redisDB.StartHealthCheck(context.Background(), 10*time.Second)
	log.Println("✅ Connected to Redis, health check started (10s interval)")

	// 5. Repositories
	callDirectory := memory.NewCallDirectory()
	circleRepo := cockroach.NewCircleRepository(cockroachDB.Pool)
	eventRepo := cockroach.NewEventRepository(cockroachDB.Pool)
	postRepo := cassandra.NewPostRepository(cassandraDB.Session)
	presenceRepo := redisrepo.NewPresenceRepository(redisDB)
	eventPublisher := redisrepo.NewEventPublisher(redisDB)
	reminderRepo := redisrepo.NewReminderRepository(redisDB)

	// 6. Services
	callSvc := callService.NewService(callDirectory, presenceRepo, eventPublisher, appMetrics)
	circleSvc := circleService.NewService(circleRepo)
	postSvc := postService.NewService(postRepo)
	calendarSvc := calendarService.NewService(eventRepo)

	// 7. Handlers
	callHdlr := callHandler.NewHandler(callSvc, circleSvc, postSvc)
	circleHdlr := circleHandler.NewHandler(circleSvc)
	postHdlr := postHandler.NewHandler(postSvc, circleSvc)
	calendarHdlr := calendarHandler.NewHandler(calendarSvc, circleSvc)

	// 8. WebSocket hub
	callHub := wsHandler.NewCallEventHub(eventPublisher, appMetrics)

	// 9. Reminder worker
	reminderCtx, stopReminders := context.WithCancel(context.Background())
	defer stopReminders()

	reminderWorker := worker.NewReminderWorker(calendarSvc, circleSvc, postSvc, reminderRepo, worker.ReminderConfig{
		CallInterval:     time.Minute,
		CallWindow:       cfg.ReminderCallWindow,
		DeadlineInterval: time.Hour,
		DeadlineWindow:   cfg.ReminderDeadlineWindow,
	})
	reminderWorker.Start(reminderCtx)
	log.Println("✅ Reminder worker started")

	// 10. Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.SetTrustedProxies(nil)

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware())
	router.Use(prometheusMiddleware.Handler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "studycircle",
			"time":    time.Now().UTC(),
		})
	})

	router.GET("/metrics", middleware.MetricsHandler(appMetrics))

	v1 := router.Group("/v1")
	v1.Use(middleware.IdentityMiddleware())
	{
		// Call coordination
		v1.POST("/calls", callHdlr.StartCall)
		v1.GET("/calls", callHdlr.GetCalls)
		v1.GET("/calls/current", callHdlr.GetCurrentCall)
		v1.GET("/calls/presence", callHdlr.GetPresence)
		v1.GET("/calls/:id", callHdlr.GetCall)
		v1.GET("/calls/:id/circle", callHdlr.GetCallCircle)
		v1.PATCH("/calls/:id/participants", callHdlr.JoinCall)
		v1.DELETE("/calls/:id/participants", callHdlr.LeaveCall)
		v1.PATCH("/calls/:id/listeners", callHdlr.ListenerSwitch)
		v1.PATCH("/calls/:id/next", callHdlr.NextSpeaker)
		v1.PATCH("/calls/:id/speakers", callHdlr.MuteSwitch)
		v1.DELETE("/calls/:id", callHdlr.EndCall)

		// Circles
		v1.POST("/circles", circleHdlr.CreateCircle)
		v1.GET("/circles", circleHdlr.ListCircles)
		v1.GET("/circles/search", circleHdlr.SearchCircles)
		v1.GET("/circles/:id", circleHdlr.GetCircle)
		v1.PATCH("/circles/:id", circleHdlr.RenameCircle)
		v1.DELETE("/circles/:id", circleHdlr.DeleteCircle)
		v1.PATCH("/circles/:id/members", circleHdlr.JoinCircle)
		v1.DELETE("/circles/:id/members", circleHdlr.LeaveCircle)
		v1.GET("/circles/:id/calls", callHdlr.GetCallsByCircle)
		v1.GET("/circles/:id/events", calendarHdlr.GetCircleEvents)
		v1.GET("/circles/:id/leaderboard/posts", postHdlr.GetLeaderboard)

		// Feed
		v1.POST("/posts", postHdlr.CreatePost)
		v1.GET("/posts", postHdlr.GetPosts)
		v1.PATCH("/posts/:id", postHdlr.UpdatePost)
		v1.DELETE("/posts/:id", postHdlr.DeletePost)

		// Calendar
		v1.POST("/events", calendarHdlr.CreateEvent)
		v1.GET("/events", calendarHdlr.GetMyEvents)
		v1.GET("/events/:id", calendarHdlr.GetEvent)
		v1.PATCH("/events/:id", calendarHdlr.UpdateEvent)
		v1.DELETE("/events/:id", calendarHdlr.DeleteEvent)

		// WebSocket endpoint (real-time call events)
		v1.GET("/ws/calls", callHub.ServeWS)
	}

	// 11. Start server
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 StudyCircle backend starting on port %d\n", cfg.HTTPPort)
		log.Println("📡 WebSocket endpoint: /v1/ws/calls")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 12. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopReminders()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
