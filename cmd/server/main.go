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

	"studytrack/internal/config"
	"studytrack/internal/database"
	"studytrack/internal/events"
	"studytrack/internal/handlers"
	"studytrack/internal/localstore"
	"studytrack/internal/middleware"
	"studytrack/internal/repository"
	"studytrack/internal/router"
	"studytrack/internal/services"
	"studytrack/internal/stats"
	"studytrack/internal/timer"
	"studytrack/internal/websocket"
	"studytrack/internal/worker"
)

func main() {
	log.Println("🚀 Starting StudyTrack server...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	noteRepo := repository.NewNoteRepo(pool)
	sessionRepo := repository.NewStudySessionRepo(pool)
	dailyStatsRepo := repository.NewDailyStatsRepo(pool)

	// ──── Initialize Services ────
	bus := events.NewBus(64)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, services.NewRedisTokenStore(redisClients.Store), jwtAuth)
	sessionService := services.NewSessionService(sessionRepo, courseRepo, bus)
	courseService := services.NewCourseService(courseRepo, noteRepo, bus)
	profileService := services.NewProfileService(userRepo)
	timerService := services.NewTimerService(
		localstore.NewRedisStore(redisClients.Store, "", 0),
		timer.NewStoreAdapter(sessionRepo),
		sessionRepo,
		courseRepo,
		bus,
		timer.SystemClock,
	)
	dashboardService := services.NewDashboardService(
		sessionRepo,
		courseRepo,
		userRepo,
		dailyStatsRepo,
		services.NewRedisChartCache(redisClients.Store),
		services.DashboardOptions{
			Stats:          stats.Options{Location: cfg.Location, WeekStart: cfg.WeekStartsOn},
			LabelMaxLength: cfg.LabelMaxLength,
			CacheTTL:       cfg.ChartCacheTTL,
		},
	)
	log.Println("✓ Services initialized")

	// ──── Step 5: Start Rollup Worker Pool ────
	rollup := worker.NewRollup(sessionRepo, dailyStatsRepo, cfg.Location)
	workerPool := worker.NewPool(redisClients.Store, rollup, cfg.Location, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	notifier := websocket.NewNotifier(redisClients.Store)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Wire Event Consumers ────
	consumers := []struct {
		name  string
		fn    func(events.Event) error
		kinds []events.Kind
	}{
		{"chart-cache", dashboardService.HandleEvent, events.ChartKinds},
		{"ws-notifier", notifier.HandleEvent, nil},
		{"rollup-queue", workerPool.HandleEvent, events.SessionKinds},
	}
	for _, c := range consumers {
		ch, _ := bus.Subscribe(c.kinds...)
		go events.Consume(c.name, ch, c.fn)
	}
	log.Println("✓ Event consumers subscribed")

	// ──── Step 8: Start HTTP Server ────
	authLimiter := router.DefaultAuthLimiter()
	r := router.New(jwtAuth, authLimiter, router.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Sessions:  handlers.NewSessionHandler(sessionService),
		Courses:   handlers.NewCourseHandler(courseService),
		Timer:     handlers.NewTimerHandler(timerService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		Profile:   handlers.NewProfileHandler(profileService),
		WebSocket: wsHub.HandleWebSocket,
	}, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)

		bus.Close()
		workerPool.Stop()
		wsHub.Close()
		authLimiter.Stop()
	}()

	log.Printf("✓ StudyTrack ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
