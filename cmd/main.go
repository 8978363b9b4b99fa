package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"callfloor/clients/livecalls"
	"callfloor/clients/notify"
	"callfloor/config"
	"callfloor/db"
	"callfloor/handlers"
	"callfloor/middleware"
	"callfloor/services/auth"
	"callfloor/services/dispatch"
	"callfloor/services/emergency"
	"callfloor/services/metrics"
	"callfloor/services/presence"
	"callfloor/services/sessions"
	"callfloor/services/txmanager"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.AlertConfig{
		WebhookURL:  cfg.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "callfloor",
	})

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	agentsRepo := db.NewPostgresAgentsRepository(dbConn, cfg.DatabaseSchema)
	sessionsRepo := db.NewPostgresSessionsRepository(dbConn, cfg.DatabaseSchema)
	presenceRepo := db.NewPostgresPresenceRepository(dbConn, cfg.DatabaseSchema)
	liveMetricsRepo := db.NewPostgresLiveMetricsRepository(dbConn, cfg.DatabaseSchema)
	leadsRepo := db.NewPostgresLeadsRepository(dbConn, cfg.DatabaseSchema)
	otpJournalRepo := db.NewPostgresOTPJournalRepository(dbConn, cfg.DatabaseSchema)

	// Initialize transaction manager
	txManager := txmanager.NewTransactionManager(dbConn)

	// OTP delivery channels. Unconfigured channels fall back to log-only
	// senders so dev environments still surface the codes.
	var senders []notify.Sender
	if cfg.SMTPConfig.IsConfigured() {
		senders = append(senders, notify.NewSMTPSender(cfg.SMTPConfig))
	} else {
		senders = append(senders, notify.NewLogSender("email"))
	}
	if cfg.SMSConfig.IsConfigured() {
		senders = append(senders, notify.NewSMSSender(cfg.SMSConfig))
	} else {
		senders = append(senders, notify.NewLogSender("sms"))
	}

	// Live-call registry; without Redis every agent is treated as off-call.
	var liveRegistry livecalls.Registry
	if cfg.RedisConfig.IsConfigured() {
		redisRegistry, err := livecalls.NewRedisRegistry(cfg.RedisConfig.URL)
		if err != nil {
			return err
		}
		defer redisRegistry.Close()
		liveRegistry = redisRegistry
	} else {
		liveRegistry = livecalls.NewNoopRegistry()
	}

	metricsService := metrics.NewMetricsService(liveMetricsRepo)
	authService := auth.NewAuthService(agentsRepo, otpJournalRepo, senders, cfg.OTPTTL)
	presenceService := presence.NewPresenceService(presenceRepo, metricsService, txManager)
	sessionsService := sessions.NewSessionsService(
		agentsRepo,
		sessionsRepo,
		presenceService,
		metricsService,
		txManager,
		cfg.JWTSecret,
	)
	dispatchService := dispatch.NewDispatchService(
		leadsRepo,
		metricsService,
		liveRegistry,
		txManager,
		cfg.WrapupCooldown,
	)
	emergencyService := emergency.NewEmergencyService(
		agentsRepo,
		sessionsRepo,
		presenceRepo,
		sessionsService,
		metricsService,
		txManager,
	)

	floorHandler := handlers.NewFloorAPIHandler(
		authService,
		sessionsService,
		presenceService,
		dispatchService,
		emergencyService,
	)
	floorHTTPHandler := handlers.NewFloorHTTPHandler(floorHandler)
	authMiddleware := middleware.NewSessionAuthMiddleware(sessionsService)

	// Create a new router
	router := mux.NewRouter()
	floorHTTPHandler.SetupEndpoints(router, authMiddleware)

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func handleGracefulShutdown(server *http.Server) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
