package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"canopy/internal/auth"
	"canopy/internal/config"
	"canopy/internal/handler"
	"canopy/internal/handler/sse"
	"canopy/internal/middleware"
	"canopy/internal/service"
)

// shutdownTimeout bounds draining requests and flushing open folders
const shutdownTimeout = 15 * time.Second

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	var logFile *os.File
	if cfg.LogDir != "" {
		f, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		logFile = f
		defer logFile.Close()
	}

	logger := config.NewLogger(cfg)
	if logFile != nil {
		logger = config.NewLogger(cfg, logFile)
	}
	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// JWT verification is optional in dev, where DEV_USER_ID stands in
	var verifier auth.JWTVerifier
	if cfg.SupabaseJWKSURL != "" {
		v, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer v.Close()
		verifier = v
	} else if cfg.DevUserID == "" {
		log.Fatalf("SUPABASE_URL or DEV_USER_ID must be set")
	} else {
		logger.Warn("DEV MODE: unauthenticated requests act as the dev user", "user_id", cfg.DevUserID)
	}

	services, err := service.SetupServices(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up services: %v", err)
	}

	folderHandler := handler.NewFolderHandler(services.Sessions, services.Content, logger)
	notificationHandler := handler.NewNotificationHandler(
		services.Hub,
		services.Sessions,
		&sse.Config{KeepAliveInterval: cfg.SSEKeepAliveInterval},
		logger,
	)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, folderHandler, notificationHandler)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → RequestLogger → Routes
	var h http.Handler = mux
	h = middleware.RequestLogger(logger)(h)
	h = middleware.AuthMiddleware(verifier, cfg.DevUserID, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := services.Close(shutdownCtx); err != nil {
		logger.Error("service shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
