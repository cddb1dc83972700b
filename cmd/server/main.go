package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"bcbevents/config"
	_ "bcbevents/docs"
	"bcbevents/internal/adapters/auth"
	httpdelivery "bcbevents/internal/delivery/http"
	"bcbevents/internal/delivery/http/controllers"
	"bcbevents/internal/delivery/http/middleware"
	"bcbevents/internal/repository/postgres"
	"bcbevents/internal/services"
)

// @title BCB Events API
// @version 1.0
// @description RSVP and event management backend for community events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	eventRepo := postgres.NewEventRepository(db)
	rsvpRepo := postgres.NewRSVPRepository(db)
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	eventSvc := services.NewEventService(eventRepo, rsvpRepo, roleRepo)
	rsvpSvc := services.NewRSVPService(eventRepo, rsvpRepo, roleRepo)
	userSvc := services.NewUserService(userRepo, roleRepo, hasher, issuer, cfg.TokenExpiry)

	eventCtrl := controllers.NewEventController(logger, eventSvc)
	rsvpCtrl := controllers.NewRSVPController(logger, rsvpSvc)
	authCtrl := controllers.NewAuthController(logger, userSvc)

	requireAuth := middleware.RequireAuth(verifier, logger)
	mux := httpdelivery.NewRouter(eventCtrl, rsvpCtrl, authCtrl, requireAuth)

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.AllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
