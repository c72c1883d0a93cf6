package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"eventflow/docs" // swagger docs
	"eventflow/internal/auth"
	"eventflow/internal/cache"
	"eventflow/internal/config"
	"eventflow/internal/db"
	"eventflow/internal/handler"
	"eventflow/internal/metrics"
	"eventflow/internal/model"
	"eventflow/internal/oracle"
	"eventflow/internal/repository"
	"eventflow/internal/router"
	"eventflow/internal/service"
)

// @title Event Proposal API
// @version 1.0
// @description Students submit event proposals; category and budget reviewers approve or reject them in sequence.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		for _, table := range []interface{}{&model.Proposal{}, &model.User{}} {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("%v", err)
	}

	var cacheClient *cache.Client
	if cfg.RedisAddr != "" {
		cacheClient = cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cacheClient.Close()
	}

	m := metrics.New()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	proposalRepo := repository.NewProposalRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	limiter := auth.NewAttemptLimiter(cacheClient, cfg.MaxAuthAttempts, cfg.AttemptWindow)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, limiter, auth.LogOTPSender{}, cfg.OTPTTL)
	userService := service.NewUserService(userRepo, cacheClient)
	proposalService := service.NewProposalService(
		proposalRepo,
		oracle.NewClient(cfg.OracleURL, cfg.OracleTimeout, m),
		cacheClient,
		m,
	)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, cfg, jwtService, m, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		User:     handler.NewUserHandler(userService),
		Proposal: handler.NewProposalHandler(proposalService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	log.Printf("Swagger documentation available at: %s", swaggerURL(cfg.SwaggerHost))

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

// swaggerURL builds the docs URL from SWAGGER_HOST, which may already
// include a scheme.
func swaggerURL(host string) string {
	switch {
	case host == "":
		// For docker-compose: container listens on 8080, mapped to 5000 externally
		return "http://localhost:5000/swagger/index.html"
	case strings.HasPrefix(host, "http://"), strings.HasPrefix(host, "https://"):
		return host + "/swagger/index.html"
	default:
		return "http://" + host + "/swagger/index.html"
	}
}
