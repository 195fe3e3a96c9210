package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/appforge/appforge-go/internal/buildstatus"
	"github.com/appforge/appforge-go/internal/config"
	"github.com/appforge/appforge-go/internal/handler"
	"github.com/appforge/appforge-go/internal/middleware"
	"github.com/appforge/appforge-go/internal/repository"
	"github.com/appforge/appforge-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.RunMigrations(context.Background(), db); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry)
	userService := service.NewUserService(userRepo)

	authHandler := handler.NewAuthHandler(authService, cfg.Dev())
	userHandler := handler.NewUserHandler(userService, cfg.Dev())
	relay := buildstatus.NewRelay(cfg.BuildStatusUpstream)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"appforge-api","version":"1.0.0","status":"running"}`))
	})

	r.Get("/api/build/stream", relay.HandleStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(5, 10))
		r.Post("/api/auth/register", authHandler.HandleRegister)
		r.Post("/api/auth/login", authHandler.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Get("/api/auth/me", authHandler.HandleMe)
		r.Get("/api/users/profile", userHandler.HandleGetProfile)
		r.Put("/api/users/profile", userHandler.HandleUpdateProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RequireAdmin())
		r.Get("/api/admin/users", userHandler.HandleListUsers)
		r.Get("/api/admin/users/{slug}", userHandler.HandleGetUser)
		r.Put("/api/admin/users/{slug}", userHandler.HandleUpdateUser)
		r.Post("/api/admin/users/{slug}/reset-password", userHandler.HandleResetPassword)
		r.Delete("/api/admin/users/{slug}", userHandler.HandleDeleteUser)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
