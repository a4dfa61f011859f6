package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mmynk/splitshare/internal/auth"
	"github.com/mmynk/splitshare/internal/httpapi"
	"github.com/mmynk/splitshare/internal/middleware"
	"github.com/mmynk/splitshare/internal/realtime"
	"github.com/mmynk/splitshare/internal/service"
	"github.com/mmynk/splitshare/internal/storage/sqlite"
	"github.com/mmynk/splitshare/pkg/logging"
)

const defaultTokenTTL = 24 * time.Hour

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "./data/splitshare.db")
	jwtSecret := getEnv("JWT_SECRET", "")
	corsOrigins := getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:5174")

	if jwtSecret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	tokenTTL := defaultTokenTTL
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			slog.Error("Invalid TOKEN_TTL", "value", raw, "error", err)
			os.Exit(1)
		}
		tokenTTL = parsed
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	jwtManager := auth.NewJWTManager(jwtSecret, tokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	hub := realtime.NewHub(store)

	router := httpapi.NewRouter(httpapi.Config{
		Auth:        service.NewAuthService(store, authenticator, jwtManager),
		Groups:      service.NewGroupService(store, hub),
		Expenses:    service.NewExpenseService(store, hub),
		Hub:         hub,
		JWTManager:  jwtManager,
		CORSOrigins: middleware.SplitOrigins(corsOrigins),
	})

	addr := fmt.Sprintf(":%s", port)
	slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
