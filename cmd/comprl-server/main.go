// Package main implements the competition leaderboard server: a JSON
// API for registration, login, rankings, statistics, and game-history
// browsing, plus an operator CLI for database management.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/martius-lab/teamproject-competition-server/cmd/comprl-server/cli"
	"github.com/martius-lab/teamproject-competition-server/internal/server/config"
	"github.com/martius-lab/teamproject-competition-server/internal/server/http"
	"github.com/martius-lab/teamproject-competition-server/internal/server/service"
	"github.com/martius-lab/teamproject-competition-server/internal/server/storage"

	"github.com/sirupsen/logrus"
)

const gracefulShutdownTimeout = time.Second * 5

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 1. Initialize storage
	store, err := storage.NewStore(storage.Options{
		UserDBPath: cfg.UserDBPath,
		UserTable:  cfg.UserDBName,
		GameDBPath: cfg.GameDBPath,
		GameTable:  cfg.GameDBName,
	})
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Infof("Storage ready (users: %s/%s, games: %s/%s)",
		cfg.UserDBPath, cfg.UserDBName, cfg.GameDBPath, cfg.GameDBName)

	// JWT secret management
	var jwtSecret []byte
	switch {
	case cfg.JWTSecret != "":
		jwtSecret = []byte(cfg.JWTSecret)
	case cfg.Dev:
		// Fixed secret in dev mode for testing consistency
		jwtSecret = []byte("dev-secret-minimum-32-characters-long")
		log.Info("Using fixed JWT secret (dev mode)")
	default:
		jwtSecret = make([]byte, 32)
		if _, err := rand.Read(jwtSecret); err != nil {
			log.Fatalf("Failed to generate JWT secret: %v", err)
		}
		log.Info("JWT secret generated (sessions valid until restart)")
	}

	if cfg.Key == "" {
		log.Warn("Registration key not configured, registration is disabled")
	}

	// 2. Initialize the service and HTTP app
	svc := service.New(store, jwtSecret)
	app := http.NewFiberApp(svc, cfg.Key, cfg.Dev)

	apiAddr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)

	go func() {
		log.Infof("Leaderboard API listening on http://%s", apiAddr)
		log.Infof("Auth endpoints: http://%s/api/v1/auth/[register|login|me]", apiAddr)
		log.Infof("Health: http://%s/health", apiAddr)
		if cfg.Dev {
			log.Info("Rate limit: 20 requests/second per IP (DEV MODE)")
		}

		if err := app.Listen(apiAddr); err != nil {
			log.Errorf("API server listen error: %v", err)
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	if err := svc.Close(); err != nil {
		log.Errorf("Storage close error: %v", err)
	}

	log.Info("Server exited")
}
