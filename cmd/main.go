package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"catalogo/db"
	"catalogo/internal/catalog"
	"catalogo/internal/config"
	"catalogo/internal/users"
	"catalogo/internal/web"
	"catalogo/middleware"
)

// Global loggers for different output streams
var (
	infoLogger  = log.New(os.Stdout, "", log.LstdFlags)
	errorLogger = log.New(os.Stderr, "", log.LstdFlags)
)

func main() {
	infoLogger.Printf("Starting catalogo - Process ID: %d", os.Getpid())

	cfg, err := config.LoadConfig()
	if err != nil {
		errorLogger.Fatalf("Failed to load configuration: %v", err)
	}

	infoLogger.Println("Using SQLite database")
	sqliteDB, err := db.ConnectToSQLite(cfg.SQLitePath)
	if err != nil {
		errorLogger.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer sqliteDB.Close()

	if err := db.InitializeSchema(sqliteDB); err != nil {
		errorLogger.Fatalf("Failed to initialize database schema: %v", err)
	}

	repoFactory := db.NewRepositoryFactory(sqliteDB, cfg.DatabaseName)
	userRepo := repoFactory.NewUserRepository()
	productRepo := repoFactory.NewProductRepository()

	// Serialize writes so SQLite only ever sees a single writer
	dbManager := db.NewDBManager()
	defer dbManager.Stop()

	userService := users.NewUserService(userRepo, dbManager)
	catalogService := catalog.NewCatalogService(productRepo, dbManager)

	// Idempotent default-admin provisioning
	infoLogger.Printf("Verifying user %q...", cfg.AdminUsername)
	if err := userService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		errorLogger.Fatalf("Failed to provision default admin: %v", err)
	}

	webHandler := web.NewWebHandler(catalogService, userService, "templates", cfg.SessionSecret)
	router := webHandler.SetupRoutes()
	loggedRouter := middleware.LoggingMiddleware(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: loggedRouter,
	}

	go func() {
		infoLogger.Printf("Server is starting on port %s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errorLogger.Fatalf("Server ListenAndServe error: %v", err)
		}
	}()

	waitForShutdown(server)
}

func waitForShutdown(server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	sig := <-stop
	infoLogger.Printf("Received shutdown signal: %v", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	infoLogger.Println("Shutting down the server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		errorLogger.Printf("Server Shutdown error: %v", err)
		os.Exit(1)
	}
	infoLogger.Println("Server stopped")
}
