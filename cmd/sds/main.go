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

	"github.com/mich022001/sds-webapp/internal/database"
	"github.com/mich022001/sds-webapp/internal/logging"
	"github.com/mich022001/sds-webapp/internal/membership"
	"github.com/mich022001/sds-webapp/internal/server"
)

func main() {
	port := os.Getenv("SDS_PORT")
	if port == "" {
		port = "3001"
	}

	dbPath := os.Getenv("SDS_DB_PATH")
	if dbPath == "" {
		dbPath = "sds.db"
	}

	idPrefix := os.Getenv("SDS_ID_PREFIX")
	if idPrefix == "" {
		idPrefix = membership.DefaultIDPrefix
	}

	logger := logging.Setup(os.Getenv("SDS_LOG_LEVEL"), os.Getenv("SDS_LOG_FORMAT") == "json")

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	srv := server.New(db, server.Config{IDPrefix: idPrefix}, logger)

	// Rate limiter entries expire on their own; sweep the map hourly so it
	// doesn't grow unbounded.
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("SDS member service listening on :%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	close(cleanupDone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
