// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/withseismic/leadpulse-go/internal/application/container"
	"github.com/withseismic/leadpulse-go/internal/presentation/http/server"
	"github.com/withseismic/leadpulse-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until
// shutdown.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	log.Println("\033[32m" + `

  ██▌  ▐███▌ ▐███▌ ██▄▄  ▐███▌ ██ ██ ██▌   ▐███▌ ▐███▌
  ██▌  ▐█▄   ▐█▄█▌ ██ ██ ▐█▄█▌ ██ ██ ██▌   ▐█▄▄  ▐█▄▄
  ██▌  ▐█▀   ▐█▀█▌ ██ ██ ▐█▀▀  ██ ██ ██▌     ▀██ ▐█▀
  ████ ▐███▌ ▐█ █▌ ██▀▀  ▐█    ▀███▀ ████▌ ▐███▌ ▐███▌
` + "\033[97m" + `
  made by With Seismic
` + "\033[0m")

	log.Println("Initializing...")

	appContainer, err := container.NewContainer()
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	logger := appContainer.Logger
	logger.Startup().Info("Container initialization complete - switching to channeled logging")

	// Session map broadcaster feeds the sysop dashboard.
	go appContainer.SysOpBroadcaster.Run()
	logger.Startup().Info("Session map broadcaster started", "tick", config.SessionMapTick)

	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()

	port := config.Port
	httpServer := server.New(port, appContainer)

	logger.Startup().Info("HTTP server initialized", "port", port, "duration", time.Since(startServerTime))

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"storageDriver", config.StorageDriver,
		"port", port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	// Flush live page sessions and close storage.
	logger.Shutdown().Info("Flushing page sessions and closing storage...")
	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing container", "error", err.Error())
	}

	elapsed := time.Since(start)
	log.Printf("Application shutdown complete (uptime %s, shutdown %s)", elapsed, time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
