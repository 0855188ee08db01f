package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/johnrirwin/autolot/internal/app"
	"github.com/johnrirwin/autolot/internal/config"
	"github.com/johnrirwin/autolot/internal/logging"
)

func main() {
	cfg := config.Load()

	a, err := app.New(cfg)
	if err != nil {
		logging.New(logging.LevelError).Error("Failed to start", logging.WithField("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutdownCancel()
			if err := a.Shutdown(shutdownCtx); err != nil {
				a.Logger.Error("Shutdown error", logging.WithField("error", err.Error()))
			}
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		a.Logger.Info("Shutting down...")
		cancel()
		shutdown()
	}()

	runErr := a.Run(ctx)
	shutdown()
	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		a.Logger.Error("Server error", logging.WithField("error", runErr.Error()))
		os.Exit(1)
	}
}
