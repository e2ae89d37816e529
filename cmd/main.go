package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/asset-gallery-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	application.Start()

	errCh := make(chan error, 1)
	go func() { errCh <- application.Run("") }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			application.Log.Error("Server stopped", "error", err)
			application.Close()
			os.Exit(1)
		}
	case s := <-sig:
		application.Log.Info("Shutting down", "signal", s.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), application.Cfg.ShutdownTTL)
	defer cancel()
	if err := application.Shutdown(ctx); err != nil {
		fmt.Printf("shutdown: %v\n", err)
	}
}
