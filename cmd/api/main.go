package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fileforge/internal/app"
	"fileforge/internal/server"

	logger "github.com/Bparsons0904/goLogger"
)

const shutdownTimeout = 10 * time.Second

// Usage:
//
//	api          serve the HTTP API until SIGINT or SIGTERM
//	api replay   settle the storage journal once and exit
func main() {
	log := logger.New("main").Function("main")

	application, err := app.New()
	if err != nil {
		log.Er("failed to initialize app", err)
		os.Exit(1)
	}

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	switch command {
	case "serve":
		err = serve(ctx, application)
	case "replay":
		err = replay(ctx, application)
	default:
		err = errors.New("unknown command " + command + ", expected serve or replay")
	}
	stop()

	if closeErr := application.Close(); closeErr != nil {
		log.Er("failed to close app", closeErr)
	}

	if err != nil {
		log.Er("command failed", err, "command", command)
		os.Exit(1)
	}
}

func serve(ctx context.Context, application *app.App) error {
	log := logger.New("main").Function("serve")

	appServer, err := server.New(application)
	if err != nil {
		return err
	}

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- appServer.Listen(application.Config.ServerPort)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down", "timeout", shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := appServer.FiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		return log.Err("server forced to shut down", err)
	}

	log.Info("Server stopped")
	return nil
}

func replay(ctx context.Context, application *app.App) error {
	log := logger.New("main").Function("replay")

	settled, err := application.Services.Orchestration.ReplayJournal(ctx)
	if err != nil {
		return log.Err("journal replay failed", err, "settled", settled)
	}

	log.Info("Journal replay finished", "settled", settled)
	return nil
}
