// Command masjidctl drives the client core from a terminal: it signs in,
// shows the loaded masjid data and runs the admin actions.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/smhassan90/salaahManager/internal/app"
	"github.com/smhassan90/salaahManager/internal/config"
	"github.com/smhassan90/salaahManager/internal/orchestrator"
	"github.com/smhassan90/salaahManager/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "masjidctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stdout)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}

	// Load configuration from the environment and an optional .env file.
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	log := logger.NewWithWriter("masjidctl", cfg.LogLevel, logger.Format(cfg.LogFormat), os.Stderr)
	log.Debug("starting masjidctl",
		slog.String("environment", cfg.Environment),
		slog.String("command", args[0]),
		slog.String("session_backend", cfg.SessionBackend),
	)

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error("shutdown error", slog.String("error", err.Error()))
		}
	}()

	o := application.Orchestrator()
	if err := o.Bootstrap(ctx); err != nil && orchestrator.KindOf(err) != orchestrator.KindAuthentication {
		// Data that failed to load is reported by the command that needs it.
		log.Warn("bootstrap incomplete", slog.String("error", err.Error()))
	}

	return cmd.run(ctx, &env{app: application, o: o, out: stdout}, args[1:])
}
