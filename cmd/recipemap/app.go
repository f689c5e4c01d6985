package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/recipemap/recipemap/pkg/cmd"
	"github.com/recipemap/recipemap/pkg/eventbus"
	"github.com/recipemap/recipemap/pkg/log"
	"github.com/recipemap/recipemap/pkg/otelhelper"
	"github.com/recipemap/recipemap/pkg/persistence"
	"github.com/recipemap/recipemap/pkg/services"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "recipemap"

// app holds the providers opened for one command invocation.
type app struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.Bus
	services    *services.Services
	shutdown    otelhelper.ShutdownFunc
}

func openApp(ctx context.Context, command *cli.Command) (*app, error) {
	root := command.Root()
	log.Setup(root.String("log-level"), root.String("log-format"))

	logger := log.WithModule(serviceName)

	var (
		tracer   trace.Tracer
		shutdown otelhelper.ShutdownFunc
	)

	if root.Bool("otel-enabled") {
		var err error

		tracer, shutdown, err = otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
	}

	store, err := cmd.NewPersistence(ctx, logger, root.String("database-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to open persistence: %w", err)
	}

	bus, err := cmd.NewEventBus(root.String("event-bus"), root.String("kafka-brokers"), logger)
	if err != nil {
		_ = store.Close(ctx)

		return nil, fmt.Errorf("failed to open event bus: %w", err)
	}

	return &app{
		logger:      logger,
		persistence: store,
		eventBus:    bus,
		services: services.New(services.Deps{
			Persistence: store,
			Publisher:   bus,
			Tracer:      tracer,
			Logger:      logger,
		}),
		shutdown: shutdown,
	}, nil
}

func (a *app) close(ctx context.Context) {
	err := a.eventBus.Close()
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
	}

	err = a.persistence.Close(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
	}

	if a.shutdown != nil {
		err = a.shutdown(ctx)
		if err != nil {
			a.logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
		}
	}
}

// withApp opens the providers, runs fn and closes them again.
func withApp(fn func(ctx context.Context, command *cli.Command, a *app) error) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		a, err := openApp(ctx, command)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		return fn(ctx, command, a)
	}
}

// readRequest decodes the JSON document named by the file flag into req. "-" reads stdin.
func readRequest(command *cli.Command, req any) error {
	path := command.String("file")

	var reader io.Reader

	if path == "-" {
		reader = command.Root().Reader
		if reader == nil {
			reader = os.Stdin
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open request file: %w", err)
		}
		defer f.Close()

		reader = f
	}

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(req)
	if err != nil {
		return fmt.Errorf("failed to decode request %s: %w", path, err)
	}

	return nil
}

func writeJSON(command *cli.Command, v any) error {
	writer := command.Root().Writer
	if writer == nil {
		writer = os.Stdout
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	return nil
}

func requireArg(command *cli.Command, name string) (string, error) {
	value := command.Args().First()
	if value == "" {
		return "", fmt.Errorf("missing %s argument", name)
	}

	return value, nil
}
