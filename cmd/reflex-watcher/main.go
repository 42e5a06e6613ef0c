package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/reflexhq/reflex/pkg/cmd"
	"github.com/reflexhq/reflex/pkg/dispatch"
	"github.com/reflexhq/reflex/pkg/engine"
	"github.com/reflexhq/reflex/pkg/log"
	"github.com/reflexhq/reflex/pkg/otelhelper"
	"github.com/reflexhq/reflex/pkg/protocol"
	"github.com/reflexhq/reflex/pkg/tools"
	"github.com/reflexhq/reflex/pkg/watcher"
)

func main() {
	command := &cli.Command{
		Name:                  "reflex-watcher",
		EnableShellCompletion: true,
		Usage:                 "Poll event sources and run matching automations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "state-url",
				Usage:   "Redis URL for watcher checkpoints (defaults to the primary store)",
				Sources: cli.EnvVars("STATE_URL"),
			},
			&cli.StringFlag{
				Name:     "tools-config",
				Usage:    "Path to the tool servers JSON config",
				Required: true,
				Sources:  cli.EnvVars("TOOLS_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "source",
				Usage:   "Event source to watch (email, code_review, all)",
				Value:   "all",
				Sources: cli.EnvVars("WATCH_SOURCE"),
			},
			&cli.DurationFlag{
				Name:    "interval",
				Usage:   "Time between polls",
				Value:   watcher.DefaultInterval,
				Sources: cli.EnvVars("WATCH_INTERVAL"),
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single poll cycle and exit",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))
	logger := log.WithModule("reflex-watcher")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Initializing watcher", "source", command.String("source"))

	toolsConfig, err := tools.LoadConfig(command.String("tools-config"))
	if err != nil {
		return err
	}

	caller := tools.NewHTTPCaller(toolsConfig, logger)

	store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	states, err := cmd.NewWatcherStateStore(ctx, logger, command.String("state-url"), store)
	if err != nil {
		return err
	}

	eventBus := cmd.NewEventBus(logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	routerOpts := []dispatch.Option{}
	if completer := tools.NewToolCompleter(caller); completer != nil {
		routerOpts = append(routerOpts, dispatch.WithCompleter(completer))
	}

	engineOpts := []engine.Option{engine.WithEventBus(eventBus)}

	if command.Bool("tracing") {
		tracer, err := otelhelper.NewTracer(ctx, "reflex-watcher")
		if err != nil {
			return err
		}

		engineOpts = append(engineOpts, engine.WithTracer(tracer))
	}

	router := dispatch.NewRouter(caller, logger, routerOpts...)
	eng := engine.NewEngine(router, store, logger, engineOpts...)

	sources, err := selectSources(command.String("source"), caller, logger)
	if err != nil {
		return err
	}

	interval := command.Duration("interval")

	maxIterations := 0
	if command.Bool("once") {
		maxIterations = 1
	}

	var wg sync.WaitGroup

	for _, source := range sources {
		source := source
		w := watcher.NewWatcher(source, eng, store.AutomationRepository(), states, logger)

		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := w.Start(ctx, interval, maxIterations); err != nil {
				logger.ErrorContext(ctx, "Watcher exited with error",
					"domain", source.Domain(), "error", err)
			}
		}()
	}

	wg.Wait()

	return nil
}

func selectSources(selector string, caller protocol.ToolCaller, logger *slog.Logger) ([]protocol.EventSource, error) {
	switch selector {
	case "email":
		return []protocol.EventSource{tools.NewEmailSource(caller, logger)}, nil
	case "code_review":
		return []protocol.EventSource{tools.NewReviewSource(caller, logger)}, nil
	case "all":
		return []protocol.EventSource{
			tools.NewEmailSource(caller, logger),
			tools.NewReviewSource(caller, logger),
		}, nil
	default:
		return nil, fmt.Errorf("unknown source %q (expected email, code_review or all)", selector)
	}
}
