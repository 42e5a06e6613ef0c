package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/reflexhq/reflex/pkg/cmd"
	"github.com/reflexhq/reflex/pkg/dispatch"
	"github.com/reflexhq/reflex/pkg/engine"
	"github.com/reflexhq/reflex/pkg/log"
	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/persistence"
	"github.com/reflexhq/reflex/pkg/tools"
)

func main() {
	command := &cli.Command{
		Name:                  "reflex",
		Usage:                 "Manage and run automations",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			listCommand(),
			statusCommand("activate", "Activate an automation"),
			statusCommand("pause", "Pause an automation"),
			deleteCommand(),
			executionsCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func withStore(ctx context.Context, command *cli.Command, fn func(persistence.Persistence) error) error {
	log.Setup(command.String("log-level"), command.String("log-format"))
	logger := log.WithModule("reflex")

	store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	return fn(store)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run an automation immediately against a manual event",
		ArgsUsage: "<automation-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Describe what would run without calling remote tools",
			},
			&cli.StringFlag{
				Name:    "tools-config",
				Usage:   "Path to the tool servers JSON config",
				Sources: cli.EnvVars("TOOLS_CONFIG"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return fmt.Errorf("automation id required")
			}

			return withStore(ctx, command, func(store persistence.Persistence) error {
				logger := log.WithModule("reflex")
				dryRun := command.Bool("dry-run")

				caller, err := buildCaller(command, dryRun, logger)
				if err != nil {
					return err
				}

				routerOpts := []dispatch.Option{}
				if completer := tools.NewToolCompleter(caller); completer != nil {
					routerOpts = append(routerOpts, dispatch.WithCompleter(completer))
				}

				router := dispatch.NewRouter(caller, logger, routerOpts...)
				eng := engine.NewEngine(router, store, logger)

				automation, err := store.AutomationRepository().GetByID(ctx, id)
				if err != nil {
					return err
				}

				execution, err := eng.Run(ctx, automation, models.NewManualEvent(), dryRun)
				if err != nil {
					return err
				}

				return printJSON(execution)
			})
		},
	}
}

// buildCaller loads the tool config when given. Dry runs never call tools,
// so an empty config is enough there; live runs require one.
func buildCaller(command *cli.Command, dryRun bool, logger *slog.Logger) (*tools.HTTPCaller, error) {
	path := command.String("tools-config")
	if path == "" {
		if !dryRun {
			return nil, fmt.Errorf("--tools-config is required for live runs")
		}

		return tools.NewHTTPCaller(&tools.Config{Servers: map[string]tools.ServerConfig{}}, logger), nil
	}

	config, err := tools.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return tools.NewHTTPCaller(config, logger), nil
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List automations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by status (draft, active, paused, error)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			return withStore(ctx, command, func(store persistence.Persistence) error {
				var status *models.AutomationStatus

				if s := command.String("status"); s != "" {
					st := models.AutomationStatus(s)
					status = &st
				}

				automations, err := store.AutomationRepository().List(ctx, status)
				if err != nil {
					return err
				}

				for _, automation := range automations {
					fmt.Printf("%s\t%s\t%s\t(v%d)\n",
						automation.ID, automation.Status, automation.Name, automation.Version)
				}

				return nil
			})
		},
	}
}

func statusCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<automation-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return fmt.Errorf("automation id required")
			}

			return withStore(ctx, command, func(store persistence.Persistence) error {
				repo := store.AutomationRepository()

				automation, err := repo.GetByID(ctx, id)
				if err != nil {
					return err
				}

				if name == "activate" {
					automation.Activate()
				} else {
					automation.Pause()
				}

				if err := repo.Save(ctx, automation); err != nil {
					return err
				}

				fmt.Printf("%s is now %s\n", automation.ID, automation.Status)

				return nil
			})
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an automation",
		ArgsUsage: "<automation-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return fmt.Errorf("automation id required")
			}

			return withStore(ctx, command, func(store persistence.Persistence) error {
				if err := store.AutomationRepository().Delete(ctx, id); err != nil {
					return err
				}

				fmt.Printf("%s deleted\n", id)

				return nil
			})
		},
	}
}

func executionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "executions",
		Usage:     "List executions of an automation",
		ArgsUsage: "<automation-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of executions to show",
				Value: 20,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			id := command.Args().First()
			if id == "" {
				return fmt.Errorf("automation id required")
			}

			return withStore(ctx, command, func(store persistence.Persistence) error {
				executions, err := store.ExecutionRepository().List(ctx, id, int(command.Int("limit")))
				if err != nil {
					return err
				}

				for _, execution := range executions {
					fmt.Printf("%s\t%s\t%s\t%d results\n",
						execution.ID, execution.Status,
						execution.TriggeredAt.Format("2006-01-02 15:04:05"),
						len(execution.ActionResults))
				}

				return nil
			})
		},
	}
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}
