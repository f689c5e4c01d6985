package main

import (
	"context"
	"fmt"

	"github.com/recipemap/recipemap/pkg/models"
	"github.com/recipemap/recipemap/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "recipemap",
		Usage:                 "Author recipe templates and instantiate recipe process graphs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (postgres://... or file://...)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel, none)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Commands: []*cli.Command{
			newMigrateCommand(),
			newMapCommand(),
			newTemplateCommand(),
			newBlacklistCommand(),
			newRecipeCommand(),
			newAccessCommand(),
			newEventsCommand(),
		},
	}
}

func fileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "JSON request file, - for stdin",
		Required: true,
	}
}

// schemaVersioner is implemented by stores with versioned migrations.
type schemaVersioner interface {
	SchemaVersion(ctx context.Context) (int, error)
}

func newMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the storage schema",
		Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
			err := a.persistence.HealthCheck(ctx)
			if err != nil {
				return fmt.Errorf("persistence is not healthy: %w", err)
			}

			result := map[string]any{"status": "ok"}

			if versioned, ok := a.persistence.(schemaVersioner); ok {
				version, err := versioned.SchemaVersion(ctx)
				if err != nil {
					return err
				}

				result["schema_version"] = version
			}

			return writeJSON(command, result)
		}),
	}
}

func newMapCommand() *cli.Command {
	return &cli.Command{
		Name:  "map",
		Usage: "Manage map templates",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a map template",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "type", Usage: "FDA or Custom", Value: string(models.TemplateTypeCustom)},
				},
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					mapTemplate, err := a.services.Maps.Create(ctx, services.CreateMapTemplateRequest{
						Name: command.String("name"),
						Type: models.TemplateType(command.String("type")),
					})
					if err != nil {
						return err
					}

					return writeJSON(command, mapTemplate)
				}),
			},
			{
				Name:      "get",
				Usage:     "Show a map template with its templates and blacklist rules",
				ArgsUsage: "<map-template-id>",
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					id, err := requireArg(command, "map-template-id")
					if err != nil {
						return err
					}

					view, err := a.services.Maps.Get(ctx, id)
					if err != nil {
						return err
					}

					return writeJSON(command, view)
				}),
			},
			{
				Name:  "list",
				Usage: "List map templates",
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					mapTemplates, err := a.services.Maps.List(ctx)
					if err != nil {
						return err
					}

					return writeJSON(command, mapTemplates)
				}),
			},
		},
	}
}

func newTemplateCommand() *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Manage recipe templates",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create version 1 of a recipe template",
				Flags: []cli.Flag{fileFlag()},
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					var req services.CreateRecipeTemplateRequest

					err := readRequest(command, &req)
					if err != nil {
						return err
					}

					created, err := a.services.Templates.CreateTemplate(ctx, req)
					if err != nil {
						return err
					}

					return writeJSON(command, created)
				}),
			},
			{
				Name:      "override",
				Usage:     "Store a new version of a canonical template",
				ArgsUsage: "<template-id>",
				Flags:     []cli.Flag{fileFlag()},
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					id, err := requireArg(command, "template-id")
					if err != nil {
						return err
					}

					var req services.CreateRecipeTemplateRequest

					err = readRequest(command, &req)
					if err != nil {
						return err
					}

					created, err := a.services.Templates.OverrideTemplate(ctx, id, req)
					if err != nil {
						return err
					}

					return writeJSON(command, created)
				}),
			},
			{
				Name:      "get",
				Usage:     "Show a template with its flows and fields",
				ArgsUsage: "<template-id>",
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					id, err := requireArg(command, "template-id")
					if err != nil {
						return err
					}

					template, err := a.services.Templates.GetTemplate(ctx, id)
					if err != nil {
						return err
					}

					return writeJSON(command, template)
				}),
			},
			{
				Name:      "relations",
				Usage:     "Show the templates blacklisted around a template",
				ArgsUsage: "<template-id>",
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					id, err := requireArg(command, "template-id")
					if err != nil {
						return err
					}

					relations, err := a.services.Blacklist.GetRelations(ctx, id)
					if err != nil {
						return err
					}

					return writeJSON(command, relations)
				}),
			},
		},
	}
}

func newBlacklistCommand() *cli.Command {
	return &cli.Command{
		Name:  "blacklist",
		Usage: "Manage blacklist rules",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Replace every rule touching a template",
				Flags: []cli.Flag{fileFlag()},
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					var req services.ReplaceBlacklistRequest

					err := readRequest(command, &req)
					if err != nil {
						return err
					}

					view, err := a.services.Blacklist.ReplaceRules(ctx, req)
					if err != nil {
						return err
					}

					return writeJSON(command, view)
				}),
			},
		},
	}
}

func newRecipeCommand() *cli.Command {
	return &cli.Command{
		Name:  "recipe",
		Usage: "Manage recipes and their process graphs",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an empty recipe",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "agent", Required: true},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "note"},
					&cli.StringSliceFlag{Name: "resource", Usage: "resource specification id, repeatable"},
				},
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					req := services.CreateRecipeRequest{
						AgentID:                  command.String("agent"),
						Name:                     command.String("name"),
						ResourceSpecificationIDs: command.StringSlice("resource"),
					}

					if note := command.String("note"); note != "" {
						req.Note = &note
					}

					recipe, err := a.services.Recipes.Create(ctx, req)
					if err != nil {
						return err
					}

					return writeJSON(command, recipe)
				}),
			},
			{
				Name:      "get",
				Usage:     "Show a recipe with its processes and edges",
				ArgsUsage: "<recipe-id>",
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					id, err := requireArg(command, "recipe-id")
					if err != nil {
						return err
					}

					graph, err := a.services.Recipes.Get(ctx, id)
					if err != nil {
						return err
					}

					return writeJSON(command, graph)
				}),
			},
			{
				Name:  "list",
				Usage: "List the recipes of an agent",
				Flags: []cli.Flag{&cli.StringFlag{Name: "agent", Required: true}},
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					recipes, err := a.services.Recipes.ListByAgent(ctx, command.String("agent"))
					if err != nil {
						return err
					}

					return writeJSON(command, recipes)
				}),
			},
			{
				Name:  "instantiate",
				Usage: "Add a process graph to a recipe",
				Flags: []cli.Flag{fileFlag()},
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					var req services.InstantiateRecipeRequest

					err := readRequest(command, &req)
					if err != nil {
						return err
					}

					responses, err := a.services.Graph.Instantiate(ctx, req)
					if err != nil {
						return err
					}

					return writeJSON(command, responses)
				}),
			},
		},
	}
}

func newAccessCommand() *cli.Command {
	return &cli.Command{
		Name:  "access",
		Usage: "Manage which agents may use which templates",
		Commands: []*cli.Command{
			{
				Name:  "assign",
				Usage: "Grant an agent a template",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "agent", Required: true},
					&cli.StringFlag{Name: "template", Required: true},
				},
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					access, err := a.services.Access.Assign(ctx, services.AssignTemplateRequest{
						AgentID:    command.String("agent"),
						TemplateID: command.String("template"),
					})
					if err != nil {
						return err
					}

					return writeJSON(command, access)
				}),
			},
			{
				Name:  "list",
				Usage: "List the canonical templates an agent may use",
				Flags: []cli.Flag{&cli.StringFlag{Name: "agent", Required: true}},
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					templates, err := a.services.Access.TemplatesForAgent(ctx, command.String("agent"))
					if err != nil {
						return err
					}

					return writeJSON(command, templates)
				}),
			},
		},
	}
}
