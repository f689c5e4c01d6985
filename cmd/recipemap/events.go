package main

import (
	"context"

	"github.com/recipemap/recipemap/pkg/events"
	cli "github.com/urfave/cli/v3"
)

var watchedEvents = []events.EventType{
	events.TemplateCreatedEvent,
	events.TemplateOverriddenEvent,
	events.BlacklistReplacedEvent,
	events.RecipeCreatedEvent,
	events.RecipeProcessesInstantiatedEvent,
}

func newEventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Inspect domain events",
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "Print domain events from the event bus until interrupted",
				Action: withApp(func(ctx context.Context, command *cli.Command, a *app) error {
					for _, eventType := range watchedEvents {
						a.eventBus.Handle(eventType, func(_ context.Context, event events.Event) error {
							return writeJSON(command, event)
						})
					}

					err := a.eventBus.Subscribe(ctx)
					if err != nil {
						return err
					}

					a.logger.InfoContext(ctx, "Watching events", "topic", events.Topic)

					<-ctx.Done()

					return nil
				}),
			},
		},
	}
}
