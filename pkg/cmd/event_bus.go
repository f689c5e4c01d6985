package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/recipemap/recipemap/pkg/channels/gochannel"
	"github.com/recipemap/recipemap/pkg/channels/kafka"
	"github.com/recipemap/recipemap/pkg/eventbus"
)

// NewEventBus creates the event bus named by provider: kafka, gochannel or none.
func NewEventBus(provider string, brokers string, logger *slog.Logger) (eventbus.Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.ParseBrokers(brokers), "recipemap")
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	case "gochannel":
		pubSub := gochannel.New(wmLogger, gochannel.Config{})

		return eventbus.NewWatermillEventBus(logger, pubSub, pubSub), nil
	case "none", "":
		return eventbus.DiscardBus{}, nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
