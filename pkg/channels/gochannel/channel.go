// Package gochannel wires an in-process watermill pub/sub for single-process runs and tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const defaultBuffer = 1000

type Config struct {
	// Replay keeps every published message so a subscriber started after a publish still sees it.
	Replay bool
	Buffer int64
}

// New returns a GoChannel, which serves as both the publisher and the subscriber.
func New(logger watermill.LoggerAdapter, cfg Config) *gochannel.GoChannel {
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}

	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: cfg.Buffer,
			Persistent:          cfg.Replay,
		},
		logger,
	)
}
