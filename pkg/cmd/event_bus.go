package cmd

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/reflexhq/reflex/pkg/channels/gochannel"
	"github.com/reflexhq/reflex/pkg/eventbus"
)

// NewEventBus builds the in-process lifecycle event bus.
func NewEventBus(logger *slog.Logger) eventbus.EventBus {
	pub, sub := gochannel.CreateChannel(watermill.NewSlogLogger(logger))

	return eventbus.NewWatermillEventBus(pub, sub)
}
