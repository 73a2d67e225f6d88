package eventbus

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/maestrohq/maestro/pkg/events"
)

// NewInMemoryBus creates an in-process event bus on watermill's GoChannel
// pub/sub. The same GoChannel instance serves as both publisher and
// subscriber. This is the only transport the single-process deployment
// needs; nothing is persisted across restarts.
func NewInMemoryBus(logger *slog.Logger, topic string) EventBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 1000,
			Persistent:          false,
		},
		watermill.NewSlogLogger(logger),
	)

	return NewWatermillEventBus(pubSub, pubSub, topic)
}

// NewTestBus creates a small, deterministic bus for tests: messages persist
// for late subscribers and publishing blocks until acknowledged.
func NewTestBus(logger *slog.Logger) EventBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            10,
			Persistent:                     true,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewSlogLogger(logger),
	)

	return NewWatermillEventBus(pubSub, pubSub, events.PipelineTopic)
}
