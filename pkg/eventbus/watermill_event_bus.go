package eventbus

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/maestrohq/maestro/pkg/events"
)

type WatermillEventBus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	topic         string
	subscriptions map[events.EventType]EventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, topic string) EventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		topic:         topic,
		subscriptions: make(map[events.EventType]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventKeyMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(eb.topic, msg)
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, eb.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			handler, exists := eb.subscriptions[eventType]
			if !exists {
				msg.Ack()

				continue
			}

			event := newEvent(eventType)
			if event == nil {
				msg.Nack()

				continue
			}

			err := json.Unmarshal(msg.Payload, event)
			if err != nil {
				msg.Nack()

				continue
			}

			err = handler(ctx, event)
			if err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

// newEvent returns a zero value of the concrete event struct for a type tag,
// or nil for unknown tags.
func newEvent(eventType events.EventType) any {
	switch eventType {
	case events.PipelineStartedEvent:
		return &events.PipelineStarted{}
	case events.PipelineFinishedEvent:
		return &events.PipelineFinished{}
	case events.NodeStartedEvent:
		return &events.NodeStarted{}
	case events.NodeFinishedEvent:
		return &events.NodeFinished{}
	case events.NodeFailedEvent:
		return &events.NodeFailed{}
	case events.NodeSkippedEvent:
		return &events.NodeSkipped{}
	case events.ProjectStartEvent, events.PhaseStartEvent, events.PhaseCompleteEvent,
		events.TaskAssignedEvent, events.TaskCompleteEvent, events.TaskErrorEvent,
		events.ProjectCompleteEvent, events.ProjectErrorEvent:
		return &events.ProjectEvent{}
	default:
		return nil
	}
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
