package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/NetaKon/Real-Time-Forum/logging"
	"github.com/NetaKon/Real-Time-Forum/metrics"
)

// RedisBroker shares rooms between server instances. Publish sends the event over a
// Redis channel; Run relays every event from that channel into the local Hub, so
// subscribers connected to any instance receive it.
type RedisBroker struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

// envelope is the Redis wire form of a room event.
type envelope struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Message json.RawMessage `json:"message"`
}

var brokerLog = logging.For("RedisBroker")

func NewRedisBroker(client *redis.Client, channel string, hub *Hub) *RedisBroker {
	return &RedisBroker{client: client, channel: channel, hub: hub}
}

func (b *RedisBroker) Publish(ctx context.Context, room, event string, payload any) error {
	message, err := Encode(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	data, err := json.Marshal(envelope{Room: room, Event: event, Message: message})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to redis channel %s: %w", b.channel, err)
	}
	metrics.RealtimeEvents.WithLabelValues(event).Inc()
	return nil
}

// Run subscribes to the broker channel and relays events until ctx is done.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to redis channel %s: %w", b.channel, err)
	}
	brokerLog.Infof("Relaying room events from redis channel %s.", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := b.relay([]byte(msg.Payload)); err != nil {
				brokerLog.Warnf("Dropping malformed room event: %v", err)
			}
		}
	}
}

func (b *RedisBroker) relay(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Room == "" || len(env.Message) == 0 {
		return errors.New("envelope without room or message")
	}
	b.hub.Broadcast(env.Room, env.Message)
	return nil
}
