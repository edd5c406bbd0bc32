package broadcast

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel carrying logout markers.
const DefaultChannel = "leadgrid:logout"

// RedisPublisher publishes logout markers over Redis pub/sub so clients on
// other hosts learn about the logout without sharing a filesystem.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher on the given channel. An empty
// channel name selects DefaultChannel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, marker string) error {
	return p.client.Publish(ctx, p.channel, marker).Err()
}

// RedisWatcher receives logout markers from Redis pub/sub. Redis delivers
// a published message to every subscriber including the publisher's own
// process, so receivers must filter out their own markers.
type RedisWatcher struct {
	pubsub *redis.PubSub
	events chan Signal
}

// NewRedisWatcher subscribes to the given channel. An empty channel name
// selects DefaultChannel.
func NewRedisWatcher(ctx context.Context, client *redis.Client, channel string) *RedisWatcher {
	if channel == "" {
		channel = DefaultChannel
	}
	rw := &RedisWatcher{
		pubsub: client.Subscribe(ctx, channel),
		events: make(chan Signal, 8),
	}
	go rw.loop()
	return rw
}

func (rw *RedisWatcher) loop() {
	for msg := range rw.pubsub.Channel() {
		select {
		case rw.events <- Signal{Marker: msg.Payload}:
		default:
		}
	}
	close(rw.events)
}

// Events returns the signal channel.
func (rw *RedisWatcher) Events() <-chan Signal {
	return rw.events
}

// Close unsubscribes. The events channel closes shortly after.
func (rw *RedisWatcher) Close() error {
	return rw.pubsub.Close()
}
