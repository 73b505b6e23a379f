package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"learnify/backend/utils"

	goredis "github.com/redis/go-redis/v9"
)

// RedisBus publishes events on a pub/sub channel so every instance's hub
// receives them.
type RedisBus struct {
	log     *utils.Logger
	rdb     *goredis.Client
	channel string
}

var _ Publisher = (*RedisBus)(nil)

func NewRedisBus(ctx context.Context, addr, channel string, log *utils.Logger) (*RedisBus, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = "learnify:notifications"
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisBus{log: log.With("service", "RedisBus"), rdb: rdb, channel: channel}, nil
}

// Publish always reports 0 streams: delivery happens on whichever instance
// holds the user's stream, and that forwarder acknowledges it.
func (b *RedisBus) Publish(ctx context.Context, ev Event) (int, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}
	return 0, b.rdb.Publish(ctx, b.channel, raw).Err()
}

// AckFunc is called after an event reached at least one local stream.
type AckFunc func(ctx context.Context, ev Event) error

// StartForwarder subscribes to the channel and delivers every event to hub
// until ctx is done. ack may be nil.
func (b *RedisBus) StartForwarder(ctx context.Context, hub *Hub, ack AckFunc) error {
	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad redis event payload", "error", err)
					continue
				}
				if hub.Deliver(ev) == 0 || ack == nil {
					continue
				}
				if err := ack(ctx, ev); err != nil {
					b.log.Warn("acknowledge event failed", "event_id", ev.ID, "error", err)
				}
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
