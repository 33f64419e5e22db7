package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/lifeskills-engine/pkg/events"
)

// Message is what subscribers receive for every presentation event.
type Message struct {
	SessionID string       `json:"session_id"`
	RequestID string       `json:"request_id,omitempty"`
	Event     events.Event `json:"event"`
}

// Publisher sends a session's presentation events to whoever is watching.
type Publisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, requestID string, list []events.Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, uuid.UUID, string, []events.Event) error { return nil }

// Channel returns the Redis channel for a session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes events to Redis Pub/Sub
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Publish sends each event in order to the session channel.
func (b *Broadcaster) Publish(ctx context.Context, sessionID uuid.UUID, requestID string, list []events.Event) error {
	channel := Channel(sessionID)
	for _, e := range list {
		msg := Message{SessionID: sessionID.String(), RequestID: requestID, Event: e}
		data, err := json.Marshal(msg)
		if err != nil {
			b.logger.Error("Failed to marshal event", "error", err, "kind", e.Kind)
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
			b.logger.Error("Failed to publish event", "error", err, "channel", channel)
			return fmt.Errorf("failed to publish event: %w", err)
		}
	}

	b.logger.Debug("Events published",
		"channel", channel,
		"count", len(list),
		"request_id", requestID,
	)
	return nil
}

// Subscribe returns a channel of decoded messages for one session. The
// channel closes when ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) (<-chan Message, error) {
	sub := b.redisClient.Subscribe(ctx, Channel(sessionID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					b.logger.Warn("Dropping undecodable event", "error", err, "channel", raw.Channel)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
