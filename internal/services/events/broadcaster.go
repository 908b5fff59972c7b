package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/novel-engine/pkg/playback"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSessionCreated  EventType = "session.created"
	EventTypeSessionAdvanced EventType = "session.advanced"
	EventTypeSessionRewound  EventType = "session.rewound"
	EventTypeSessionJumped   EventType = "session.jumped"
	EventTypeSessionNoOp     EventType = "session.noop"
	EventTypeSessionDeleted  EventType = "session.deleted"
)

// Op names a navigation input.
type Op string

const (
	OpAdvance Op = "advance"
	OpRewind  Op = "rewind"
	OpJump    Op = "jump"
)

// Event is the payload published on a session channel.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel is the pub/sub channel for one session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Publisher is what handlers need from a broadcaster.
type Publisher interface {
	PublishCreated(ctx context.Context, sessionID uuid.UUID, scriptFile string) error
	PublishTransition(ctx context.Context, sessionID uuid.UUID, op Op, result playback.Result, index int) error
	PublishDeleted(ctx context.Context, sessionID uuid.UUID) error
}

// Broadcaster publishes session events to Redis Pub/Sub for SSE distribution
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

// PublishCreated announces a new session.
func (b *Broadcaster) PublishCreated(ctx context.Context, sessionID uuid.UUID, scriptFile string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionCreated,
		Data: map[string]any{"script": scriptFile},
	})
}

// PublishTransition announces the outcome of one navigation input. No-ops are
// published too so that every connected view can show the reason.
func (b *Broadcaster) PublishTransition(ctx context.Context, sessionID uuid.UUID, op Op, result playback.Result, index int) error {
	event := Event{
		Type: transitionType(op, result),
		Data: map[string]any{
			"op":    op,
			"index": index,
		},
	}
	if result.Transitioned() {
		event.Data["view"] = result.View
	} else {
		event.Data["reason"] = result.Reason
	}
	return b.publish(ctx, sessionID, event)
}

// PublishDeleted announces the end of a session.
func (b *Broadcaster) PublishDeleted(ctx context.Context, sessionID uuid.UUID) error {
	return b.publish(ctx, sessionID, Event{Type: EventTypeSessionDeleted})
}

func transitionType(op Op, result playback.Result) EventType {
	if !result.Transitioned() {
		return EventTypeSessionNoOp
	}
	switch op {
	case OpRewind:
		return EventTypeSessionRewound
	case OpJump:
		return EventTypeSessionJumped
	default:
		return EventTypeSessionAdvanced
	}
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := Channel(sessionID)
	event.SessionID = sessionID.String()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type)
	return nil
}
