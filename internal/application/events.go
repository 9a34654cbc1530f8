package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventUserCreated         = "user.created"
	EventUserUpdated         = "user.updated"
	EventUserPasswordChanged = "user.password_changed"
)

// UserEvent is published after a mutation is durable.
type UserEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newUserEvent(typ, userID string, now time.Time) UserEvent {
	return UserEvent{ID: uuid.NewString(), Type: typ, UserID: userID, OccurredAt: now.UTC()}
}

// EventPublisher is satisfied by helpers.RabbitPublisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// NopPublisher drops every event; used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishJSON(context.Context, any) error { return nil }

// DefaultPublishTimeout bounds a single event publish.
const DefaultPublishTimeout = 2 * time.Second

// DecodeUserEvent parses a queued event and rejects unknown types.
func DecodeUserEvent(body []byte) (UserEvent, error) {
	var ev UserEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return UserEvent{}, fmt.Errorf("decode user event: %w", err)
	}
	switch ev.Type {
	case EventUserCreated, EventUserUpdated, EventUserPasswordChanged:
	default:
		return UserEvent{}, fmt.Errorf("unknown user event type %q", ev.Type)
	}
	if ev.ID == "" || ev.UserID == "" {
		return UserEvent{}, fmt.Errorf("user event is missing id or user_id")
	}
	return ev, nil
}
