package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeRoomMessage     EventType = "room.message"
	EventTypeRoomDescUpdated EventType = "room.desc_updated"
	EventTypeObjectCreated   EventType = "object.created"
	EventTypeObjectDestroyed EventType = "object.destroyed"
	EventTypeObjectEdited    EventType = "object.edited"
	EventTypeIntentSuggested EventType = "intent.suggested"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	RoomDbref string         `json:"room_dbref,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes room events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel returns the pub/sub channel name for a room.
func Channel(roomDbref string) string {
	return fmt.Sprintf("room-events:%s", roomDbref)
}

// PublishRoomMessage publishes a room.message event (broadcast or tell text)
func (b *Broadcaster) PublishRoomMessage(ctx context.Context, roomDbref string, message string) error {
	event := Event{
		Type:      EventTypeRoomMessage,
		RoomDbref: roomDbref,
		Data: map[string]any{
			"message": message,
		},
	}
	return b.publishToRoom(ctx, roomDbref, event)
}

// PublishRoomDescUpdated publishes a room.desc_updated event
func (b *Broadcaster) PublishRoomDescUpdated(ctx context.Context, roomDbref string, desc string) error {
	event := Event{
		Type:      EventTypeRoomDescUpdated,
		RoomDbref: roomDbref,
		Data: map[string]any{
			"desc": desc,
		},
	}
	return b.publishToRoom(ctx, roomDbref, event)
}

// PublishObjectCreated publishes an object.created event
func (b *Broadcaster) PublishObjectCreated(ctx context.Context, roomDbref string, objectDbref string, key string) error {
	event := Event{
		Type:      EventTypeObjectCreated,
		RoomDbref: roomDbref,
		Data: map[string]any{
			"dbref": objectDbref,
			"key":   key,
		},
	}
	return b.publishToRoom(ctx, roomDbref, event)
}

// PublishObjectDestroyed publishes an object.destroyed event
func (b *Broadcaster) PublishObjectDestroyed(ctx context.Context, roomDbref string, objectDbref string, key string) error {
	event := Event{
		Type:      EventTypeObjectDestroyed,
		RoomDbref: roomDbref,
		Data: map[string]any{
			"dbref": objectDbref,
			"key":   key,
		},
	}
	return b.publishToRoom(ctx, roomDbref, event)
}

// PublishObjectEdited publishes an object.edited event
func (b *Broadcaster) PublishObjectEdited(ctx context.Context, roomDbref string, objectDbref string, fields []string) error {
	event := Event{
		Type:      EventTypeObjectEdited,
		RoomDbref: roomDbref,
		Data: map[string]any{
			"dbref":  objectDbref,
			"fields": fields,
		},
	}
	return b.publishToRoom(ctx, roomDbref, event)
}

// PublishIntentSuggested publishes an intent.suggested event
func (b *Broadcaster) PublishIntentSuggested(ctx context.Context, roomDbref string, intent string, command string) error {
	event := Event{
		Type:      EventTypeIntentSuggested,
		RoomDbref: roomDbref,
		Data: map[string]any{
			"intent":  intent,
			"command": command,
		},
	}
	return b.publishToRoom(ctx, roomDbref, event)
}

// publishToRoom publishes an event to the room-specific channel
func (b *Broadcaster) publishToRoom(ctx context.Context, roomDbref string, event Event) error {
	channel := Channel(roomDbref)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}
