package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"studytrack/internal/events"
	"studytrack/internal/models"
)

// Message types pushed to clients.
const (
	TypeSessionFinished = "session_finished"
	TypeSessionsChanged = "sessions_changed"
	TypeTimerState      = "timer_state"
)

// Notifier forwards bus events to the user's redis channel, where every
// server instance's hub picks them up.
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) HandleEvent(e events.Event) error {
	msg, ok := MessageFor(e)
	if !ok {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return n.client.Publish(ctx, UserChannel(e.UserID), data).Err()
}

// MessageFor maps an event to the message clients receive.
func MessageFor(e events.Event) (models.WSMessage, bool) {
	switch e.Kind {
	case events.SessionFinished:
		return models.WSMessage{Type: TypeSessionFinished, Payload: e.Payload}, true
	case events.TimerChanged:
		return models.WSMessage{Type: TypeTimerState, Payload: e.Payload}, true
	case events.SessionCreated, events.SessionUpdated, events.SessionDeleted:
		return models.WSMessage{
			Type: TypeSessionsChanged,
			Payload: map[string]interface{}{
				"kind":       e.Kind,
				"session_id": e.SessionID,
			},
		}, true
	}
	return models.WSMessage{}, false
}
