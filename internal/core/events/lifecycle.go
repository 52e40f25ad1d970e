package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	TopicEventCompleted       = "event.completed"
	TopicEventPostponed       = "event.postponed"
	TopicEventRejected        = "event.rejected"
	TopicEventFollowUpCreated = "event.follow_up_created"
)

// LifecycleTopics lists every topic the lifecycle service publishes.
func LifecycleTopics() []string {
	return []string{TopicEventCompleted, TopicEventPostponed, TopicEventRejected, TopicEventFollowUpCreated}
}

// LifecycleMessage reports one applied transition.
type LifecycleMessage struct {
	BaseMessage
	EventID  int64 `json:"event_id"`
	ActorID  int64 `json:"actor_id"`
	ResultID int64 `json:"result_id,omitempty"`
}

// NewLifecycleMessage builds a message for topic. resultID is the id of a
// derived event (follow-ups) and zero otherwise.
func NewLifecycleMessage(topic string, eventID, actorID, resultID int64) *LifecycleMessage {
	data := map[string]interface{}{
		"event_id": eventID,
		"actor_id": actorID,
	}
	if resultID != 0 {
		data["result_id"] = resultID
	}
	return &LifecycleMessage{
		BaseMessage: BaseMessage{
			ID:        uuid.New().String(),
			Type:      topic,
			Timestamp: time.Now(),
			Data:      data,
		},
		EventID:  eventID,
		ActorID:  actorID,
		ResultID: resultID,
	}
}

// AuditLogger returns a handler that records lifecycle messages in the log.
func AuditLogger(logger *slog.Logger) Handler {
	return func(ctx context.Context, msg Message) error {
		logger.InfoContext(ctx, "event lifecycle transition",
			"topic", msg.Topic(),
			"message_id", msg.MessageID(),
			"payload", msg.Payload())
		return nil
	}
}
