package client

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NotificationPublisher publishes plan-approval lifecycle events to NATS
// for consumption by the notifications service.
//
// Subject convention: notifications.plans.<event_type>
// Event types: draft_submitted, approval_required, draft_approved,
//              draft_rejected, conflict_detected, draft_resubmitted
//
// All publish operations are non-fatal — errors are logged but never
// propagated, so notification failures never interrupt approval flow.
type NotificationPublisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// NotificationEvent is the JSON schema published to NATS.
type NotificationEvent struct {
	EventType string         `json:"event_type"`
	DraftID   string         `json:"draft_id"`
	ActorID   string         `json:"actor_id"`
	Severity  string         `json:"severity,omitempty"`
	Category  string         `json:"category,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewNotificationPublisher creates a publisher backed by the given NATS
// connection. A nil connection disables publishing.
func NewNotificationPublisher(conn *nats.Conn, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{conn: conn, log: log}
}

// PublishDraftEvent publishes a plan-approval event.
// Subject: notifications.plans.<eventType>
func (p *NotificationPublisher) PublishDraftEvent(eventType, draftID, actorID string, payload map[string]any) {
	if p == nil || p.conn == nil {
		return
	}

	event := &NotificationEvent{
		EventType: eventType,
		DraftID:   draftID,
		ActorID:   actorID,
		Severity:  "info",
		Category:  "plan_approval",
		Payload:   payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("notification: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("notifications.plans.%s", eventType)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("draft_id", draftID).
			Msg("notification: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("draft_id", draftID).
		Msg("notification: event published")
}
