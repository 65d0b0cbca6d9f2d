// Package events publishes evaluation summaries to the message broker. Events
// are fire-and-forget notifications; nothing is stored.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promptarena-go-api/internal/observability"
)

// SubjectEvaluationCompleted is the subject evaluation summaries are published on.
const SubjectEvaluationCompleted = "promptarena.evaluations.completed"

// EvaluationCompleted summarises a finished evaluation.
type EvaluationCompleted struct {
	EvaluationID  string    `json:"evaluation_id"`
	ChallengeID   uint      `json:"challenge_id"`
	ModuleType    string    `json:"module_type"`
	FinalScore    float64   `json:"final_score"`
	Tier          string    `json:"tier"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// Publisher hands evaluation events to a broker.
type Publisher interface {
	PublishEvaluation(ctx context.Context, event EvaluationCompleted) error
}

type msgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSPublisher publishes events on a NATS connection.
type NATSPublisher struct {
	conn    msgPublisher
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher wraps an established connection. An empty subject selects
// SubjectEvaluationCompleted.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSPublisher {
	return newNATSPublisher(conn, subject, logger)
}

func newNATSPublisher(conn msgPublisher, subject string, logger zerolog.Logger) *NATSPublisher {
	if subject == "" {
		subject = SubjectEvaluationCompleted
	}
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "nats_publisher").Logger(),
	}
}

// PublishEvaluation serialises the event and publishes it with the evaluation
// id as the message id header.
func (p *NATSPublisher) PublishEvaluation(ctx context.Context, event EvaluationCompleted) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode evaluation event: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, event.EvaluationID)
	if event.CorrelationID != "" {
		msg.Header.Set("X-Correlation-ID", event.CorrelationID)
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		observability.EventsPublished().WithLabelValues(p.subject, "error").Inc()
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}

	observability.EventsPublished().WithLabelValues(p.subject, "ok").Inc()
	p.logger.Debug().
		Str("evaluation_id", event.EvaluationID).
		Uint("challenge_id", event.ChallengeID).
		Msg("evaluation event published")
	return nil
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishEvaluation(context.Context, EvaluationCompleted) error { return nil }
