// Package events publishes student change notifications over NATS. The
// producer is optional: when NATS is unreachable at startup the service runs
// without it and mutations simply go unannounced.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	StudentCreated = "student.created"
	StudentUpdated = "student.updated"
	StudentDeleted = "student.deleted"
)

type StudentEvent struct {
	Type       string    `json:"type"`
	StudentID  int       `json:"studentId"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Producer struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewProducer(url string, subject string, logger *slog.Logger) (*Producer, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}

	logger.Info("NATS producer initialized", "url", url, "subject", subject)

	return &Producer{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

// Publish sends the event, best-effort. A nil producer is a no-op so callers
// never have to branch on whether NATS was configured.
func (p *Producer) Publish(eventType string, studentID int, email string) {
	if p == nil {
		return
	}

	event := StudentEvent{
		Type:       eventType,
		StudentID:  studentID,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", "type", eventType, "error", err)
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Error("failed to publish event", "type", eventType, "error", err)
		return
	}

	p.logger.Debug("event published", "type", eventType, "student_id", studentID)
}

func (p *Producer) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
