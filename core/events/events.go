package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// EventImportCompleted is published after an import run reaches done.
	EventImportCompleted = "completed"
	// EventImportFailed is published after an import run is aborted.
	EventImportFailed = "failed"
	// EventGradeRecorded is published after a grade is written through the API.
	EventGradeRecorded = "grade_recorded"
)

// Publisher emits domain events. Publishing is best effort for callers.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
	Close()
}

// Envelope wraps every published payload.
type Envelope struct {
	Event   string    `json:"event"`
	SentAt  time.Time `json:"sentAt"`
	Payload any       `json:"payload"`
}

// Connect returns a NATS publisher, or a no-op publisher when no URL is configured.
func Connect(cfg Config) (Publisher, error) {
	if cfg.NatsURL == "" {
		return NopPublisher{}, nil
	}

	conn, err := nats.Connect(cfg.NatsURL, nats.Name("classroom-sync"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	subject := cfg.Subject
	if subject == "" {
		subject = "classroom.imports"
	}
	return &NatsPublisher{conn: conn, subject: subject}, nil
}

// NatsPublisher publishes JSON envelopes on a NATS connection.
type NatsPublisher struct {
	conn    *nats.Conn
	subject string
}

func (p *NatsPublisher) Publish(ctx context.Context, event string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(event, payload)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject+"."+event, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event, err)
	}
	return nil
}

func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Encode builds the wire form of an event.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(Envelope{Event: event, SentAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	return data, nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func (NopPublisher) Close() {}
