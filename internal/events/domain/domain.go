package domain

import (
	"context"
	"time"
)

// Event is an audit record of an observed security event.
// Type examples: "auth.login.success", "auth.authentication.failed"
// Meta may contain reason, cause, authorities, etc.
type Event struct {
	Type     string
	Username string
	Source   string
	Legacy   bool
	Meta     map[string]string
	Time     time.Time
}

// Publisher publishes audit events to an external system (log, queue, etc.).
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
