package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/corvusHold/seclink/internal/events/domain"
)

// Logger is a Publisher that writes audit events to a zerolog logger.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(l zerolog.Logger) *Logger { return &Logger{log: l} }

func (l *Logger) Publish(ctx context.Context, e domain.Event) error {
	l.log.Info().
		Str("type", e.Type).
		Str("username", e.Username).
		Str("source", e.Source).
		Bool("legacy", e.Legacy).
		Fields(map[string]any{"meta": e.Meta}).
		Time("ts", e.Time).
		Msg("event")
	return nil
}
