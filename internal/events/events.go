// Package events publica las decisiones de moderación para consumidores
// externos (auditoría, invalidación de caché del sitio). La publicación es
// best-effort: un fallo se loguea y nunca cambia el resultado de la decisión.
package events

import (
	"context"
	"time"

	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
)

// TypeDecision es el tipo de evento de una decisión aplicada.
const TypeDecision = "moderation.decision"

// DecisionEvent describe una decisión que Coral aceptó.
type DecisionEvent struct {
	Type       string    `json:"type"`
	Action     string    `json:"action"`
	CommentID  string    `json:"comment_id"`
	RevisionID string    `json:"revision_id"`
	Status     string    `json:"status,omitempty"`
	Domain     string    `json:"coral_domain"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher entrega eventos de decisión.
type Publisher interface {
	PublishDecision(ctx context.Context, ev DecisionEvent) error
}

// LogPublisher escribe el evento como línea estructurada en el logger.
// Es el publisher por defecto cuando no hay broker configurado.
type LogPublisher struct{}

func (LogPublisher) PublishDecision(ctx context.Context, ev DecisionEvent) error {
	logger.From(ctx).Info("moderation event",
		logger.String("event", ev.Type),
		logger.Action(ev.Action),
		logger.CommentID(ev.CommentID),
		logger.RevisionID(ev.RevisionID),
		logger.String("comment_status", ev.Status),
		logger.Domain(ev.Domain),
		logger.Any("occurred_at", ev.OccurredAt),
	)
	return nil
}

// Noop descarta todo.
type Noop struct{}

func (Noop) PublishDecision(context.Context, DecisionEvent) error { return nil }
