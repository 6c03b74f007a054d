// Package moderation lee las colas de moderación de Coral y aplica decisiones
// approve/reject. No guarda estado: Coral es la fuente de verdad de cada
// transición, incluida la concurrencia optimista por revisión.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/coralbridge/internal/coral"
	"github.com/dropDatabas3/coralbridge/internal/events"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

// UnavailableMessage es el mensaje fijo cuando no hubo respuesta de Coral.
const UnavailableMessage = "Could not reach Coral — check domain and API token"

var (
	ErrUnknownAction = errors.New("moderation: unknown action")
	ErrMissingIDs    = errors.New("moderation: comment id and revision id are required")

	// ErrDecisionUnavailable envuelve la causa (ErrNotConfigured o ErrTransport).
	ErrDecisionUnavailable = errors.New(UnavailableMessage)
)

// Action es approve o reject.
type Action string

const (
	Approve Action = "approve"
	Reject  Action = "reject"
)

// ParseAction acepta "approve"/"reject" sin importar mayúsculas.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case Approve:
		return Approve, nil
	case Reject:
		return Reject, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// GraphQL es lo que el coordinador necesita del cliente de Coral.
type GraphQL interface {
	Call(ctx context.Context, ep coral.Endpoint, op coral.Operation) (*coral.Response, error)
}

// Recorder cuenta decisiones (métricas).
type Recorder interface {
	ObserveDecision(action, result string)
}

// Queue es una cola con su conteo total y una página de comentarios.
type Queue struct {
	Count int             `json:"count"`
	Items []coral.Comment `json:"items"`
}

// Queues son las dos colas que se muestran al admin.
type Queues struct {
	Unmoderated Queue `json:"unmoderated"`
	Reported    Queue `json:"reported"`
}

// Decision es una acción sobre una revisión concreta de un comentario.
type Decision struct {
	Action     Action
	CommentID  string
	RevisionID string
}

// Outcome es el resultado de una decisión aceptada por Coral.
type Outcome struct {
	Action    Action `json:"action"`
	CommentID string `json:"comment_id"`
	Status    string `json:"status,omitempty"`
}

// Coordinator orquesta lecturas de colas y decisiones.
type Coordinator struct {
	gql       GraphQL
	publisher events.Publisher
	recorder  Recorder
	now       func() time.Time
}

type Option func(*Coordinator)

// WithPublisher publica un evento por cada decisión aceptada.
func WithPublisher(p events.Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(gql GraphQL, opts ...Option) *Coordinator {
	c := &Coordinator{gql: gql, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

type queuesData struct {
	ModerationQueues *struct {
		Unmoderated *queueNode `json:"unmoderated"`
		Reported    *queueNode `json:"reported"`
	} `json:"moderationQueues"`
}

type queueNode struct {
	Count    int `json:"count"`
	Comments *struct {
		Nodes []coral.Comment `json:"nodes"`
	} `json:"comments"`
}

func (n *queueNode) queue() Queue {
	q := Queue{Items: []coral.Comment{}}
	if n == nil {
		return q
	}
	q.Count = n.Count
	if n.Comments != nil && n.Comments.Nodes != nil {
		q.Items = n.Comments.Nodes
	}
	return q
}

// FetchQueues trae unmoderated y reported en una sola consulta.
// Sin respuesta devuelve el error del cliente sin datos parciales.
func (c *Coordinator) FetchQueues(ctx context.Context, s settings.Settings) (Queues, error) {
	first := s.QueuePageSize
	if first <= 0 {
		first = settings.DefaultQueuePageSize
	}
	op := coral.Operation{
		Name:      "moderationQueues",
		Query:     coral.ModerationQueuesQuery,
		Variables: map[string]any{"first": first},
	}
	resp, err := c.gql.Call(ctx, coral.EndpointFrom(s), op)
	if err != nil {
		return Queues{}, err
	}
	if resp == nil {
		return Queues{}, &coral.TransportError{Op: op.Name, Err: errors.New("empty response")}
	}
	if resp.HasErrors() {
		return Queues{}, coral.NewRemoteError(op.Name, resp.FirstError())
	}

	var data queuesData
	if err := resp.Decode(&data); err != nil {
		return Queues{}, &coral.TransportError{Op: op.Name, Err: err}
	}
	if data.ModerationQueues == nil {
		var none *queueNode
		return Queues{Unmoderated: none.queue(), Reported: none.queue()}, nil
	}
	return Queues{
		Unmoderated: data.ModerationQueues.Unmoderated.queue(),
		Reported:    data.ModerationQueues.Reported.queue(),
	}, nil
}

type decisionData struct {
	ApproveComment *mutationResult `json:"approveComment"`
	RejectComment  *mutationResult `json:"rejectComment"`
}

type mutationResult struct {
	Comment *struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"comment"`
}

// Decide aplica approve/reject sobre (comentario, revisión). Un solo intento.
// Una revisión desactualizada vuelve como *coral.RemoteError con el mensaje de Coral.
func (c *Coordinator) Decide(ctx context.Context, s settings.Settings, d Decision) (Outcome, error) {
	log := logger.From(ctx).With(logger.Component("moderation"), logger.Action(string(d.Action)), logger.CommentID(d.CommentID))

	var (
		name  string
		query string
	)
	switch d.Action {
	case Approve:
		name, query = "approveComment", coral.ApproveCommentMutation
	case Reject:
		name, query = "rejectComment", coral.RejectCommentMutation
	default:
		c.record(string(d.Action), "invalid")
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, d.Action)
	}
	if strings.TrimSpace(d.CommentID) == "" || strings.TrimSpace(d.RevisionID) == "" {
		c.record(string(d.Action), "invalid")
		return Outcome{}, ErrMissingIDs
	}

	resp, err := c.gql.Call(ctx, coral.EndpointFrom(s), coral.Operation{
		Name:  name,
		Query: query,
		Variables: map[string]any{
			"commentID":         d.CommentID,
			"commentRevisionID": d.RevisionID,
		},
	})
	if err != nil || resp == nil {
		if err == nil {
			err = errors.New("empty response")
		}
		c.record(string(d.Action), "unavailable")
		log.Warn("moderation decision failed", logger.Err(err))
		return Outcome{}, fmt.Errorf("%w: %w", ErrDecisionUnavailable, err)
	}
	if resp.HasErrors() {
		c.record(string(d.Action), "rejected")
		rerr := coral.NewRemoteError(name, resp.FirstError())
		log.Info("moderation decision rejected by coral", logger.String("reason", rerr.Message))
		return Outcome{}, rerr
	}

	out := Outcome{Action: d.Action, CommentID: d.CommentID}
	var data decisionData
	if err := resp.Decode(&data); err == nil {
		res := data.ApproveComment
		if d.Action == Reject {
			res = data.RejectComment
		}
		if res != nil && res.Comment != nil {
			out.Status = res.Comment.Status
		}
	}
	c.record(string(d.Action), "ok")
	log.Info("moderation decision applied", logger.RevisionID(d.RevisionID), logger.String("comment_status", out.Status))

	c.publish(ctx, s, d, out)
	return out, nil
}

func (c *Coordinator) publish(ctx context.Context, s settings.Settings, d Decision, out Outcome) {
	if c.publisher == nil {
		return
	}
	ev := events.DecisionEvent{
		Type:       events.TypeDecision,
		Action:     string(d.Action),
		CommentID:  d.CommentID,
		RevisionID: d.RevisionID,
		Status:     out.Status,
		Domain:     s.Domain,
		OccurredAt: c.now().UTC(),
	}
	if err := c.publisher.PublishDecision(ctx, ev); err != nil {
		logger.From(ctx).Warn("moderation event publish failed", logger.Err(err), logger.CommentID(d.CommentID))
		if f, ok := c.recorder.(interface{ PublishFailed() }); ok {
			f.PublishFailed()
		}
	}
}

func (c *Coordinator) record(action, result string) {
	if c.recorder != nil {
		c.recorder.ObserveDecision(action, result)
	}
}
