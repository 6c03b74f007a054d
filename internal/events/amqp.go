package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue es la cola durable de decisiones.
const DefaultQueue = "coral.moderation.decisions"

// PublishTimeout acota dial + declare + publish. El evento se manda dentro
// del request de moderación; un broker caído no puede colgarlo.
const PublishTimeout = 3 * time.Second

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func(ctx context.Context, url string) (amqpChannel, io.Closer, error)

// AMQPPublisher publica en RabbitMQ. Abre conexión y canal por evento:
// las decisiones son pocas y así no hay estado de conexión que mantener.
type AMQPPublisher struct {
	url   string
	queue string
	dial  dialFunc
	now   func() time.Time
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{url: url, queue: queue, dial: dialAMQP, now: time.Now}
}

// dialAMQP conecta respetando ctx. El deadline del socket cubre también el
// handshake AMQP; amqp091 lo limpia cuando la conexión queda abierta.
func dialAMQP(ctx context.Context, url string) (amqpChannel, io.Closer, error) {
	cfg := amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: PublishTimeout}
			c, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			deadline := time.Now().Add(PublishTimeout)
			if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
				deadline = dl
			}
			if err := c.SetDeadline(deadline); err != nil {
				_ = c.Close()
				return nil, err
			}
			return c, nil
		},
	}
	conn, err := amqp.DialConfig(url, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	return ch, conn, nil
}

func (p *AMQPPublisher) PublishDecision(ctx context.Context, ev DecisionEvent) error {
	if ev.Type == "" {
		ev.Type = TypeDecision
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = p.now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	ch, conn, err := p.dial(ctx, p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	defer func() { _ = ch.Close() }()

	// idempotente; durable para sobrevivir reinicios del broker
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: queue declare: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}
