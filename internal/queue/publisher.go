package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Publisher sends OrderEvents to a durable queue on the default exchange.
// A connection is dialled per publish; order mutations are rare enough
// that a long-lived channel is not worth its reconnect handling.
type Publisher struct {
    url         string
    queue       string
    dialTimeout time.Duration
    log         *zap.Logger
}

func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
    return &Publisher{url: url, queue: queue, dialTimeout: 2 * time.Second, log: log.Named("publisher")}
}

// Publish declares the queue (idempotent) and publishes ev as a persistent
// JSON message.  Errors are logged and returned so the caller may ignore
// them.
func (p *Publisher) Publish(ctx context.Context, ev OrderEvent) error {
    log := p.log.With(zap.String("event", ev.Type), zap.String("order_id", ev.OrderID))

    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
    if err != nil {
        log.Warn("rabbitmq dial failed", zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Warn("rabbitmq channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        log.Warn("rabbitmq queue declare failed", zap.Error(err))
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
        log.Warn("rabbitmq publish failed", zap.Error(err))
        return err
    }
    log.Debug("event published")
    return nil
}

// Discard drops every event.  It stands in for Publisher when events are
// disabled.
type Discard struct{}

func (Discard) Publish(context.Context, OrderEvent) error { return nil }
