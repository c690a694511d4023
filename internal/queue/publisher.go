package queue

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to RabbitMQ.  It dials per publish so a broker
// outage never leaves a stale connection behind; errors are logged and
// returned so the caller can choose to ignore them.
type Publisher struct {
    URL string
}

// NewPublisher returns a publisher for url.
func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// Publish declares the durable queue named after ev.Type and publishes ev
// as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(ev.Type, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: queue declare %s failed: %v", ev.Type, err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.ID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", ev.Type, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish %s failed: %v", ev.Type, err)
        return err
    }
    return nil
}

// Discard drops every event.  It stands in for the broker when publishing
// is disabled.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
