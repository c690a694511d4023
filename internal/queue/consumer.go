package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains the event queues and appends one line per event to a
// log file.
type Consumer struct {
    URL     string
    LogPath string
}

// NewConsumer returns a consumer writing to logs/service.log.
func NewConsumer(url string) *Consumer {
    return &Consumer{URL: url, LogPath: filepath.Join("logs", "service.log")}
}

// Run connects to RabbitMQ, declares every event queue (durable) and
// consumes until ctx is cancelled.  Broker failures are retried with
// exponential backoff capped at 30s; a message that cannot be handled is
// rejected without requeue so the loop never spins on it.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Printf("event-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("event-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("event-consumer: set QoS failed: %v", err)
    }

    deliveries := make(chan amqp.Delivery)
    for _, name := range Queues {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", name, err)
        }
        go func(msgs <-chan amqp.Delivery) {
            for d := range msgs {
                select {
                case deliveries <- d:
                case <-ctx.Done():
                    return
                }
            }
        }(msgs)
    }

    closed := conn.NotifyClose(make(chan *amqp.Error, 1))
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case amqpErr := <-closed:
            if amqpErr == nil {
                return errors.New("connection closed")
            }
            return amqpErr
        case d := <-deliveries:
            if err := c.handle(d.Body); err != nil {
                log.Printf("event-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handle(body []byte) error {
    var ev Event
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    return WriteLine(f, ev)
}

// WriteLine renders ev as a single human-readable log line.
func WriteLine(w io.Writer, ev Event) error {
    var line string
    switch ev.Type {
    case TicketCreated:
        line = fmt.Sprintf("[%s] Ticket created | ticket_id=%d | station_id=%d | bike=%q",
            ev.OccurredAt, ev.TicketID, ev.StationID, ev.Plate)
    case TicketClosed:
        line = fmt.Sprintf("[%s] Ticket closed | ticket_id=%d | engineer_id=%d | cost=%.2f | parts=%d",
            ev.OccurredAt, ev.TicketID, ev.EngineerID, ev.Cost, ev.PartRows)
    case WalkinLogged:
        line = fmt.Sprintf("[%s] Walk-in logged | walkin_id=%d | station_id=%d | engineer_id=%d | bike=%q | cost=%.2f | parts=%d",
            ev.OccurredAt, ev.WalkinID, ev.StationID, ev.EngineerID, ev.Plate, ev.Cost, ev.PartRows)
    default:
        return fmt.Errorf("unknown event type %q", ev.Type)
    }
    if _, err := io.WriteString(w, line+" | event_id="+ev.ID+"\n"); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
