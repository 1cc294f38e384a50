package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feedfinder/pkg/config"
	"feedfinder/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "feedfinder.events"
	EventsQueue    = "feedfinder_events"
)

type EventType string

const (
	PostCreated     EventType = "post_created"
	PostDeleted     EventType = "post_deleted"
	RatingSubmitted EventType = "rating_submitted"
)

// Event is the envelope of every message on the events exchange. The
// routing key is the event type.
type Event struct {
	Type       EventType         `json:"type"`
	ActorID    string            `json:"actor_id"`
	SubjectID  string            `json:"subject_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEvent(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return e, nil
}

// ErrConsumerStopped is reported on Done when deliveries stop without a
// broker error.
var ErrConsumerStopped = errors.New("consumer stopped")

// Publisher is what the usecases depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
	done    chan error
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		EventsExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		EventsQueue, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(EventsQueue, "#", EventsExchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
		done:    make(chan error, 1),
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := event.Encode()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		EventsExchange,     // exchange
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish %s: %v", event.Type, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published %s subject=%s", event.Type, event.SubjectID)
	return nil
}

// Consume hands each event to handler. Undecodable messages are dropped,
// handler failures are requeued.
func (c *Client) Consume(handler func(Event) error) error {
	msgs, err := c.channel.Consume(
		EventsQueue, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	closed := c.conn.NotifyClose(make(chan *amqp.Error, 1))
	go c.serve(msgs, closed, handler)

	return nil
}

// Done receives once the consumer has stopped, with the broker's close
// error when there is one.
func (c *Client) Done() <-chan error {
	return c.done
}

func (c *Client) serve(msgs <-chan amqp.Delivery, closed <-chan *amqp.Error, handler func(Event) error) {
	for msg := range msgs {
		event, err := DecodeEvent(msg.Body)
		if err != nil {
			c.logger.Error("[RABBITMQ] %v, body=%s", err, string(msg.Body))
			msg.Nack(false, false)
			continue
		}
		if err := handler(event); err != nil {
			c.logger.Error("[RABBITMQ] Handler failed for %s: %v", event.Type, err)
			msg.Nack(false, true)
			continue
		}
		msg.Ack(false)
	}

	reason := ErrConsumerStopped
	select {
	case amqpErr, ok := <-closed:
		if ok && amqpErr != nil {
			reason = fmt.Errorf("connection closed: %w", amqpErr)
		}
	case <-time.After(time.Second):
	}
	c.logger.Warn("[RABBITMQ] Consumer stopped: %v", reason)
	c.done <- reason
}

// AsyncPublisher publishes on a goroutine so request handlers never wait
// on the broker. A nil inner publisher drops events.
type AsyncPublisher struct {
	inner   Publisher
	logger  *logger.Logger
	timeout time.Duration
}

func NewAsyncPublisher(inner Publisher, log *logger.Logger) *AsyncPublisher {
	return &AsyncPublisher{inner: inner, logger: log, timeout: 5 * time.Second}
}

func (p *AsyncPublisher) Publish(_ context.Context, event Event) error {
	if p.inner == nil {
		return nil
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.inner.Publish(ctx, event); err != nil {
			p.logger.Warn("Failed to publish %s event: %v", event.Type, err)
		}
	}()
	return nil
}
