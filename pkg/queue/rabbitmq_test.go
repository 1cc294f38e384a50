package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"feedfinder/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	close(r.done)
	return r.err
}

func TestEventRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	body, err := Event{Type: RatingSubmitted, ActorID: "u1", SubjectID: "bob@example.com",
		Attributes: map[string]string{"rating": "4"}, OccurredAt: at}.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"type":"rating_submitted"`)

	event, err := DecodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "4", event.Attributes["rating"])
	assert.True(t, at.Equal(event.OccurredAt))

	_, err = DecodeEvent([]byte("{"))
	assert.Error(t, err)
}

func TestAsyncPublisher(t *testing.T) {
	inner := &recordingPublisher{done: make(chan struct{}), err: errors.New("broker down")}
	p := NewAsyncPublisher(inner, logger.Discard())

	require.NoError(t, p.Publish(context.Background(), Event{Type: PostCreated, SubjectID: "p1"}))

	select {
	case <-inner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published")
	}
	inner.mu.Lock()
	defer inner.mu.Unlock()
	require.Len(t, inner.events, 1)
	assert.Equal(t, "p1", inner.events[0].SubjectID)
}

func TestAsyncPublisher_NilInner(t *testing.T) {
	p := NewAsyncPublisher(nil, logger.Discard())
	assert.NoError(t, p.Publish(context.Background(), Event{Type: PostDeleted}))
}

type recordingAcker struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *recordingAcker) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *recordingAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *recordingAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(acker amqp.Acknowledger, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: acker, DeliveryTag: tag, Body: []byte(body)}
}

func TestServe_AcksAndStopsOnConnectionLoss(t *testing.T) {
	c := &Client{logger: logger.Discard(), done: make(chan error, 1)}
	acker := &recordingAcker{}

	msgs := make(chan amqp.Delivery, 3)
	msgs <- delivery(acker, 1, `{"type":"post_created","subject_id":"p1"}`)
	msgs <- delivery(acker, 2, `{`)
	msgs <- delivery(acker, 3, `{"type":"post_deleted","subject_id":"p2"}`)
	close(msgs)

	closed := make(chan *amqp.Error, 1)
	closed <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "broker restarting"}

	var handled []string
	c.serve(msgs, closed, func(e Event) error {
		handled = append(handled, e.SubjectID)
		if e.Type == PostDeleted {
			return errors.New("redis down")
		}
		return nil
	})

	assert.Equal(t, []string{"p1", "p2"}, handled)
	assert.Equal(t, []uint64{1}, acker.acked)
	assert.Equal(t, []uint64{2, 3}, acker.nacked)
	assert.Equal(t, []bool{false, true}, acker.requeue)

	select {
	case err := <-c.Done():
		var amqpErr *amqp.Error
		require.ErrorAs(t, err, &amqpErr)
		assert.Equal(t, "broker restarting", amqpErr.Reason)
	default:
		t.Fatal("consumer did not report that it stopped")
	}
}

func TestServe_StopsWithoutBrokerError(t *testing.T) {
	c := &Client{logger: logger.Discard(), done: make(chan error, 1)}
	msgs := make(chan amqp.Delivery)
	close(msgs)
	closed := make(chan *amqp.Error)
	close(closed)

	c.serve(msgs, closed, func(Event) error { return nil })

	assert.ErrorIs(t, <-c.Done(), ErrConsumerStopped)
}
