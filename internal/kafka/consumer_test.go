package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

type fakeReader struct {
	messages []kafkago.Message
	closed   bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.messages) == 0 {
		return kafkago.Message{}, io.EOF
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func encode(t *testing.T, event BookingEvent) []byte {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	return payload
}

func TestConsume_DecodesAndDispatchesEvents(t *testing.T) {
	first := BookingEvent{Type: EventBookingCreated, BookingID: "b-1", OccurredAt: time.Now().UTC()}
	second := BookingEvent{Type: EventPaymentConfirmed, BookingID: "b-1", OrderID: "o-1", Amount: 1240000}

	consumer := &Consumer{reader: &fakeReader{messages: []kafkago.Message{
		{Value: encode(t, first)},
		{Value: encode(t, second)},
	}}}

	var seen []BookingEvent
	err := consumer.Consume(context.Background(), func(ctx context.Context, event BookingEvent) error {
		seen = append(seen, event)
		return nil
	})

	assert.ErrorIs(t, err, io.EOF)
	if assert.Len(t, seen, 2) {
		assert.Equal(t, EventBookingCreated, seen[0].Type)
		assert.Equal(t, int64(1240000), seen[1].Amount)
	}
}

func TestConsume_SkipsUndecodablePayload(t *testing.T) {
	good := BookingEvent{Type: EventBookingTransitioned, BookingID: "b-2", From: "PENDING", To: "PAID"}

	consumer := &Consumer{reader: &fakeReader{messages: []kafkago.Message{
		{Value: []byte("{not json")},
		{Value: encode(t, good)},
	}}}

	var seen []BookingEvent
	err := consumer.Consume(context.Background(), func(ctx context.Context, event BookingEvent) error {
		seen = append(seen, event)
		return nil
	})

	assert.ErrorIs(t, err, io.EOF)
	if assert.Len(t, seen, 1) {
		assert.Equal(t, "PAID", seen[0].To)
	}
}

func TestConsume_StopsOnHandlerError(t *testing.T) {
	handlerErr := errors.New("smtp down")

	consumer := &Consumer{reader: &fakeReader{messages: []kafkago.Message{
		{Value: encode(t, BookingEvent{Type: EventBookingCreated, BookingID: "b-3"})},
		{Value: encode(t, BookingEvent{Type: EventPaymentConfirmed, BookingID: "b-3"})},
	}}}

	calls := 0
	err := consumer.Consume(context.Background(), func(ctx context.Context, event BookingEvent) error {
		calls++
		return handlerErr
	})

	assert.ErrorIs(t, err, handlerErr)
	assert.Equal(t, 1, calls)
}

func TestClose_NilSafe(t *testing.T) {
	var consumer *Consumer
	assert.NoError(t, consumer.Close())

	reader := &fakeReader{}
	consumer = &Consumer{reader: reader}
	assert.NoError(t, consumer.Close())
	assert.True(t, reader.closed)
}
