package email

import (
	"context"
	"log"

	"github.com/Domenick1991/vaxbooking/internal/kafka"
)

// Sender turns lifecycle events into guardian notifications. The delivery
// channel is a log line for now; the worker owns the wiring.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	log.Printf("notify guardian of booking %s: %s (%s -> %s)", event.BookingID, event.Type, event.From, event.To)
	return nil
}
