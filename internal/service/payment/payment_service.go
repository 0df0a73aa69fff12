package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/Domenick1991/vaxbooking/internal/kafka"
	"github.com/Domenick1991/vaxbooking/internal/metrics"
	"github.com/Domenick1991/vaxbooking/internal/pricing"
	"github.com/Domenick1991/vaxbooking/internal/repository"
	"github.com/google/uuid"
)

// reconcileAttempts bounds the in-process retry when the PaymentConfirmed
// transition loses a version race. Confirmation itself stays retryable
// from the outside, so the budget is deliberately small.
const reconcileAttempts = 3

// idempotencyNamespace seeds the deterministic v5 key derived from the
// order id. Changing it invalidates every outstanding intent key.
var idempotencyNamespace = uuid.MustParse("9f2c1afe-8a14-4f4b-93d7-6f5a3a2b1c0d")

// IdempotencyKey derives the processor idempotency key from the order id
// alone. Same order, same key, always.
func IdempotencyKey(orderID uuid.UUID) string {
	return uuid.NewSHA1(idempotencyNamespace, orderID[:]).String()
}

type PaymentUseCase interface {
	CreateIntent(ctx context.Context, orderID uuid.UUID) (*domain.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, confirmationID string, amount int64) (*domain.Booking, error)
	ExpireIntent(ctx context.Context, orderID uuid.UUID) (*domain.PaymentIntent, error)
	ExpireStaleIntents(ctx context.Context) ([]domain.PaymentIntent, error)
}

type Transitioner interface {
	Transition(ctx context.Context, bookingID uuid.UUID, expectedVersion int64, trigger domain.Trigger, actor domain.Actor) (*domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// ConfirmationCache is an optional fast path for retried processor
// callbacks. The intent row in the store remains the source of truth.
type ConfirmationCache interface {
	SeenConfirmation(ctx context.Context, orderID uuid.UUID, confirmationID string) (bool, error)
	MarkConfirmationSeen(ctx context.Context, orderID uuid.UUID, confirmationID string, ttl time.Duration) error
}

type PaymentService struct {
	orders      repository.OrderRepository
	intents     repository.PaymentIntentRepository
	bookings    repository.BookingRepository
	machine     Transitioner
	producer    Producer
	cache       ConfirmationCache
	eventsTopic string
	intentTTL   time.Duration
	seenTTL     time.Duration
}

type PaymentServiceOption func(*PaymentService)

func WithConfirmationCache(cache ConfirmationCache, seenTTL time.Duration) PaymentServiceOption {
	return func(s *PaymentService) {
		s.cache = cache
		s.seenTTL = seenTTL
	}
}

func NewPaymentService(
	orders repository.OrderRepository,
	intents repository.PaymentIntentRepository,
	bookings repository.BookingRepository,
	machine Transitioner,
	producer Producer,
	eventsTopic string,
	intentTTL time.Duration,
	opts ...PaymentServiceOption,
) *PaymentService {
	service := &PaymentService{
		orders:      orders,
		intents:     intents,
		bookings:    bookings,
		machine:     machine,
		producer:    producer,
		eventsTopic: eventsTopic,
		intentTTL:   intentTTL,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateIntent prices the order and persists a CREATED intent for the
// external processor. Intents attach to PENDING bookings only; re-issuing
// for the same order hands back the intent already outstanding instead of
// minting a second one.
func (s *PaymentService) CreateIntent(ctx context.Context, orderID uuid.UUID) (*domain.PaymentIntent, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, order.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking %s is %s, intents attach to PENDING bookings only", domain.ErrInvalidTransition, booking.ID, booking.Status)
	}

	existing, err := s.intents.GetByOrderID(ctx, orderID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case domain.IntentStatusCreated:
			return existing, nil
		case domain.IntentStatusConfirmed:
			return nil, fmt.Errorf("%w: order %s is already paid", domain.ErrInvalidTransition, orderID)
		}
	}

	intent := &domain.PaymentIntent{
		ID:             uuid.New(),
		OrderID:        orderID,
		Amount:         pricing.ComputeTotal(order),
		IdempotencyKey: IdempotencyKey(orderID),
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.BookingEvent{
		Type:       kafka.EventPaymentIntentCreated,
		BookingID:  order.BookingID.String(),
		OrderID:    orderID.String(),
		Amount:     intent.Amount,
		OccurredAt: time.Now().UTC(),
	})
	return intent, nil
}

// ConfirmPayment applies a processor confirmation exactly once. The
// booking id always comes from the order row; it is never inferred from
// the order id. Safe to retry indefinitely.
func (s *PaymentService) ConfirmPayment(ctx context.Context, orderID uuid.UUID, confirmationID string, amount int64) (*domain.Booking, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if seen, err := s.cache.SeenConfirmation(ctx, orderID, confirmationID); err == nil && seen {
			return s.bookings.GetByID(ctx, order.BookingID)
		}
	}

	intent, err := s.intents.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if intent.Status == domain.IntentStatusConfirmed {
		// Retried confirmation: hand back the booking unchanged.
		return s.bookings.GetByID(ctx, order.BookingID)
	}
	if amount != intent.Amount {
		return nil, fmt.Errorf("%w: got %d, intent holds %d", domain.ErrAmountMismatch, amount, intent.Amount)
	}

	if _, err := s.intents.MarkConfirmed(ctx, orderID, confirmationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost the race to a concurrent confirmation, or the intent is no
			// longer CREATED. Re-read and decide.
			current, rerr := s.intents.GetByOrderID(ctx, orderID)
			if rerr != nil {
				return nil, rerr
			}
			if current.Status == domain.IntentStatusConfirmed {
				return s.bookings.GetByID(ctx, order.BookingID)
			}
			return nil, fmt.Errorf("%w: intent for order %s is %s", domain.ErrInvalidTransition, orderID, current.Status)
		}
		return nil, err
	}

	booking, err := s.applyConfirmedPayment(ctx, order)
	if err != nil {
		return nil, err
	}

	metrics.PaymentConfirmationsTotal.Inc()
	if s.cache != nil {
		if err := s.cache.MarkConfirmationSeen(ctx, orderID, confirmationID, s.seenTTL); err != nil {
			log.Printf("WARNING: failed to mark confirmation seen for order %s: %v", orderID, err)
		}
	}
	s.publish(ctx, kafka.BookingEvent{
		Type:       kafka.EventPaymentConfirmed,
		BookingID:  booking.ID.String(),
		OrderID:    orderID.String(),
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	})
	return booking, nil
}

// applyConfirmedPayment drives the PaymentConfirmed transition, re-reading
// the version and retrying on StaleVersion. The payment is already
// CONFIRMED here, so both exhausting the budget and finding the booking
// cancelled are surfaced loudly rather than swallowed.
func (s *PaymentService) applyConfirmedPayment(ctx context.Context, order *domain.Order) (*domain.Booking, error) {
	var lastErr error
	for attempt := 0; attempt < reconcileAttempts; attempt++ {
		booking, err := s.bookings.GetByID(ctx, order.BookingID)
		if err != nil {
			return nil, err
		}
		if booking.Status == domain.BookingStatusCancelled {
			// Confirmed money on a cancelled booking: flag it for manual
			// reconciliation, never report success.
			return nil, s.failReconciliation(ctx, order, fmt.Errorf("booking %s is cancelled with a confirmed payment", booking.ID))
		}
		if booking.Status != domain.BookingStatusPending {
			// PAID or further along: a concurrent writer already applied the
			// payment, nothing left to do.
			return booking, nil
		}

		updated, err := s.machine.Transition(ctx, booking.ID, booking.Version, domain.TriggerPaymentConfirmed, domain.SystemActor)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domain.ErrStaleVersion) {
			return nil, err
		}
		lastErr = err
	}

	return nil, s.failReconciliation(ctx, order, fmt.Errorf("booking %s after %d attempts: %v", order.BookingID, reconcileAttempts, lastErr))
}

func (s *PaymentService) failReconciliation(ctx context.Context, order *domain.Order, cause error) error {
	metrics.ReconciliationFailuresTotal.Inc()
	s.publish(ctx, kafka.BookingEvent{
		Type:       kafka.EventReconciliationFailed,
		BookingID:  order.BookingID.String(),
		OrderID:    order.ID.String(),
		OccurredAt: time.Now().UTC(),
	})
	return fmt.Errorf("%w: %v", domain.ErrReconciliationFailed, cause)
}

// ExpireIntent is the hook the reconciliation sweep calls for intents the
// processor never confirmed. CONFIRMED intents are never expired.
func (s *PaymentService) ExpireIntent(ctx context.Context, orderID uuid.UUID) (*domain.PaymentIntent, error) {
	intent, err := s.intents.MarkExpired(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			current, rerr := s.intents.GetByOrderID(ctx, orderID)
			if rerr != nil {
				return nil, rerr
			}
			return nil, fmt.Errorf("%w: intent for order %s is %s", domain.ErrInvalidTransition, orderID, current.Status)
		}
		return nil, err
	}
	metrics.IntentsExpiredTotal.Inc()
	return intent, nil
}

func (s *PaymentService) ExpireStaleIntents(ctx context.Context) ([]domain.PaymentIntent, error) {
	deadline := time.Now().Add(-s.intentTTL)
	expired, err := s.intents.ExpireCreatedBefore(ctx, deadline)
	if err != nil {
		return nil, err
	}
	metrics.IntentsExpiredTotal.Add(float64(len(expired)))
	return expired, nil
}

func (s *PaymentService) publish(ctx context.Context, event kafka.BookingEvent) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, event.BookingID, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for order %s: %v", event.Type, event.OrderID, err)
	}
}

var _ PaymentUseCase = (*PaymentService)(nil)
