package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/catalog"
	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/Domenick1991/vaxbooking/internal/kafka"
	"github.com/Domenick1991/vaxbooking/internal/pricing"
	"github.com/Domenick1991/vaxbooking/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingDetail, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDetail, error)
	CheckIn(ctx context.Context, bookingID uuid.UUID, expectedVersion int64, actor domain.Actor) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, expectedVersion int64, actor domain.Actor) (*domain.Booking, error)
}

// Transitioner is the state machine surface the services depend on.
type Transitioner interface {
	Transition(ctx context.Context, bookingID uuid.UUID, expectedVersion int64, trigger domain.Trigger, actor domain.Actor) (*domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type ItemSelection struct {
	Kind     domain.LineItemKind `json:"kind"`
	RefID    uuid.UUID           `json:"ref_id"`
	Quantity int                 `json:"quantity"`
}

type CreateBookingInput struct {
	ChildID         uuid.UUID       `json:"child_id"`
	AppointmentDate time.Time       `json:"appointment_date"`
	AppointmentTime string          `json:"appointment_time"`
	Items           []ItemSelection `json:"items"`
}

type BookingDetail struct {
	Booking *domain.Booking
	Order   *domain.Order
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

type BookingService struct {
	bookings           repository.BookingRepository
	orders             repository.OrderRepository
	catalog            catalog.Provider
	machine            Transitioner
	producer           Producer
	eventsTopic        string
	notificationsTopic string
}

func NewBookingService(
	bookings repository.BookingRepository,
	orders repository.OrderRepository,
	cat catalog.Provider,
	machine Transitioner,
	producer Producer,
	eventsTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:    bookings,
		orders:      orders,
		catalog:     cat,
		machine:     machine,
		producer:    producer,
		eventsTopic: eventsTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking creates the booking in PENDING together with its order.
// Prices are snapshotted from the catalog so the order totals the same
// amount for the rest of its life.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingDetail, error) {
	if input.ChildID == uuid.Nil {
		return nil, errors.New("child id is required")
	}
	if len(input.Items) == 0 {
		return nil, errors.New("at least one vaccine or combo is required")
	}
	for _, sel := range input.Items {
		if sel.Quantity <= 0 {
			return nil, errors.New("quantity must be positive")
		}
	}

	booking := &domain.Booking{
		ID:              uuid.New(),
		ChildID:         input.ChildID,
		AppointmentDate: input.AppointmentDate,
		AppointmentTime: input.AppointmentTime,
	}

	order := &domain.Order{
		ID:        uuid.New(),
		BookingID: booking.ID,
	}
	for _, sel := range input.Items {
		item, err := s.catalog.GetItem(ctx, sel.Kind, sel.RefID)
		if err != nil {
			return nil, fmt.Errorf("resolve catalog item %s: %w", sel.RefID, err)
		}
		if !item.Available {
			return nil, fmt.Errorf("catalog item %s is not available", sel.RefID)
		}
		order.LineItems = append(order.LineItems, domain.LineItem{
			ID:        uuid.New(),
			Kind:      sel.Kind,
			RefID:     sel.RefID,
			Name:      item.Name,
			Quantity:  sel.Quantity,
			UnitPrice: item.Price,
			SaleOff:   item.SaleOff,
		})
	}
	order.Total = pricing.ComputeTotal(order)

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.BookingEvent{
		Type:       kafka.EventBookingCreated,
		BookingID:  booking.ID.String(),
		To:         string(booking.Status),
		OrderID:    order.ID.String(),
		Amount:     order.Total,
		OccurredAt: time.Now().UTC(),
	})

	return &BookingDetail{Booking: booking, Order: order}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDetail, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetByBookingID(ctx, bookingID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return &BookingDetail{Booking: booking, Order: order}, nil
}

// CheckIn surfaces StaleVersion to the caller instead of retrying:
// re-submitting a user-initiated action is the caller's call.
func (s *BookingService) CheckIn(ctx context.Context, bookingID uuid.UUID, expectedVersion int64, actor domain.Actor) (*domain.Booking, error) {
	return s.machine.Transition(ctx, bookingID, expectedVersion, domain.TriggerCheckIn, actor)
}

// Cancel drives the Cancel trigger and announces the cancellation, so
// downstream listeners can release the slot and notify the parent.
func (s *BookingService) Cancel(ctx context.Context, bookingID uuid.UUID, expectedVersion int64, actor domain.Actor) (*domain.Booking, error) {
	booking, err := s.machine.Transition(ctx, bookingID, expectedVersion, domain.TriggerCancel, actor)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.BookingEvent{
		Type:       kafka.EventBookingCancelled,
		BookingID:  booking.ID.String(),
		To:         string(booking.Status),
		OccurredAt: time.Now().UTC(),
	})
	return booking, nil
}

func (s *BookingService) publish(ctx context.Context, event kafka.BookingEvent) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, event.BookingID, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", event.Type, event.BookingID, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, event.BookingID, event); err != nil {
			log.Printf("WARNING: failed to publish notification for booking %s: %v", event.BookingID, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
