package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/Domenick1991/vaxbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingItem struct {
	Kind     string `json:"kind" binding:"required"`
	RefID    string `json:"ref_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type createBookingRequest struct {
	ChildID         string              `json:"child_id" binding:"required"`
	AppointmentDate string              `json:"appointment_date" binding:"required"`
	AppointmentTime string              `json:"appointment_time"`
	Items           []createBookingItem `json:"items" binding:"required"`
}

type versionRequest struct {
	Version int64 `json:"version"`
}

type lineItemResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	RefID     string `json:"ref_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	SaleOff   int    `json:"sale_off"`
}

type orderResponse struct {
	ID        string             `json:"id"`
	BookingID string             `json:"booking_id"`
	Total     int64              `json:"total"`
	LineItems []lineItemResponse `json:"line_items"`
}

type bookingResponse struct {
	ID              string `json:"id"`
	ChildID         string `json:"child_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Status          string `json:"status"`
	Version         int64  `json:"version"`
	UpdatedAt       string `json:"updated_at"`
}

type bookingDetailResponse struct {
	Booking bookingResponse `json:"booking"`
	Order   *orderResponse  `json:"order,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.POST("/:id/checkin", h.checkIn)
	router.POST("/:id/cancel", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := toCreateInput(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	detail, err := h.service.CreateBooking(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDetailResponse(detail))
}

func (h *BookingHandler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	detail, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDetailResponse(detail))
}

func (h *BookingHandler) checkIn(c *gin.Context) {
	h.transition(c, h.service.CheckIn)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *BookingHandler) transition(c *gin.Context, op func(ctx context.Context, id uuid.UUID, version int64, actor domain.Actor) (*domain.Booking, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req versionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := op(c.Request.Context(), id, req.Version, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func toCreateInput(req createBookingRequest) (booking.CreateBookingInput, error) {
	childID, err := uuid.Parse(req.ChildID)
	if err != nil {
		return booking.CreateBookingInput{}, err
	}
	date, err := time.Parse(dateLayout, req.AppointmentDate)
	if err != nil {
		return booking.CreateBookingInput{}, err
	}

	input := booking.CreateBookingInput{
		ChildID:         childID,
		AppointmentDate: date,
		AppointmentTime: req.AppointmentTime,
	}
	for _, it := range req.Items {
		refID, err := uuid.Parse(it.RefID)
		if err != nil {
			return booking.CreateBookingInput{}, err
		}
		input.Items = append(input.Items, booking.ItemSelection{
			Kind:     domain.LineItemKind(it.Kind),
			RefID:    refID,
			Quantity: it.Quantity,
		})
	}
	return input, nil
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID.String(),
		ChildID:         b.ChildID.String(),
		AppointmentDate: b.AppointmentDate.Format(dateLayout),
		AppointmentTime: b.AppointmentTime,
		Status:          string(b.Status),
		Version:         b.Version,
		UpdatedAt:       b.UpdatedAt.Format(time.RFC3339),
	}
}

func toDetailResponse(detail *booking.BookingDetail) bookingDetailResponse {
	resp := bookingDetailResponse{Booking: toBookingResponse(detail.Booking)}
	if detail.Order != nil {
		order := orderResponse{
			ID:        detail.Order.ID.String(),
			BookingID: detail.Order.BookingID.String(),
			Total:     detail.Order.Total,
		}
		for _, it := range detail.Order.LineItems {
			order.LineItems = append(order.LineItems, lineItemResponse{
				ID:        it.ID.String(),
				Kind:      string(it.Kind),
				RefID:     it.RefID.String(),
				Name:      it.Name,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				SaleOff:   it.SaleOff,
			})
		}
		resp.Order = &order
	}
	return resp
}
