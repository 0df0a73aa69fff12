package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/Domenick1991/vaxbooking/internal/service/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	service payment.PaymentUseCase
}

type confirmPaymentRequest struct {
	OrderID        string `json:"order_id" binding:"required"`
	ConfirmationID string `json:"confirmation_id" binding:"required"`
	Amount         int64  `json:"amount"`
}

type intentResponse struct {
	ID             string `json:"id"`
	OrderID        string `json:"order_id"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func NewPaymentHandler(service payment.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterOrders mounts the authenticated order-scoped routes.
func (h *PaymentHandler) RegisterOrders(router *gin.RouterGroup) {
	router.POST("/:id/intent", h.createIntent)
	router.POST("/:id/expire", h.expireIntent)
}

// RegisterWebhook mounts the processor callback. The processor
// authenticates out-of-band, not with an actor token.
func (h *PaymentHandler) RegisterWebhook(router *gin.RouterGroup) {
	router.POST("/confirm", h.confirm)
}

func (h *PaymentHandler) createIntent(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	intent, err := h.service.CreateIntent(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toIntentResponse(intent))
}

func (h *PaymentHandler) confirm(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order_id"})
		return
	}

	booking, err := h.service.ConfirmPayment(c.Request.Context(), orderID, req.ConfirmationID, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *PaymentHandler) expireIntent(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	intent, err := h.service.ExpireIntent(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toIntentResponse(intent))
}

func toIntentResponse(in *domain.PaymentIntent) intentResponse {
	return intentResponse{
		ID:             in.ID.String(),
		OrderID:        in.OrderID.String(),
		Amount:         in.Amount,
		IdempotencyKey: in.IdempotencyKey,
		Status:         string(in.Status),
		CreatedAt:      in.CreatedAt.Format(time.RFC3339),
	}
}
