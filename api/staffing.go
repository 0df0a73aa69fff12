package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/Domenick1991/vaxbooking/internal/service/staffing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StaffingHandler struct {
	service staffing.StaffingUseCase
}

type assignStaffRequest struct {
	Role         string `json:"role" binding:"required"`
	StaffID      string `json:"staff_id"`
	AssignedDate string `json:"assigned_date" binding:"required"`
}

type assignmentResponse struct {
	ID           string `json:"id"`
	BookingID    string `json:"booking_id"`
	Role         string `json:"role"`
	StaffID      string `json:"staff_id"`
	AssignedDate string `json:"assigned_date"`
}

func NewStaffingHandler(service staffing.StaffingUseCase) *StaffingHandler {
	return &StaffingHandler{service: service}
}

func (h *StaffingHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/assignments", h.assign)
	router.GET("/:id/assignments", h.list)
}

func (h *StaffingHandler) assign(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req assignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := time.Parse(dateLayout, req.AssignedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assigned_date"})
		return
	}

	actor := actorFrom(c)
	staffID := actor.ID
	if req.StaffID != "" {
		staffID, err = uuid.Parse(req.StaffID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff_id"})
			return
		}
	}

	assignment, err := h.service.AssignStaff(c.Request.Context(), staffing.AssignStaffInput{
		BookingID:    bookingID,
		Role:         domain.Role(req.Role),
		StaffID:      staffID,
		AssignedDate: date,
		Actor:        actor,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAssignmentResponse(assignment))
}

func (h *StaffingHandler) list(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	assignments, err := h.service.ListAssignments(c.Request.Context(), bookingID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]assignmentResponse, 0, len(assignments))
	for i := range assignments {
		out = append(out, toAssignmentResponse(&assignments[i]))
	}
	c.JSON(http.StatusOK, out)
}

func toAssignmentResponse(a *domain.StaffAssignment) assignmentResponse {
	return assignmentResponse{
		ID:           a.ID.String(),
		BookingID:    a.BookingID.String(),
		Role:         string(a.Role),
		StaffID:      a.StaffID.String(),
		AssignedDate: a.AssignedDate.Format(dateLayout),
	}
}
