package api

import (
	"net/http"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/Domenick1991/vaxbooking/internal/service/clinical"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ClinicalHandler struct {
	service clinical.ClinicalUseCase
}

type diagnosisItemRequest struct {
	LineItemID string `json:"line_item_id" binding:"required"`
	Result     string `json:"result" binding:"required"`
	Note       string `json:"note"`
}

type submitDiagnosisRequest struct {
	Results []diagnosisItemRequest `json:"results" binding:"required"`
	Comment string                 `json:"comment"`
}

type injectionItemRequest struct {
	LineItemID string `json:"line_item_id" binding:"required"`
	Note       string `json:"note"`
}

type recordInjectionRequest struct {
	Administered []injectionItemRequest `json:"administered" binding:"required"`
}

func NewClinicalHandler(service clinical.ClinicalUseCase) *ClinicalHandler {
	return &ClinicalHandler{service: service}
}

func (h *ClinicalHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/diagnosis", h.submitDiagnosis)
	router.POST("/:id/vaccination", h.recordInjection)
}

func (h *ClinicalHandler) submitDiagnosis(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req submitDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFrom(c)
	input := clinical.SubmitDiagnosisInput{
		BookingID: bookingID,
		DoctorID:  actor.ID,
		Comment:   req.Comment,
		Actor:     actor,
	}
	for _, it := range req.Results {
		lineItemID, err := uuid.Parse(it.LineItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line_item_id"})
			return
		}
		input.Items = append(input.Items, clinical.DiagnosisItemInput{
			LineItemID: lineItemID,
			Result:     domain.DiagnosisResult(it.Result),
			Note:       it.Note,
		})
	}

	record, err := h.service.SubmitDiagnosis(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record_id": record.ID.String(), "booking_id": record.BookingID.String()})
}

func (h *ClinicalHandler) recordInjection(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req recordInjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFrom(c)
	input := clinical.RecordInjectionInput{
		BookingID: bookingID,
		NurseID:   actor.ID,
		Actor:     actor,
	}
	for _, it := range req.Administered {
		lineItemID, err := uuid.Parse(it.LineItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line_item_id"})
			return
		}
		input.Items = append(input.Items, clinical.InjectionItemInput{
			LineItemID: lineItemID,
			Note:       it.Note,
		})
	}

	updated, err := h.service.RecordInjection(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}
