package domain

import (
	"time"

	"github.com/google/uuid"
)

type DiagnosisResult string

const (
	ResultCanInject      DiagnosisResult = "CAN_INJECT"
	ResultCannotInject   DiagnosisResult = "CANNOT_INJECT"
	ResultDelayInjection DiagnosisResult = "DELAY_INJECTION"
)

type DiagnosisItem struct {
	LineItemID uuid.UUID
	Result     DiagnosisResult
	Note       string
}

// DiagnosisRecord holds exactly one result per order line item. Created
// once, by the doctor holding the DOCTOR assignment.
type DiagnosisRecord struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	DoctorID  uuid.UUID
	Items     []DiagnosisItem
	Comment   string
	CreatedAt time.Time
}

func (r *DiagnosisRecord) ResultFor(lineItemID uuid.UUID) (DiagnosisResult, bool) {
	for _, it := range r.Items {
		if it.LineItemID == lineItemID {
			return it.Result, true
		}
	}
	return "", false
}

func (r *DiagnosisRecord) CanInjectIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, it := range r.Items {
		if it.Result == ResultCanInject {
			ids = append(ids, it.LineItemID)
		}
	}
	return ids
}

type VaccinationItem struct {
	LineItemID     uuid.UUID
	Note           string
	AdministeredAt time.Time
}

// VaccinationRecord holds the administered subset of CAN_INJECT items.
// Created once, by the nurse holding the NURSE assignment.
type VaccinationRecord struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	NurseID   uuid.UUID
	Items     []VaccinationItem
	CreatedAt time.Time
}
