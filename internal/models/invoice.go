package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InvoiceDraft         = "DRAFT"
	InvoiceSent          = "SENT"
	InvoicePartiallyPaid = "PARTIALLY_PAID"
	InvoicePaid          = "PAID"
	InvoiceVoid          = "VOID"
)

// Invoice amounts are integer cents. TotalCents == SubtotalCents + TaxCents and
// AmountDueCents == TotalCents - AmountPaidCents hold after every write.
type Invoice struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Number          string     `gorm:"uniqueIndex;not null" json:"number"`
	AppointmentID   uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"appointment_id"`
	Status          string     `gorm:"index;not null" json:"status"`
	SubtotalCents   int64      `gorm:"not null;default:0" json:"subtotal_cents"`
	TaxCents        int64      `gorm:"not null;default:0" json:"tax_cents"`
	TotalCents      int64      `gorm:"not null;default:0" json:"total_cents"`
	AmountPaidCents int64      `gorm:"not null;default:0" json:"amount_paid_cents"`
	AmountDueCents  int64      `gorm:"not null;default:0" json:"amount_due_cents"`
	IssuedAt        *time.Time `json:"issued_at,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	VoidedAt        *time.Time `json:"voided_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"line_items,omitempty"`
	Payments  []Payment         `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// InvoiceLineItem rows are never updated; corrections are new rows or a void.
type InvoiceLineItem struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"invoice_id"`
	Position           int        `gorm:"not null" json:"position"`
	ServiceOperationID *uuid.UUID `gorm:"type:uuid" json:"service_operation_id,omitempty"`
	PackageID          *uuid.UUID `gorm:"type:uuid" json:"package_id,omitempty"`
	Name               string     `json:"name"`
	Quantity           int        `gorm:"not null;default:1" json:"quantity"`
	UnitPriceCents     int64      `gorm:"not null;default:0" json:"unit_price_cents"`
	LineSubtotalCents  int64      `gorm:"not null;default:0" json:"line_subtotal_cents"`
	TaxCents           int64      `gorm:"not null;default:0" json:"tax_cents"`
	TotalCents         int64      `gorm:"not null;default:0" json:"total_cents"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Payment rows are append-only.
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"invoice_id"`
	AppointmentID *uuid.UUID `gorm:"type:uuid;index" json:"appointment_id,omitempty"`
	AmountCents   int64      `gorm:"not null" json:"amount_cents"`
	Method        string     `gorm:"not null" json:"method"`
	Note          *string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
