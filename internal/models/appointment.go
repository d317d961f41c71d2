package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Canonical appointment statuses. Aliases are resolved by scheduling.NormalizeStatus
// before anything is persisted.
const (
	AppointmentScheduled  = "SCHEDULED"
	AppointmentInProgress = "IN_PROGRESS"
	AppointmentReady      = "READY"
	AppointmentCompleted  = "COMPLETED"
	AppointmentNoShow     = "NO_SHOW"
	AppointmentCanceled   = "CANCELED"
)

type Appointment struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Status       string          `gorm:"index;not null" json:"status"`
	Title        string          `json:"title"`
	Notes        *string         `gorm:"type:text" json:"notes,omitempty"`
	StartAt      time.Time       `gorm:"index;not null" json:"start_at"`
	EndAt        *time.Time      `gorm:"index" json:"end_at,omitempty"`
	TechnicianID *string         `gorm:"index" json:"technician_id,omitempty"`
	VehicleID    *uuid.UUID      `gorm:"type:uuid;index" json:"vehicle_id,omitempty"`
	CustomerID   *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Position     int             `gorm:"not null;default:0" json:"position"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	PaidAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Services []AppointmentService `gorm:"foreignKey:AppointmentID" json:"services,omitempty"`
}

// AppointmentService is one booked service; it is snapshotted into a line item on billing.
type AppointmentService struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	AppointmentID      uuid.UUID        `gorm:"type:uuid;index;not null" json:"appointment_id"`
	ServiceOperationID *uuid.UUID       `gorm:"type:uuid" json:"service_operation_id,omitempty"`
	Name               string           `json:"name"`
	EstimatedPrice     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"estimated_price,omitempty"`
	EstimatedHours     *decimal.Decimal `gorm:"type:decimal(8,2)" json:"estimated_hours,omitempty"`
	Position           int              `gorm:"not null;default:0" json:"position"`
	CreatedAt          time.Time        `json:"created_at"`
}

type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     *string   `gorm:"index" json:"email,omitempty"`
	Phone     *string   `gorm:"index" json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Vehicle struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	VIN        *string    `gorm:"column:vin;index" json:"vin,omitempty"`
	Year       *int       `json:"year,omitempty"`
	Make       string     `json:"make"`
	Model      string     `json:"model"`
	CreatedAt  time.Time  `json:"created_at"`
}
