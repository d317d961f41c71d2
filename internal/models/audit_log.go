package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Actor     string         `gorm:"index" json:"actor"`
	Action    string         `gorm:"index" json:"action"`
	Entity    string         `gorm:"index" json:"entity"`
	EntityID  string         `gorm:"index" json:"entity_id"`
	Before    datatypes.JSON `json:"before,omitempty"`
	After     datatypes.JSON `json:"after,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Customer{},
		&Vehicle{},
		&Appointment{},
		&AppointmentService{},
		&CatalogItem{},
		&PackageItem{},
		&Invoice{},
		&InvoiceLineItem{},
		&Payment{},
		&AuditLog{},
	}
}
