package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogItem is a service operation or, when IsPackage is set, a bundle of them.
type CatalogItem struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string           `gorm:"not null" json:"name"`
	DefaultPrice decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"default_price"`
	DefaultHours decimal.Decimal  `gorm:"type:decimal(8,2);not null;default:0" json:"default_hours"`
	IsPackage    bool             `gorm:"not null;default:false" json:"is_package"`
	PackagePrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"package_price,omitempty"`
	SortOrder    int              `gorm:"not null;default:0" json:"sort_order"`
	Active       bool             `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time        `json:"created_at"`
}

type PackageItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PackageID uuid.UUID `gorm:"type:uuid;index;not null" json:"package_id"`
	ChildID   uuid.UUID `gorm:"type:uuid;not null" json:"child_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`

	Child CatalogItem `gorm:"foreignKey:ChildID" json:"child"`
}
