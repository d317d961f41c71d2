package repository

import (
	"context"

	"garage-backend/internal/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	return Translate(conn(ctx, r.db).Create(entry).Error)
}

// ListForEntity returns the audit trail of one entity, oldest first.
func (r *AuditRepository) ListForEntity(ctx context.Context, entity, entityID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := conn(ctx, r.db).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, Translate(err)
	}
	return entries, nil
}
