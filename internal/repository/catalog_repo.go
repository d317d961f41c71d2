package repository

import (
	"context"

	"garage-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := conn(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, Translate(err)
	}
	return &item, nil
}

// GetByIDs returns the catalog items found among ids, keyed by id. Missing ids are absent.
func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.CatalogItem, error) {
	out := make(map[uuid.UUID]models.CatalogItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.CatalogItem
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, Translate(err)
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

// ListPackageItems returns a package's children ordered by sort order, then child id, so
// the last child is the same on every call.
func (r *CatalogRepository) ListPackageItems(ctx context.Context, packageID uuid.UUID) ([]models.PackageItem, error) {
	var items []models.PackageItem
	err := conn(ctx, r.db).
		Preload("Child").
		Where("package_id = ?", packageID).
		Order("sort_order ASC, child_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, Translate(err)
	}
	return items, nil
}
