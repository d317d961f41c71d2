package repository

import (
	"context"
	"errors"

	"garage-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	if err := conn(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		return nil, Translate(err)
	}
	return &c, nil
}

// FindCustomer matches by email first, then phone. Returns ErrNotFound when neither hits.
func (r *CustomerRepository) FindCustomer(ctx context.Context, email, phone string) (*models.Customer, error) {
	db := conn(ctx, r.db)
	var c models.Customer
	if email != "" {
		err := db.Where("LOWER(email) = LOWER(?)", email).Order("created_at ASC").First(&c).Error
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Translate(err)
		}
	}
	if phone != "" {
		err := db.Where("phone = ?", phone).Order("created_at ASC").First(&c).Error
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Translate(err)
		}
	}
	return nil, ErrNotFound
}

func (r *CustomerRepository) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return Translate(conn(ctx, r.db).Create(c).Error)
}

func (r *CustomerRepository) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := conn(ctx, r.db).First(&v, "id = ?", id).Error; err != nil {
		return nil, Translate(err)
	}
	return &v, nil
}

func (r *CustomerRepository) FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := conn(ctx, r.db).Where("UPPER(vin) = UPPER(?)", vin).First(&v).Error; err != nil {
		return nil, Translate(err)
	}
	return &v, nil
}

func (r *CustomerRepository) CreateVehicle(ctx context.Context, v *models.Vehicle) error {
	return Translate(conn(ctx, r.db).Create(v).Error)
}
