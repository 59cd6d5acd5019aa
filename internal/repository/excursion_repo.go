package repository

import (
	"context"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/models"

	"gorm.io/gorm"
)

type ExcursionRepository struct {
	db *gorm.DB
}

func NewExcursionRepository(db *gorm.DB) *ExcursionRepository {
	return &ExcursionRepository{db: db}
}

func (r *ExcursionRepository) Create(ctx context.Context, e *models.Excursion) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *ExcursionRepository) GetByID(ctx context.Context, id uint) (*models.Excursion, error) {
	var e models.Excursion
	err := r.db.WithContext(ctx).First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExcursionRepository) ListActive(ctx context.Context) ([]models.Excursion, error) {
	var out []models.Excursion
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&out).Error
	return out, err
}
