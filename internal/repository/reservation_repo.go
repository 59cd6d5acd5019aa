package repository

import (
	"context"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/models"

	"gorm.io/gorm"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).First(&res, id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) GetByPaymentID(ctx context.Context, orderNumber string) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).Where("payment_id = ?", orderNumber).First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) ListByUser(ctx context.Context, userID uint) ([]models.Reservation, error) {
	var out []models.Reservation
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *ReservationRepository) List(ctx context.Context, limit, offset int) ([]models.Reservation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.Reservation
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

func (r *ReservationRepository) Update(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Save(res).Error
}

// UpdatePaymentState applies a webhook-driven transition with an optimistic
// guard on the previously observed status pair. Returns false when a
// concurrent delivery changed the row first; the caller must re-read and
// re-apply. This is what keeps duplicate processor deliveries idempotent.
func (r *ReservationRepository) UpdatePaymentState(ctx context.Context, id uint, prevStatus, prevPaymentStatus string, fields map[string]any) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, prevStatus, prevPaymentStatus).
		Updates(fields)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
