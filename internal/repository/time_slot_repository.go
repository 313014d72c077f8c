package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uniroom-api/internal/models"
)

const timeSlotColumns = `id, label, start_time, end_time, shift, sort_order, created_at`

// TimeSlotRepository reads the time slot catalog.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs the repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// List returns every slot in display order.
func (r *TimeSlotRepository) List(ctx context.Context) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, `SELECT `+timeSlotColumns+` FROM time_slots ORDER BY sort_order, start_time`); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// FindByID loads a slot.
func (r *TimeSlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, `SELECT `+timeSlotColumns+` FROM time_slots WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &slot, nil
}
