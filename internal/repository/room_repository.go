package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uniroom-api/internal/models"
)

const roomColumns = `id, code, name, capacity, building, floor, room_type, status, department_id, created_at, updated_at`

// RoomRepository reads the room catalog.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms matching the filter ordered by capacity then code.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, error) {
	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	if filter.RoomType != "" {
		args = append(args, filter.RoomType)
		conditions = append(conditions, fmt.Sprintf("room_type = $%d", len(args)))
	}
	if filter.Building != "" {
		args = append(args, filter.Building)
		conditions = append(conditions, fmt.Sprintf("building = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.MinCapacity > 0 {
		args = append(args, filter.MinCapacity)
		conditions = append(conditions, fmt.Sprintf("capacity >= $%d", len(args)))
	}

	query := `SELECT ` + roomColumns + ` FROM rooms`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY capacity, code"

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// FindByID loads a room.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &room, nil
}
