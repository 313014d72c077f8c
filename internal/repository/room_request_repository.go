package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uniroom-api/internal/models"
)

const roomRequestColumns = `id, request_type, class_schedule_id, requester_id, request_date, time_slot_id, reason, status,
	permanent, moved_to_date, moved_to_time_slot_id, moved_to_day_of_week, target_room_id, exception_type,
	substitute_teacher_id, approved_by, approved_at, note, created_at, updated_at`

// RoomRequestRepository persists the request workflow.
type RoomRequestRepository struct {
	db *sqlx.DB
}

// NewRoomRequestRepository constructs the repository.
func NewRoomRequestRepository(db *sqlx.DB) *RoomRequestRepository {
	return &RoomRequestRepository{db: db}
}

func (r *RoomRequestRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new pending request.
func (r *RoomRequestRepository) Create(ctx context.Context, req *models.RoomRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.RequestStatusPending
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	const query = `INSERT INTO room_requests
	(id, request_type, class_schedule_id, requester_id, request_date, time_slot_id, reason, status, permanent,
	 moved_to_date, moved_to_time_slot_id, moved_to_day_of_week, target_room_id, exception_type, substitute_teacher_id,
	 approved_by, approved_at, note, created_at, updated_at)
	VALUES (:id, :request_type, :class_schedule_id, :requester_id, :request_date, :time_slot_id, :reason, :status, :permanent,
	 :moved_to_date, :moved_to_time_slot_id, :moved_to_day_of_week, :target_room_id, :exception_type, :substitute_teacher_id,
	 :approved_by, :approved_at, :note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create room request: %w", err)
	}
	return nil
}

// FindByID fetches a request by identifier.
func (r *RoomRequestRepository) FindByID(ctx context.Context, id string) (*models.RoomRequest, error) {
	query := `SELECT ` + roomRequestColumns + ` FROM room_requests WHERE id = $1`
	var req models.RoomRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// LockByID fetches a request holding a row lock for the transaction.
func (r *RoomRequestRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RoomRequest, error) {
	query := `SELECT ` + roomRequestColumns + ` FROM room_requests WHERE id = $1 FOR UPDATE`
	var req models.RoomRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests matching the filter, newest first, with a total count.
func (r *RoomRequestRepository) List(ctx context.Context, filter models.RoomRequestFilter) ([]models.RoomRequest, int, error) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RequestType != "" {
		args = append(args, filter.RequestType)
		conditions = append(conditions, fmt.Sprintf("request_type = $%d", len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if filter.ClassScheduleID != "" {
		args = append(args, filter.ClassScheduleID)
		conditions = append(conditions, fmt.Sprintf("class_schedule_id = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM room_requests`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count room requests: %w", err)
	}

	_, size, offset := normalizePage(filter.Page, filter.PageSize)
	query := `SELECT ` + roomRequestColumns + ` FROM room_requests` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", size, offset)
	var list []models.RoomRequest
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list room requests: %w", err)
	}
	return list, total, nil
}

// UpdateDecision records the review outcome. Only pending requests are
// updated; sql.ErrNoRows signals the request was already decided.
func (r *RoomRequestRepository) UpdateDecision(ctx context.Context, exec sqlx.ExtContext, decision models.RequestDecision) error {
	query := fmt.Sprintf(`UPDATE room_requests
	SET status = :status, approved_by = :approved_by, approved_at = :approved_at, note = COALESCE(:note, note), updated_at = :approved_at
	WHERE id = :id AND status = '%s'`, models.RequestStatusPending)
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, map[string]interface{}{
		"id":          decision.ID,
		"status":      decision.Status,
		"approved_by": decision.DecidedBy,
		"approved_at": decision.DecidedAt,
		"note":        decision.Note,
	})
	if err != nil {
		return fmt.Errorf("update room request decision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check room request update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListStalePending returns pending one-off requests whose target date is
// before asOf.
func (r *RoomRequestRepository) ListStalePending(ctx context.Context, asOf time.Time) ([]models.RoomRequest, error) {
	query := `SELECT ` + roomRequestColumns + ` FROM room_requests
	WHERE status = 'pending'
	AND permanent = FALSE
	AND COALESCE(moved_to_date, request_date) < $1
	ORDER BY created_at`
	var list []models.RoomRequest
	if err := r.db.SelectContext(ctx, &list, query, models.TruncateDate(asOf)); err != nil {
		return nil, fmt.Errorf("list stale room requests: %w", err)
	}
	return list, nil
}
