package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/uniroom-api/internal/models"
)

const recurringScheduleColumns = `rs.id, rs.class_id, rs.class_type_id, rs.group_number, rs.teacher_id, rs.room_id,
	rs.day_of_week, rs.time_slot_id, rs.start_date, rs.end_date, rs.status, rs.created_at, rs.updated_at`

// RecurringScheduleRepository persists weekly schedule entries.
type RecurringScheduleRepository struct {
	db *sqlx.DB
}

// NewRecurringScheduleRepository constructs the repository.
func NewRecurringScheduleRepository(db *sqlx.DB) *RecurringScheduleRepository {
	return &RecurringScheduleRepository{db: db}
}

func (r *RecurringScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new recurring entry.
func (r *RecurringScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.RecurringSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusActive
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	const query = `INSERT INTO recurring_schedules
	(id, class_id, class_type_id, group_number, teacher_id, room_id, day_of_week, time_slot_id, start_date, end_date, status, created_at, updated_at)
	VALUES (:id, :class_id, :class_type_id, :group_number, :teacher_id, :room_id, :day_of_week, :time_slot_id, :start_date, :end_date, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule); err != nil {
		return fmt.Errorf("create recurring schedule: %w", err)
	}
	return nil
}

// FindByID loads an entry with its class department.
func (r *RecurringScheduleRepository) FindByID(ctx context.Context, id string) (*models.RecurringSchedule, error) {
	query := `SELECT ` + recurringScheduleColumns + `, c.department_id
	FROM recurring_schedules rs
	LEFT JOIN classes c ON c.id = rs.class_id
	WHERE rs.id = $1`
	var schedule models.RecurringSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// LockByID loads an entry and holds a row lock until the transaction ends.
func (r *RecurringScheduleRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringSchedule, error) {
	query := `SELECT ` + recurringScheduleColumns + ` FROM recurring_schedules rs WHERE rs.id = $1 FOR UPDATE`
	var schedule models.RecurringSchedule
	if err := sqlx.GetContext(ctx, r.exec(exec), &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindByIDs loads several entries at once.
func (r *RecurringScheduleRepository) FindByIDs(ctx context.Context, ids []string) ([]models.RecurringSchedule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + recurringScheduleColumns + `, c.department_id
	FROM recurring_schedules rs
	LEFT JOIN classes c ON c.id = rs.class_id
	WHERE rs.id = ANY($1)`
	var schedules []models.RecurringSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find recurring schedules by ids: %w", err)
	}
	return schedules, nil
}

// List returns a page of entries plus the total count.
func (r *RecurringScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.RecurringSchedule, int, error) {
	conditions := make([]string, 0, 7)
	args := make([]interface{}, 0, 9)
	add := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.ClassID != "" {
		add("rs.class_id = $%d", filter.ClassID)
	}
	if filter.TeacherID != "" {
		add("rs.teacher_id = $%d", filter.TeacherID)
	}
	if filter.RoomID != "" {
		add("rs.room_id = $%d", filter.RoomID)
	}
	if filter.DepartmentID != "" {
		add("c.department_id = $%d", filter.DepartmentID)
	}
	if filter.TimeSlotID != "" {
		add("rs.time_slot_id = $%d", filter.TimeSlotID)
	}
	if filter.DayOfWeek > 0 {
		add("rs.day_of_week = $%d", filter.DayOfWeek)
	}
	if filter.Status != "" {
		add("rs.status = $%d", filter.Status)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	from := ` FROM recurring_schedules rs LEFT JOIN classes c ON c.id = rs.class_id`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+from+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count recurring schedules: %w", err)
	}

	_, size, offset := normalizePage(filter.Page, filter.PageSize)
	query := `SELECT ` + recurringScheduleColumns + `, c.department_id` + from + where +
		fmt.Sprintf(" ORDER BY rs.day_of_week, rs.time_slot_id, rs.start_date LIMIT %d OFFSET %d", size, offset)

	var schedules []models.RecurringSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list recurring schedules: %w", err)
	}
	return schedules, total, nil
}

// FindOverlapping returns active entries on the same weekday and slot whose
// validity window overlaps the query window, keyed on room or teacher.
// Entries without a room never match a room query.
func (r *RecurringScheduleRepository) FindOverlapping(ctx context.Context, exec sqlx.ExtContext, dimension models.ConflictDimension, q models.ConflictQuery) ([]models.RecurringSchedule, error) {
	var keyColumn, key string
	switch dimension {
	case models.ConflictDimensionRoom:
		keyColumn, key = "rs.room_id", q.RoomID
	case models.ConflictDimensionTeacher:
		keyColumn, key = "rs.teacher_id", q.TeacherID
	default:
		return nil, fmt.Errorf("unknown conflict dimension %q", dimension)
	}

	query := `SELECT ` + recurringScheduleColumns + ` FROM recurring_schedules rs
	WHERE ` + keyColumn + ` = $1
	AND rs.day_of_week = $2
	AND rs.time_slot_id = $3
	AND rs.status = 'active'
	AND rs.start_date <= $4
	AND rs.end_date >= $5`
	args := []interface{}{key, q.DayOfWeek, q.TimeSlotID, q.EndDate, q.StartDate}
	if q.ExcludeScheduleID != "" {
		args = append(args, q.ExcludeScheduleID)
		query += fmt.Sprintf(" AND rs.id <> $%d", len(args))
	}
	query += " ORDER BY rs.start_date, rs.id"

	var schedules []models.RecurringSchedule
	if err := sqlx.SelectContext(ctx, r.exec(exec), &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping %s schedules: %w", dimension, err)
	}
	return schedules, nil
}

// ListOnSlot returns active, roomed entries that occur on date in the slot.
func (r *RecurringScheduleRepository) ListOnSlot(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeSlotID string) ([]models.RecurringSchedule, error) {
	query := `SELECT ` + recurringScheduleColumns + ` FROM recurring_schedules rs
	WHERE rs.day_of_week = $1
	AND rs.time_slot_id = $2
	AND rs.status = 'active'
	AND rs.room_id IS NOT NULL
	AND rs.start_date <= $3
	AND rs.end_date >= $3`
	var schedules []models.RecurringSchedule
	if err := sqlx.SelectContext(ctx, r.exec(exec), &schedules, query, models.DayOfWeek(date), timeSlotID, date); err != nil {
		return nil, fmt.Errorf("list schedules on slot: %w", err)
	}
	return schedules, nil
}

// ListActive returns active entries whose window intersects the query window.
// A zero window bound is treated as open.
func (r *RecurringScheduleRepository) ListActive(ctx context.Context, q models.ActiveScheduleQuery) ([]models.RecurringSchedule, error) {
	conditions := []string{"rs.status = 'active'"}
	args := make([]interface{}, 0, 6)
	bind := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if !q.WindowEnd.IsZero() {
		conditions = append(conditions, "rs.start_date <= "+bind(q.WindowEnd))
	}
	if !q.WindowStart.IsZero() {
		conditions = append(conditions, "rs.end_date >= "+bind(q.WindowStart))
	}
	if q.ClassID != "" {
		conditions = append(conditions, "rs.class_id = "+bind(q.ClassID))
	}
	if q.DepartmentID != "" {
		conditions = append(conditions, "c.department_id = "+bind(q.DepartmentID))
	}
	exceptionWindow := ""
	if !q.WindowStart.IsZero() && !q.WindowEnd.IsZero() {
		exceptionWindow = fmt.Sprintf(" AND se.exception_date BETWEEN %s AND %s", bind(q.WindowStart), bind(q.WindowEnd))
	}
	if q.TeacherID != "" {
		p := bind(q.TeacherID)
		conditions = append(conditions, fmt.Sprintf(`(rs.teacher_id = %s OR EXISTS (
		SELECT 1 FROM schedule_exceptions se
		WHERE se.recurring_schedule_id = rs.id AND se.substitute_teacher_id = %s%s))`, p, p, exceptionWindow))
	}
	if q.RoomID != "" {
		p := bind(q.RoomID)
		conditions = append(conditions, fmt.Sprintf(`(rs.room_id = %s OR EXISTS (
		SELECT 1 FROM schedule_exceptions se
		WHERE se.recurring_schedule_id = rs.id AND se.new_room_id = %s%s))`, p, p, exceptionWindow))
	}

	query := `SELECT ` + recurringScheduleColumns + `, c.department_id
	FROM recurring_schedules rs
	LEFT JOIN classes c ON c.id = rs.class_id
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY rs.day_of_week, rs.time_slot_id, rs.id`

	var schedules []models.RecurringSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list active schedules: %w", err)
	}
	return schedules, nil
}

// UpdateAssignment rewrites room, weekday and slot of an active entry.
func (r *RecurringScheduleRepository) UpdateAssignment(ctx context.Context, exec sqlx.ExtContext, schedule *models.RecurringSchedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE recurring_schedules
	SET room_id = :room_id, day_of_week = :day_of_week, time_slot_id = :time_slot_id, updated_at = :updated_at
	WHERE id = :id AND status = 'active'`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule)
	if err != nil {
		return fmt.Errorf("update schedule assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule assignment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus changes the lifecycle status of an entry.
func (r *RecurringScheduleRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus) error {
	const query = `UPDATE recurring_schedules SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
