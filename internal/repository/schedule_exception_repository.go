package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/pkg/database"
)

const scheduleExceptionColumns = `se.id, se.recurring_schedule_id, se.exception_date, se.exception_type, se.new_date,
	se.new_time_slot_id, se.new_room_id, se.substitute_teacher_id, se.reason, se.note, se.created_by, se.created_at, se.updated_at`

// effective placement of an exception row joined with its recurring entry
const (
	effectiveDate = `COALESCE(se.new_date, se.exception_date)`
	effectiveSlot = `COALESCE(se.new_time_slot_id, rs.time_slot_id)`
	effectiveRoom = `COALESCE(se.new_room_id, rs.room_id)`
)

// ScheduleExceptionRepository persists one-off overrides.
type ScheduleExceptionRepository struct {
	db *sqlx.DB
}

// NewScheduleExceptionRepository constructs the repository.
func NewScheduleExceptionRepository(db *sqlx.DB) *ScheduleExceptionRepository {
	return &ScheduleExceptionRepository{db: db}
}

func (r *ScheduleExceptionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

func prepareException(exc *models.ScheduleException) {
	if exc.ID == "" {
		exc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exc.CreatedAt.IsZero() {
		exc.CreatedAt = now
	}
	exc.UpdatedAt = now
	exc.ExceptionDate = models.TruncateDate(exc.ExceptionDate)
}

// Create inserts an exception. A second exception for the same entry and
// date yields ErrDuplicate.
func (r *ScheduleExceptionRepository) Create(ctx context.Context, exec sqlx.ExtContext, exc *models.ScheduleException) error {
	prepareException(exc)
	const query = `INSERT INTO schedule_exceptions
	(id, recurring_schedule_id, exception_date, exception_type, new_date, new_time_slot_id, new_room_id, substitute_teacher_id, reason, note, created_by, created_at, updated_at)
	VALUES (:id, :recurring_schedule_id, :exception_date, :exception_type, :new_date, :new_time_slot_id, :new_room_id, :substitute_teacher_id, :reason, :note, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, exc); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create schedule exception: %w", err)
	}
	return nil
}

// Upsert inserts or replaces the exception for (entry, date), keeping the
// original identifier when one already exists.
func (r *ScheduleExceptionRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, exc *models.ScheduleException) error {
	prepareException(exc)
	const query = `INSERT INTO schedule_exceptions
	(id, recurring_schedule_id, exception_date, exception_type, new_date, new_time_slot_id, new_room_id, substitute_teacher_id, reason, note, created_by, created_at, updated_at)
	VALUES (:id, :recurring_schedule_id, :exception_date, :exception_type, :new_date, :new_time_slot_id, :new_room_id, :substitute_teacher_id, :reason, :note, :created_by, :created_at, :updated_at)
	ON CONFLICT (recurring_schedule_id, exception_date) DO UPDATE SET
		exception_type = EXCLUDED.exception_type,
		new_date = EXCLUDED.new_date,
		new_time_slot_id = EXCLUDED.new_time_slot_id,
		new_room_id = EXCLUDED.new_room_id,
		substitute_teacher_id = EXCLUDED.substitute_teacher_id,
		reason = EXCLUDED.reason,
		note = EXCLUDED.note,
		created_by = EXCLUDED.created_by,
		updated_at = EXCLUDED.updated_at
	RETURNING id, created_at`
	target := r.exec(exec)
	bound, args, err := target.BindNamed(query, exc)
	if err != nil {
		return fmt.Errorf("bind schedule exception upsert: %w", err)
	}
	if err := target.QueryRowxContext(ctx, bound, args...).Scan(&exc.ID, &exc.CreatedAt); err != nil {
		return fmt.Errorf("upsert schedule exception: %w", err)
	}
	return nil
}

// FindByID loads an exception.
func (r *ScheduleExceptionRepository) FindByID(ctx context.Context, id string) (*models.ScheduleException, error) {
	query := `SELECT ` + scheduleExceptionColumns + ` FROM schedule_exceptions se WHERE se.id = $1`
	var exc models.ScheduleException
	if err := r.db.GetContext(ctx, &exc, query, id); err != nil {
		return nil, err
	}
	return &exc, nil
}

// FindByScheduleAndDate loads the exception overriding the occurrence of an
// entry on its original date.
func (r *ScheduleExceptionRepository) FindByScheduleAndDate(ctx context.Context, exec sqlx.ExtContext, scheduleID string, date time.Time) (*models.ScheduleException, error) {
	query := `SELECT ` + scheduleExceptionColumns + ` FROM schedule_exceptions se
	WHERE se.recurring_schedule_id = $1 AND se.exception_date = $2`
	var exc models.ScheduleException
	if err := sqlx.GetContext(ctx, r.exec(exec), &exc, query, scheduleID, models.TruncateDate(date)); err != nil {
		return nil, err
	}
	return &exc, nil
}

// FindRelocatedOnto loads a moved or exam exception of the entry whose new
// date is date.
func (r *ScheduleExceptionRepository) FindRelocatedOnto(ctx context.Context, scheduleID string, date time.Time) (*models.ScheduleException, error) {
	query := `SELECT ` + scheduleExceptionColumns + ` FROM schedule_exceptions se
	WHERE se.recurring_schedule_id = $1
	AND se.exception_type IN ('moved', 'exam')
	AND se.new_date = $2
	AND se.exception_date <> $2
	ORDER BY se.exception_date
	LIMIT 1`
	var exc models.ScheduleException
	if err := r.db.GetContext(ctx, &exc, query, scheduleID, models.TruncateDate(date)); err != nil {
		return nil, err
	}
	return &exc, nil
}

// ListEntryRelocationsOnto returns moved or exam exceptions of one entry
// whose effective date and slot are date and timeSlotID. The exception
// keyed on skip is left out.
func (r *ScheduleExceptionRepository) ListEntryRelocationsOnto(ctx context.Context, exec sqlx.ExtContext, scheduleID string, date time.Time, timeSlotID string, skip time.Time) ([]models.ScheduleException, error) {
	query := `SELECT ` + scheduleExceptionColumns + ` FROM schedule_exceptions se
	JOIN recurring_schedules rs ON rs.id = se.recurring_schedule_id
	WHERE se.recurring_schedule_id = $1
	AND se.exception_type IN ('moved', 'exam')
	AND ` + effectiveDate + ` = $2
	AND ` + effectiveSlot + ` = $3
	AND se.exception_date <> $4
	ORDER BY se.exception_date`
	var list []models.ScheduleException
	if err := sqlx.SelectContext(ctx, r.exec(exec), &list, query, scheduleID, models.TruncateDate(date), timeSlotID, models.TruncateDate(skip)); err != nil {
		return nil, fmt.Errorf("list entry relocations onto slot: %w", err)
	}
	return list, nil
}

// ListBySchedule returns every exception of an entry ordered by date.
func (r *ScheduleExceptionRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleException, error) {
	query := `SELECT ` + scheduleExceptionColumns + ` FROM schedule_exceptions se
	WHERE se.recurring_schedule_id = $1 ORDER BY se.exception_date`
	var list []models.ScheduleException
	if err := r.db.SelectContext(ctx, &list, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule exceptions: %w", err)
	}
	return list, nil
}

// ListBySchedules returns exceptions of the given entries whose original
// date falls in [from, to].
func (r *ScheduleExceptionRepository) ListBySchedules(ctx context.Context, exec sqlx.ExtContext, scheduleIDs []string, from, to time.Time) ([]models.ScheduleException, error) {
	if len(scheduleIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + scheduleExceptionColumns + ` FROM schedule_exceptions se
	WHERE se.recurring_schedule_id = ANY($1)
	AND se.exception_date BETWEEN $2 AND $3
	ORDER BY se.exception_date`
	var list []models.ScheduleException
	if err := sqlx.SelectContext(ctx, r.exec(exec), &list, query, pq.Array(scheduleIDs), models.TruncateDate(from), models.TruncateDate(to)); err != nil {
		return nil, fmt.Errorf("list exceptions by schedules: %w", err)
	}
	return list, nil
}

// ListRelocatedInto returns moved or exam exceptions whose new date falls in
// [from, to] while the original date lies outside it.
func (r *ScheduleExceptionRepository) ListRelocatedInto(ctx context.Context, from, to time.Time) ([]models.ScheduleException, error) {
	query := `SELECT ` + scheduleExceptionColumns + ` FROM schedule_exceptions se
	JOIN recurring_schedules rs ON rs.id = se.recurring_schedule_id
	WHERE rs.status = 'active'
	AND se.exception_type IN ('moved', 'exam')
	AND se.new_date BETWEEN $1 AND $2
	AND se.exception_date NOT BETWEEN $1 AND $2
	ORDER BY se.new_date`
	var list []models.ScheduleException
	if err := r.db.SelectContext(ctx, &list, query, models.TruncateDate(from), models.TruncateDate(to)); err != nil {
		return nil, fmt.Errorf("list exceptions relocated into range: %w", err)
	}
	return list, nil
}

// ListRelocationsInto returns moved or exam exceptions of active entries
// whose effective placement lands on the queried weekday and slot inside the
// query window. The dimension selects the key: room matches the effective
// room, teacher matches the entry teacher, and an empty dimension matches any
// relocation into a room. Only exceptions that actually change the placement
// relevant to the dimension are returned.
func (r *ScheduleExceptionRepository) ListRelocationsInto(ctx context.Context, exec sqlx.ExtContext, dimension models.ConflictDimension, q models.ConflictQuery) ([]models.ScheduleException, error) {
	query := `SELECT ` + scheduleExceptionColumns + ` FROM schedule_exceptions se
	JOIN recurring_schedules rs ON rs.id = se.recurring_schedule_id
	WHERE rs.status = 'active'
	AND se.exception_type IN ('moved', 'exam')
	AND ` + effectiveDate + ` BETWEEN $1 AND $2
	AND EXTRACT(DOW FROM ` + effectiveDate + `)::int + 1 = $3
	AND ` + effectiveSlot + ` = $4`
	args := []interface{}{models.TruncateDate(q.StartDate), models.TruncateDate(q.EndDate), q.DayOfWeek, q.TimeSlotID}

	timeChanged := `(` + effectiveDate + ` <> se.exception_date OR ` + effectiveSlot + ` <> rs.time_slot_id)`
	switch dimension {
	case models.ConflictDimensionRoom:
		args = append(args, q.RoomID)
		query += fmt.Sprintf(" AND %s = $%d AND (%s OR %s IS DISTINCT FROM rs.room_id)", effectiveRoom, len(args), timeChanged, effectiveRoom)
	case models.ConflictDimensionTeacher:
		args = append(args, q.TeacherID)
		query += fmt.Sprintf(" AND rs.teacher_id = $%d AND %s", len(args), timeChanged)
	default:
		query += fmt.Sprintf(" AND %s IS NOT NULL AND (%s OR %s IS DISTINCT FROM rs.room_id)", effectiveRoom, timeChanged, effectiveRoom)
	}
	if q.ExcludeScheduleID != "" {
		args = append(args, q.ExcludeScheduleID)
		query += fmt.Sprintf(" AND rs.id <> $%d", len(args))
	}
	query += " ORDER BY " + effectiveDate

	var list []models.ScheduleException
	if err := sqlx.SelectContext(ctx, r.exec(exec), &list, query, args...); err != nil {
		return nil, fmt.Errorf("list relocations into slot: %w", err)
	}
	return list, nil
}

// ListSubstitutionsFor returns substitute exceptions assigning the teacher to
// occurrences on the queried weekday and slot inside the window.
func (r *ScheduleExceptionRepository) ListSubstitutionsFor(ctx context.Context, exec sqlx.ExtContext, q models.ConflictQuery) ([]models.ScheduleException, error) {
	query := `SELECT ` + scheduleExceptionColumns + ` FROM schedule_exceptions se
	JOIN recurring_schedules rs ON rs.id = se.recurring_schedule_id
	WHERE rs.status = 'active'
	AND se.exception_type = 'substitute'
	AND se.substitute_teacher_id = $1
	AND rs.day_of_week = $2
	AND rs.time_slot_id = $3
	AND se.exception_date BETWEEN $4 AND $5`
	args := []interface{}{q.TeacherID, q.DayOfWeek, q.TimeSlotID, models.TruncateDate(q.StartDate), models.TruncateDate(q.EndDate)}
	if q.ExcludeScheduleID != "" {
		args = append(args, q.ExcludeScheduleID)
		query += fmt.Sprintf(" AND rs.id <> $%d", len(args))
	}
	query += " ORDER BY se.exception_date"

	var list []models.ScheduleException
	if err := sqlx.SelectContext(ctx, r.exec(exec), &list, query, args...); err != nil {
		return nil, fmt.Errorf("list substitutions for teacher: %w", err)
	}
	return list, nil
}

// Delete removes an exception, restoring the recurring occurrence.
func (r *ScheduleExceptionRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM schedule_exceptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule exception: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule exception rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
