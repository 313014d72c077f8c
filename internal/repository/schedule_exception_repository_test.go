package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniroom-api/internal/models"
)

var exceptionRowColumns = []string{"id", "recurring_schedule_id", "exception_date", "exception_type", "new_date",
	"new_time_slot_id", "new_room_id", "substitute_teacher_id", "reason", "note", "created_by", "created_at", "updated_at"}

func TestScheduleExceptionRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleExceptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_exceptions")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), nil, &models.ScheduleException{
		RecurringScheduleID: "E", ExceptionDate: date(t, "2024-10-08"), ExceptionType: models.ExceptionTypeCancelled, Reason: "holiday",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleExceptionRepositoryUpsertKeepsExistingID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleExceptionRepository(db)

	created := time.Date(2024, 9, 30, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (recurring_schedule_id, exception_date) DO UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("exc-existing", created))

	exc := &models.ScheduleException{RecurringScheduleID: "E", ExceptionDate: date(t, "2024-10-08"), ExceptionType: models.ExceptionTypeMoved, Reason: "fair"}
	require.NoError(t, repo.Upsert(context.Background(), nil, exc))
	assert.Equal(t, "exc-existing", exc.ID)
	assert.Equal(t, created, exc.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleExceptionRepositoryFindByScheduleAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleExceptionRepository(db)

	d := date(t, "2024-10-08")
	newDate := date(t, "2024-10-09")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE se.recurring_schedule_id = $1 AND se.exception_date = $2")).
		WithArgs("E", d).
		WillReturnRows(sqlmock.NewRows(exceptionRowColumns).
			AddRow("exc-1", "E", d, "moved", newDate, "S1", "R102", nil, "fair", nil, nil, time.Now(), time.Now()))

	exc, err := repo.FindByScheduleAndDate(context.Background(), nil, "E", d)
	require.NoError(t, err)
	assert.Equal(t, models.ExceptionTypeMoved, exc.ExceptionType)
	require.NotNil(t, exc.NewRoomID)
	assert.Equal(t, "R102", *exc.NewRoomID)
	assert.True(t, exc.HasRelocation())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE se.recurring_schedule_id = $1 AND se.exception_date = $2")).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByScheduleAndDate(context.Background(), nil, "E", newDate)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleExceptionRepositoryListRelocationsIntoRoom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleExceptionRepository(db)

	d := date(t, "2024-10-09")
	mock.ExpectQuery(`COALESCE\(se\.new_room_id, rs\.room_id\) = \$5 .*IS DISTINCT FROM rs\.room_id.*rs\.id <> \$6`).
		WithArgs(d, d, 4, "S1", "R102", "F").
		WillReturnRows(sqlmock.NewRows(exceptionRowColumns).
			AddRow("exc-1", "E", date(t, "2024-10-08"), "moved", d, "S1", "R102", nil, "fair", nil, nil, time.Now(), time.Now()))

	list, err := repo.ListRelocationsInto(context.Background(), nil, models.ConflictDimensionRoom, models.ConflictQuery{
		RoomID: "R102", DayOfWeek: 4, TimeSlotID: "S1", StartDate: d, EndDate: d, ExcludeScheduleID: "F",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "E", list[0].RecurringScheduleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleExceptionRepositoryListSubstitutions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleExceptionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("se.substitute_teacher_id = $1")).
		WithArgs("T2", 3, "S1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(exceptionRowColumns))

	list, err := repo.ListSubstitutionsFor(context.Background(), nil, models.ConflictQuery{
		TeacherID: "T2", DayOfWeek: 3, TimeSlotID: "S1", StartDate: date(t, "2024-10-01"), EndDate: date(t, "2024-10-31"),
	})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleExceptionRepositoryListBySchedulesSkipsEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleExceptionRepository(db)

	list, err := repo.ListBySchedules(context.Background(), nil, nil, time.Now(), time.Now())
	require.NoError(t, err)
	assert.Nil(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleExceptionRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleExceptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_exceptions")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), nil, "missing"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleExceptionRepositoryListEntryRelocationsOnto(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleExceptionRepository(db)

	target := date(t, "2024-10-15")
	original := date(t, "2024-10-08")
	created := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND se.exception_date <> $4")).
		WithArgs("E", target, "S1", original).
		WillReturnRows(sqlmock.NewRows(exceptionRowColumns).
			AddRow("exc-1", "E", date(t, "2024-10-01"), "moved", target, "S1", "R102", nil, "fair", nil, nil, created, created))

	list, err := repo.ListEntryRelocationsOnto(context.Background(), nil, "E", target, "S1", original)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "exc-1", list[0].ID)
	assert.Equal(t, "R102", *list[0].NewRoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
