package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/internal/repository"
	"github.com/noah-isme/uniroom-api/pkg/database"
)

func day(raw string) time.Time {
	d, err := models.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func datePtr(raw string) *time.Time {
	d := day(raw)
	return &d
}

// snapshotter lets the fake unit of work roll stub state back.
type snapshotter interface {
	snapshot() func()
}

type fakeUoW struct {
	stores []snapshotter
	calls  int
}

func (u *fakeUoW) Do(ctx context.Context, fn database.TxFunc) error {
	u.calls++
	restores := make([]func(), 0, len(u.stores))
	for _, s := range u.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx, nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

type auditStub struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditStub) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.logs))
	for i, l := range a.logs {
		out[i] = l.Action
	}
	return out
}

type scheduleStoreStub struct {
	items map[string]models.RecurringSchedule
	seq   int
}

func newScheduleStoreStub(entries ...models.RecurringSchedule) *scheduleStoreStub {
	s := &scheduleStoreStub{items: map[string]models.RecurringSchedule{}}
	for _, e := range entries {
		s.items[e.ID] = e
	}
	return s
}

func (s *scheduleStoreStub) snapshot() func() {
	copyItems := make(map[string]models.RecurringSchedule, len(s.items))
	for k, v := range s.items {
		copyItems[k] = v
	}
	return func() { s.items = copyItems }
}

func (s *scheduleStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.RecurringSchedule) error {
	if schedule.ID == "" {
		s.seq++
		schedule.ID = fmt.Sprintf("sched-%d", s.seq)
	}
	s.items[schedule.ID] = *schedule
	return nil
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, id string) (*models.RecurringSchedule, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (s *scheduleStoreStub) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringSchedule, error) {
	return s.FindByID(ctx, id)
}

func (s *scheduleStoreStub) FindByIDs(ctx context.Context, ids []string) ([]models.RecurringSchedule, error) {
	var out []models.RecurringSchedule
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *scheduleStoreStub) sorted() []models.RecurringSchedule {
	out := make([]models.RecurringSchedule, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *scheduleStoreStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.RecurringSchedule, int, error) {
	var out []models.RecurringSchedule
	for _, item := range s.sorted() {
		if filter.ClassID != "" && item.ClassID != filter.ClassID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		out = append(out, item)
	}
	return out, len(out), nil
}

func (s *scheduleStoreStub) FindOverlapping(ctx context.Context, exec sqlx.ExtContext, dimension models.ConflictDimension, q models.ConflictQuery) ([]models.RecurringSchedule, error) {
	var out []models.RecurringSchedule
	for _, item := range s.sorted() {
		if !item.IsActive() || item.DayOfWeek != q.DayOfWeek || item.TimeSlotID != q.TimeSlotID || item.ID == q.ExcludeScheduleID {
			continue
		}
		if !models.RangesOverlap(item.StartDate, item.EndDate, q.StartDate, q.EndDate) {
			continue
		}
		if dimension == models.ConflictDimensionRoom && item.RoomValue() != q.RoomID {
			continue
		}
		if dimension == models.ConflictDimensionTeacher && item.TeacherID != q.TeacherID {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *scheduleStoreStub) ListOnSlot(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeSlotID string) ([]models.RecurringSchedule, error) {
	var out []models.RecurringSchedule
	for _, item := range s.sorted() {
		if item.IsActive() && item.RoomID != nil && item.TimeSlotID == timeSlotID && item.OccursOn(date) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *scheduleStoreStub) ListActive(ctx context.Context, q models.ActiveScheduleQuery) ([]models.RecurringSchedule, error) {
	var out []models.RecurringSchedule
	for _, item := range s.sorted() {
		if !item.IsActive() || !models.RangesOverlap(item.StartDate, item.EndDate, q.WindowStart, q.WindowEnd) {
			continue
		}
		if q.ClassID != "" && item.ClassID != q.ClassID {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *scheduleStoreStub) UpdateAssignment(ctx context.Context, exec sqlx.ExtContext, schedule *models.RecurringSchedule) error {
	current, ok := s.items[schedule.ID]
	if !ok || !current.IsActive() {
		return sql.ErrNoRows
	}
	s.items[schedule.ID] = *schedule
	return nil
}

func (s *scheduleStoreStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus) error {
	item, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.Status = status
	s.items[id] = item
	return nil
}

type exceptionStoreStub struct {
	schedules *scheduleStoreStub
	items     []models.ScheduleException
	seq       int
}

func newExceptionStoreStub(schedules *scheduleStoreStub, excs ...models.ScheduleException) *exceptionStoreStub {
	return &exceptionStoreStub{schedules: schedules, items: excs}
}

func (s *exceptionStoreStub) snapshot() func() {
	copyItems := append([]models.ScheduleException(nil), s.items...)
	return func() { s.items = copyItems }
}

func (s *exceptionStoreStub) find(scheduleID string, date time.Time) int {
	for i, exc := range s.items {
		if exc.RecurringScheduleID == scheduleID && models.SameDate(exc.ExceptionDate, date) {
			return i
		}
	}
	return -1
}

func (s *exceptionStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, exc *models.ScheduleException) error {
	if s.find(exc.RecurringScheduleID, exc.ExceptionDate) >= 0 {
		return repository.ErrDuplicate
	}
	if exc.ID == "" {
		s.seq++
		exc.ID = fmt.Sprintf("exc-%d", s.seq)
	}
	s.items = append(s.items, *exc)
	return nil
}

func (s *exceptionStoreStub) Upsert(ctx context.Context, exec sqlx.ExtContext, exc *models.ScheduleException) error {
	if i := s.find(exc.RecurringScheduleID, exc.ExceptionDate); i >= 0 {
		exc.ID = s.items[i].ID
		s.items[i] = *exc
		return nil
	}
	return s.Create(ctx, exec, exc)
}

func (s *exceptionStoreStub) FindByID(ctx context.Context, id string) (*models.ScheduleException, error) {
	for _, exc := range s.items {
		if exc.ID == id {
			found := exc
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *exceptionStoreStub) FindByScheduleAndDate(ctx context.Context, exec sqlx.ExtContext, scheduleID string, date time.Time) (*models.ScheduleException, error) {
	if i := s.find(scheduleID, date); i >= 0 {
		found := s.items[i]
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (s *exceptionStoreStub) FindRelocatedOnto(ctx context.Context, scheduleID string, date time.Time) (*models.ScheduleException, error) {
	for _, exc := range s.items {
		if exc.RecurringScheduleID != scheduleID || exc.NewDate == nil {
			continue
		}
		if exc.ExceptionType != models.ExceptionTypeMoved && exc.ExceptionType != models.ExceptionTypeExam {
			continue
		}
		if models.SameDate(*exc.NewDate, date) && !models.SameDate(exc.ExceptionDate, date) {
			found := exc
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *exceptionStoreStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleException, error) {
	var out []models.ScheduleException
	for _, exc := range s.items {
		if exc.RecurringScheduleID == scheduleID {
			out = append(out, exc)
		}
	}
	return out, nil
}

func (s *exceptionStoreStub) ListEntryRelocationsOnto(ctx context.Context, exec sqlx.ExtContext, scheduleID string, date time.Time, timeSlotID string, skip time.Time) ([]models.ScheduleException, error) {
	var out []models.ScheduleException
	for _, r := range s.relocations() {
		if r.entry.ID != scheduleID || models.SameDate(r.exc.ExceptionDate, skip) {
			continue
		}
		exc := r.exc
		placed := effectivePlacement(r.entry, &exc)
		if models.SameDate(placed.Date, date) && placed.TimeSlotID == timeSlotID {
			out = append(out, exc)
		}
	}
	return out, nil
}

func (s *exceptionStoreStub) ListBySchedules(ctx context.Context, exec sqlx.ExtContext, scheduleIDs []string, from, to time.Time) ([]models.ScheduleException, error) {
	wanted := map[string]bool{}
	for _, id := range scheduleIDs {
		wanted[id] = true
	}
	var out []models.ScheduleException
	for _, exc := range s.items {
		if wanted[exc.RecurringScheduleID] && models.RangesOverlap(exc.ExceptionDate, exc.ExceptionDate, from, to) {
			out = append(out, exc)
		}
	}
	return out, nil
}

func (s *exceptionStoreStub) relocations() []struct {
	entry models.RecurringSchedule
	exc   models.ScheduleException
} {
	var out []struct {
		entry models.RecurringSchedule
		exc   models.ScheduleException
	}
	for _, exc := range s.items {
		if exc.ExceptionType != models.ExceptionTypeMoved && exc.ExceptionType != models.ExceptionTypeExam {
			continue
		}
		entry, ok := s.schedules.items[exc.RecurringScheduleID]
		if !ok || !entry.IsActive() {
			continue
		}
		out = append(out, struct {
			entry models.RecurringSchedule
			exc   models.ScheduleException
		}{entry, exc})
	}
	return out
}

func (s *exceptionStoreStub) ListRelocatedInto(ctx context.Context, from, to time.Time) ([]models.ScheduleException, error) {
	var out []models.ScheduleException
	for _, r := range s.relocations() {
		if r.exc.NewDate == nil {
			continue
		}
		if models.RangesOverlap(*r.exc.NewDate, *r.exc.NewDate, from, to) && !models.RangesOverlap(r.exc.ExceptionDate, r.exc.ExceptionDate, from, to) {
			out = append(out, r.exc)
		}
	}
	return out, nil
}

func (s *exceptionStoreStub) ListRelocationsInto(ctx context.Context, exec sqlx.ExtContext, dimension models.ConflictDimension, q models.ConflictQuery) ([]models.ScheduleException, error) {
	var out []models.ScheduleException
	for _, r := range s.relocations() {
		exc := r.exc
		placed := effectivePlacement(r.entry, &exc)
		if !models.RangesOverlap(placed.Date, placed.Date, q.StartDate, q.EndDate) ||
			models.DayOfWeek(placed.Date) != q.DayOfWeek || placed.TimeSlotID != q.TimeSlotID ||
			r.entry.ID == q.ExcludeScheduleID {
			continue
		}
		switch dimension {
		case models.ConflictDimensionRoom:
			if placed.RoomID != q.RoomID || !placementChanged(r.entry, exc.ExceptionDate, placed) {
				continue
			}
		case models.ConflictDimensionTeacher:
			if r.entry.TeacherID != q.TeacherID || !timeChanged(r.entry, exc.ExceptionDate, placed) {
				continue
			}
		default:
			if placed.RoomID == "" || !placementChanged(r.entry, exc.ExceptionDate, placed) {
				continue
			}
		}
		out = append(out, exc)
	}
	return out, nil
}

func (s *exceptionStoreStub) ListSubstitutionsFor(ctx context.Context, exec sqlx.ExtContext, q models.ConflictQuery) ([]models.ScheduleException, error) {
	var out []models.ScheduleException
	for _, exc := range s.items {
		if exc.ExceptionType != models.ExceptionTypeSubstitute || stringValue(exc.SubstituteTeacherID) != q.TeacherID {
			continue
		}
		entry, ok := s.schedules.items[exc.RecurringScheduleID]
		if !ok || !entry.IsActive() || entry.ID == q.ExcludeScheduleID {
			continue
		}
		if entry.DayOfWeek == q.DayOfWeek && entry.TimeSlotID == q.TimeSlotID &&
			models.RangesOverlap(exc.ExceptionDate, exc.ExceptionDate, q.StartDate, q.EndDate) {
			out = append(out, exc)
		}
	}
	return out, nil
}

func (s *exceptionStoreStub) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	for i, exc := range s.items {
		if exc.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type requestStoreStub struct {
	items map[string]models.RoomRequest
	seq   int
}

func newRequestStoreStub(reqs ...models.RoomRequest) *requestStoreStub {
	s := &requestStoreStub{items: map[string]models.RoomRequest{}}
	for _, r := range reqs {
		s.items[r.ID] = r
	}
	return s
}

func (s *requestStoreStub) snapshot() func() {
	copyItems := make(map[string]models.RoomRequest, len(s.items))
	for k, v := range s.items {
		copyItems[k] = v
	}
	return func() { s.items = copyItems }
}

func (s *requestStoreStub) Create(ctx context.Context, req *models.RoomRequest) error {
	if req.ID == "" {
		s.seq++
		req.ID = fmt.Sprintf("req-%d", s.seq)
	}
	s.items[req.ID] = *req
	return nil
}

func (s *requestStoreStub) FindByID(ctx context.Context, id string) (*models.RoomRequest, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (s *requestStoreStub) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RoomRequest, error) {
	return s.FindByID(ctx, id)
}

func (s *requestStoreStub) List(ctx context.Context, filter models.RoomRequestFilter) ([]models.RoomRequest, int, error) {
	var out []models.RoomRequest
	for _, item := range s.items {
		if filter.RequesterID != "" && item.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *requestStoreStub) UpdateDecision(ctx context.Context, exec sqlx.ExtContext, decision models.RequestDecision) error {
	item, ok := s.items[decision.ID]
	if !ok || item.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	item.Status = decision.Status
	item.ApprovedBy = &decision.DecidedBy
	at := decision.DecidedAt
	item.ApprovedAt = &at
	if decision.Note != nil {
		item.Note = decision.Note
	}
	s.items[decision.ID] = item
	return nil
}

func (s *requestStoreStub) ListStalePending(ctx context.Context, asOf time.Time) ([]models.RoomRequest, error) {
	var out []models.RoomRequest
	for _, item := range s.items {
		if item.Status == models.RequestStatusPending && item.RequestDate.Before(asOf) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type catalogStub struct {
	classes    map[string]models.Class
	classTypes map[string]models.ClassType
	teachers   map[string]models.Teacher
	rooms      map[string]models.Room
	slots      map[string]models.TimeSlot
	listCalls  int
}

func newCatalogStub() *catalogStub {
	return &catalogStub{
		classes: map[string]models.Class{
			"C1": {ID: "C1", Code: "CS101", Name: "Algorithms", DepartmentID: "D1", MaxStudents: 40},
			"C2": {ID: "C2", Code: "CS102", Name: "Databases", DepartmentID: "D1", MaxStudents: 30},
		},
		classTypes: map[string]models.ClassType{
			"CT1": {ID: "CT1", ClassID: "C1", Kind: models.ClassKindPractice, GroupNumber: intPtr(1), MaxStudents: 20},
		},
		teachers: map[string]models.Teacher{
			"T1": {ID: "T1", FullName: "Ada", Active: true},
			"T2": {ID: "T2", FullName: "Grace", Active: true},
			"T3": {ID: "T3", FullName: "Edsger", Active: true},
		},
		rooms: map[string]models.Room{
			"R101": {ID: "R101", Code: "R101", Capacity: 40, RoomType: models.RoomTypeTheory, Status: models.RoomStatusAvailable},
			"R102": {ID: "R102", Code: "R102", Capacity: 40, RoomType: models.RoomTypeTheory, Status: models.RoomStatusAvailable},
			"R103": {ID: "R103", Code: "R103", Capacity: 25, RoomType: models.RoomTypeLab, Status: models.RoomStatusAvailable},
			"R104": {ID: "R104", Code: "R104", Capacity: 60, RoomType: models.RoomTypeTheory, Status: models.RoomStatusMaintenance},
		},
		slots: map[string]models.TimeSlot{
			"S1": {ID: "S1", Label: "08:00-09:40", StartTime: "08:00", EndTime: "09:40", Shift: models.ShiftMorning, Order: 1},
			"S2": {ID: "S2", Label: "09:50-11:30", StartTime: "09:50", EndTime: "11:30", Shift: models.ShiftMorning, Order: 2},
			"S3": {ID: "S3", Label: "13:00-14:40", StartTime: "13:00", EndTime: "14:40", Shift: models.ShiftAfternoon, Order: 3},
		},
	}
}

type classCatalog struct{ *catalogStub }

func (c classCatalog) FindByID(ctx context.Context, id string) (*models.Class, error) {
	item, ok := c.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (c classCatalog) FindClassType(ctx context.Context, id string) (*models.ClassType, error) {
	item, ok := c.classTypes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

type teacherCatalog struct{ *catalogStub }

func (c teacherCatalog) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	item, ok := c.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

type roomCatalog struct{ *catalogStub }

func (c roomCatalog) FindByID(ctx context.Context, id string) (*models.Room, error) {
	item, ok := c.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (c roomCatalog) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, error) {
	c.listCalls++
	var out []models.Room
	for _, room := range c.rooms {
		if filter.RoomType != "" && room.RoomType != filter.RoomType {
			continue
		}
		if room.Capacity < filter.MinCapacity {
			continue
		}
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity < out[j].Capacity
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

type slotCatalog struct{ *catalogStub }

func (c slotCatalog) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	item, ok := c.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (c slotCatalog) List(ctx context.Context) ([]models.TimeSlot, error) {
	c.listCalls++
	out := make([]models.TimeSlot, 0, len(c.slots))
	for _, slot := range c.slots {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// fixture wires every service over shared in-memory stores.
type fixture struct {
	schedules  *scheduleStoreStub
	exceptions *exceptionStoreStub
	requests   *requestStoreStub
	catalog    *catalogStub
	audit      *auditStub
	uow        *fakeUoW
	metrics    *MetricsService

	refs        *ReferenceService
	conflicts   *ConflictService
	slotSvc     *TimeSlotService
	roomSvc     *RoomService
	scheduleSvc *ScheduleService
	excSvc      *ExceptionService
	occSvc      *OccurrenceService
	requestSvc  *RoomRequestService
}

func newFixture(now time.Time, entries ...models.RecurringSchedule) *fixture {
	f := &fixture{
		schedules: newScheduleStoreStub(entries...),
		requests:  newRequestStoreStub(),
		catalog:   newCatalogStub(),
		audit:     &auditStub{},
		metrics:   NewMetricsService(),
	}
	f.exceptions = newExceptionStoreStub(f.schedules)
	f.uow = &fakeUoW{stores: []snapshotter{f.schedules, f.exceptions, f.requests}}

	f.refs = NewReferenceService(classCatalog{f.catalog}, teacherCatalog{f.catalog}, roomCatalog{f.catalog}, slotCatalog{f.catalog})
	f.conflicts = NewConflictService(f.schedules, f.exceptions, f.metrics, 366, nil)
	f.slotSvc = NewTimeSlotService(slotCatalog{f.catalog}, nil, nil)
	f.roomSvc = NewRoomService(roomCatalog{f.catalog}, f.slotSvc, f.refs, f.conflicts, nil, nil)
	f.scheduleSvc = NewScheduleService(f.schedules, f.refs, f.conflicts, f.uow, f.audit, nil, nil)
	f.excSvc = NewExceptionService(f.exceptions, f.schedules, f.refs, f.conflicts, f.uow, f.audit, nil, nil)
	f.occSvc = NewOccurrenceService(f.schedules, f.exceptions, f.slotSvc, nil)
	f.requestSvc = NewRoomRequestService(f.requests, f.schedules, f.excSvc, f.refs, f.conflicts, f.uow, f.audit, nil, nil,
		WithRoomRequestClock(func() time.Time { return now }),
		WithRoomRequestMetrics(f.metrics))
	return f
}

// entryE is the canonical Tuesday lecture: class C1, teacher T1, room R101,
// slot S1, 2024-09-01..2024-12-15.
func entryE() models.RecurringSchedule {
	return models.RecurringSchedule{
		ID:           "E",
		ClassID:      "C1",
		TeacherID:    "T1",
		RoomID:       strPtr("R101"),
		DayOfWeek:    3,
		TimeSlotID:   "S1",
		StartDate:    day("2024-09-01"),
		EndDate:      day("2024-12-15"),
		Status:       models.ScheduleStatusActive,
		DepartmentID: strPtr("D1"),
	}
}
