package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

type classStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindClassType(ctx context.Context, id string) (*models.ClassType, error)
}

type teacherStore interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type roomLookup interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type slotLookup interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

// ScheduleRefs lists catalog identifiers a write refers to. Empty fields are
// not checked.
type ScheduleRefs struct {
	ClassID     string
	ClassTypeID string
	TeacherIDs  []string
	TimeSlotIDs []string
	RoomIDs     []string
}

// ReferenceService verifies that catalog records named by a write exist.
type ReferenceService struct {
	classes  classStore
	teachers teacherStore
	rooms    roomLookup
	slots    slotLookup
}

// NewReferenceService constructs the checker.
func NewReferenceService(classes classStore, teachers teacherStore, rooms roomLookup, slots slotLookup) *ReferenceService {
	return &ReferenceService{classes: classes, teachers: teachers, rooms: rooms, slots: slots}
}

// Check returns a not-found error naming the first missing reference.
func (s *ReferenceService) Check(ctx context.Context, refs ScheduleRefs) error {
	if refs.ClassID != "" {
		if _, err := s.classes.FindByID(ctx, refs.ClassID); err != nil {
			return notFoundOr(err, "class not found", "failed to load class")
		}
	}
	if refs.ClassTypeID != "" {
		ct, err := s.classes.FindClassType(ctx, refs.ClassTypeID)
		if err != nil {
			return notFoundOr(err, "class type not found", "failed to load class type")
		}
		if refs.ClassID != "" && ct.ClassID != refs.ClassID {
			return validationError("class type does not belong to class")
		}
	}
	for _, id := range refs.TeacherIDs {
		if id == "" {
			continue
		}
		teacher, err := s.teachers.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "teacher not found", "failed to load teacher")
		}
		if !teacher.Active {
			return appErrors.Clone(appErrors.ErrValidation, "teacher is inactive")
		}
	}
	for _, id := range refs.TimeSlotIDs {
		if id == "" {
			continue
		}
		if _, err := s.slots.FindByID(ctx, id); err != nil {
			return notFoundOr(err, "time slot not found", "failed to load time slot")
		}
	}
	for _, id := range refs.RoomIDs {
		if id == "" {
			continue
		}
		if _, err := s.rooms.FindByID(ctx, id); err != nil {
			return notFoundOr(err, "room not found", "failed to load room")
		}
	}
	return nil
}

// capacityFloor returns the headcount a room must seat for a class or class
// type. Zero means no floor.
func (s *ReferenceService) capacityFloor(ctx context.Context, classID, classTypeID string) (int, error) {
	if classTypeID != "" {
		ct, err := s.classes.FindClassType(ctx, classTypeID)
		if err != nil {
			return 0, notFoundOr(err, "class type not found", "failed to load class type")
		}
		if ct.MaxStudents > 0 {
			return ct.MaxStudents, nil
		}
		if classID == "" {
			classID = ct.ClassID
		}
	}
	if classID == "" {
		return 0, nil
	}
	class, err := s.classes.FindByID(ctx, classID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class.MaxStudents, nil
}
