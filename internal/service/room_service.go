package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/uniroom-api/internal/dto"
	"github.com/noah-isme/uniroom-api/internal/models"
)

type roomStore interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

// RoomService serves the room catalog and availability searches.
type RoomService struct {
	repo      roomStore
	slots     *TimeSlotService
	refs      *ReferenceService
	conflicts *ConflictService
	cache     *CacheService
	logger    *zap.Logger
}

// NewRoomService constructs the service. cache may be nil.
func NewRoomService(repo roomStore, slots *TimeSlotService, refs *ReferenceService, conflicts *ConflictService, cache *CacheService, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, slots: slots, refs: refs, conflicts: conflicts, cache: cache, logger: logger}
}

// List returns rooms matching the query, ordered by capacity then code.
func (s *RoomService) List(ctx context.Context, query dto.RoomQuery) ([]models.Room, bool, error) {
	filter := models.RoomFilter{
		RoomType:     models.RoomType(strings.ToLower(query.RoomType)),
		Building:     query.Building,
		Status:       models.RoomStatus(strings.ToLower(query.Status)),
		DepartmentID: query.DepartmentID,
		MinCapacity:  query.MinCapacity,
	}
	key := fmt.Sprintf("%s%s:%s:%s:%s:%d", cacheKeyRoomsPrefix, filter.RoomType, filter.Building, filter.Status, filter.DepartmentID, filter.MinCapacity)
	rooms, hit, err := readThrough(ctx, s.cache, key, func(ctx context.Context) ([]models.Room, error) {
		return s.repo.List(ctx, filter)
	})
	if err != nil {
		return nil, false, notFoundOr(err, "room not found", "failed to list rooms")
	}
	return rooms, hit, nil
}

// Get returns one room.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "room not found", "failed to load room")
	}
	return room, nil
}

// Available lists rooms free on one date and slot once exceptions are
// overlaid. Rooms under maintenance are skipped. The capacity floor is the
// larger of the explicit minimum and the class type or class headcount.
func (s *RoomService) Available(ctx context.Context, query dto.AvailableRoomsQuery) ([]models.AvailableRoom, error) {
	date, err := parseDateField("date", query.Date)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query.TimeSlotID) == "" {
		return nil, validationError("timeSlotId is required")
	}
	if _, err := s.slots.Get(ctx, query.TimeSlotID); err != nil {
		return nil, err
	}

	floor, err := s.refs.capacityFloor(ctx, query.ClassID, query.ClassTypeID)
	if err != nil {
		return nil, err
	}
	if query.MinCapacity > floor {
		floor = query.MinCapacity
	}

	rooms, _, err := s.List(ctx, dto.RoomQuery{RoomType: query.RoomType, Building: query.Building, MinCapacity: floor})
	if err != nil {
		return nil, err
	}
	occupancy, err := s.conflicts.occupancyOn(ctx, date, query.TimeSlotID)
	if err != nil {
		return nil, err
	}

	available := make([]models.AvailableRoom, 0, len(rooms))
	for _, room := range rooms {
		if room.Status == models.RoomStatusMaintenance || room.Capacity < floor || occupancy.occupied[room.ID] {
			continue
		}
		candidate := models.AvailableRoom{Room: room}
		if scheduleID, ok := occupancy.freedBy[room.ID]; ok {
			id := scheduleID
			candidate.FreedByException = true
			candidate.FreedScheduleID = &id
		}
		available = append(available, candidate)
	}
	sort.SliceStable(available, func(i, j int) bool {
		if available[i].Capacity != available[j].Capacity {
			return available[i].Capacity < available[j].Capacity
		}
		return available[i].Code < available[j].Code
	})
	return available, nil
}
