package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/uniroom-api/internal/models"
)

type timeSlotStore interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

// TimeSlotService serves the time slot catalog through the cache.
type TimeSlotService struct {
	repo   timeSlotStore
	cache  *CacheService
	logger *zap.Logger
}

// NewTimeSlotService constructs the service. cache may be nil.
func NewTimeSlotService(repo timeSlotStore, cache *CacheService, logger *zap.Logger) *TimeSlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotService{repo: repo, cache: cache, logger: logger}
}

// List returns every slot in display order.
func (s *TimeSlotService) List(ctx context.Context) ([]models.TimeSlot, error) {
	slots, _, err := s.ListCached(ctx)
	return slots, err
}

// ListCached is List plus whether the cache served it.
func (s *TimeSlotService) ListCached(ctx context.Context) ([]models.TimeSlot, bool, error) {
	slots, hit, err := readThrough(ctx, s.cache, cacheKeyTimeSlots, s.repo.List)
	if err != nil {
		return nil, false, notFoundOr(err, "time slot not found", "failed to list time slots")
	}
	return slots, hit, nil
}

// Get returns one slot.
func (s *TimeSlotService) Get(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "time slot not found", "failed to load time slot")
	}
	return slot, nil
}

// order maps slot IDs onto their display position.
func (s *TimeSlotService) order(ctx context.Context) map[string]int {
	slots, err := s.List(ctx)
	if err != nil {
		s.logger.Warn("time slot order unavailable", zap.Error(err))
		return map[string]int{}
	}
	order := make(map[string]int, len(slots))
	for i, slot := range slots {
		order[slot.ID] = slot.Order*1000 + i
	}
	return order
}
