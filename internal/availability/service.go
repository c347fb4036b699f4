package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/hackgods/availability-scheduling/internal/redis"
)

// Cache stores serialized availability windows. Get returns
// redisclient.ErrCacheMiss for absent keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Version(ctx context.Context) (int64, error)
	Bump(ctx context.Context) error
}

type Service struct {
	store  EventStore
	cache  Cache
	locker redisclient.Locker
	loc    *time.Location
	log    *zap.Logger
}

// NewService wires the availability pipeline. cache may be nil, in which
// case every request goes to the store.
func NewService(store EventStore, cache Cache, locker redisclient.Locker, loc *time.Location, log *zap.Logger) *Service {
	if locker == nil {
		locker = redisclient.NoopLocker{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  store,
		cache:  cache,
		locker: locker,
		loc:    loc,
		log:    log,
	}
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// GetAvailabilities returns the free slots of numberOfDays days starting at
// start. Errors from the event store are returned as is.
func (s *Service) GetAvailabilities(ctx context.Context, start CalendarDay, numberOfDays int) ([]DayBucket, error) {
	if s.cache == nil {
		return s.compute(ctx, start, numberOfDays)
	}

	key, err := s.cacheKey(ctx, start, numberOfDays)
	if err != nil {
		s.log.Warn("availability cache unavailable", zap.Error(err))
		return s.compute(ctx, start, numberOfDays)
	}

	if days, ok := s.fromCache(ctx, key); ok {
		return days, nil
	}

	var days []DayBucket
	var computeErr error
	lockErr := s.locker.WithLock(ctx, key, func(lockCtx context.Context) error {
		// The lock TTL bounds the cache write, not the store read.
		days, computeErr = s.compute(ctx, start, numberOfDays)
		if computeErr != nil {
			return computeErr
		}
		s.toCache(lockCtx, key, days)
		return nil
	})
	if computeErr != nil {
		return nil, computeErr
	}
	if lockErr == nil {
		return days, nil
	}
	if !errors.Is(lockErr, redisclient.ErrLockNotAcquired) {
		s.log.Warn("availability fill lock failed", zap.String("key", key), zap.Error(lockErr))
	}

	// Someone else is filling this key; answer without touching the cache.
	return s.compute(ctx, start, numberOfDays)
}

// Warm computes one window and stores it in the cache.
func (s *Service) Warm(ctx context.Context, start CalendarDay, numberOfDays int) error {
	if s.cache == nil {
		return nil
	}

	key, err := s.cacheKey(ctx, start, numberOfDays)
	if err != nil {
		return err
	}

	err = s.locker.WithLock(ctx, key, func(lockCtx context.Context) error {
		days, err := s.compute(ctx, start, numberOfDays)
		if err != nil {
			return err
		}
		s.toCache(lockCtx, key, days)
		return nil
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return nil
	}
	return err
}

func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	ev, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// CreateEvent stores a new opening or appointment and invalidates cached windows.
func (s *Service) CreateEvent(ctx context.Context, ev NewEvent) (*Event, error) {
	created, err := s.store.InsertEvent(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.invalidate(ctx)
	s.log.Info("event created",
		zap.String("event_id", created.ID.String()),
		zap.String("kind", string(created.Kind)),
		zap.Bool("weekly_recurring", created.WeeklyRecurring),
	)
	return created, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	s.invalidate(ctx)
	s.log.Info("event deleted", zap.String("event_id", id.String()))
	return nil
}

func (s *Service) compute(ctx context.Context, start CalendarDay, numberOfDays int) ([]DayBucket, error) {
	windowStart := start.Midnight(s.loc)
	windowEnd := WindowEnd(windowStart, numberOfDays)

	events, err := s.store.ListEventsInWindow(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	result := Compute(windowStart, numberOfDays, events)
	if result.Err != nil {
		s.log.Warn("weekly series skipped",
			zap.String("start", start.String()),
			zap.Int("days", numberOfDays),
			zap.Error(result.Err),
		)
	}
	if result.Dropped > 0 {
		s.log.Debug("slot marks outside window skipped",
			zap.String("start", start.String()),
			zap.Int("days", numberOfDays),
			zap.Int("dropped", result.Dropped),
		)
	}
	return result.Days, nil
}

func (s *Service) cacheKey(ctx context.Context, start CalendarDay, numberOfDays int) (string, error) {
	version, err := s.cache.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("availability:v%d:%s:%d:%s", version, start, numberOfDays, s.loc), nil
}

func (s *Service) fromCache(ctx context.Context, key string) ([]DayBucket, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redisclient.ErrCacheMiss) {
			s.log.Warn("availability cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var days []DayBucket
	if err := json.Unmarshal(data, &days); err != nil {
		s.log.Warn("availability cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	for i := range days {
		days[i].Date = days[i].Date.In(s.loc)
	}
	return days, true
}

func (s *Service) toCache(ctx context.Context, key string, days []DayBucket) {
	data, err := json.Marshal(days)
	if err != nil {
		s.log.Warn("failed to marshal availability window", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.log.Warn("availability cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.log.Warn("availability cache invalidation failed", zap.Error(err))
	}
}
