package repository

import (
	"context"
	"sync"
	"time"

	"campusbook/internal/models"
)

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryReferenceCache — кэш справочников в памяти процесса, запасной вариант
// когда Redis недоступен.
type MemoryReferenceCache struct {
	campuses sync.Map
	holidays *cacheEntry
	mu       sync.RWMutex
	ttl      time.Duration
}

func NewMemoryReferenceCache(ttl time.Duration) *MemoryReferenceCache {
	if ttl <= 0 {
		ttl = models.ReferenceCacheTTL * time.Second
	}
	return &MemoryReferenceCache{ttl: ttl}
}

func (r *MemoryReferenceCache) GetCampus(ctx context.Context, id int64) (*models.Campus, error) {
	val, ok := r.campuses.Load(id)
	if !ok {
		return nil, ErrCacheMiss
	}
	entry := val.(*cacheEntry)
	if entry.expired(time.Now()) {
		r.campuses.Delete(id)
		return nil, ErrCacheMiss
	}
	return entry.value.(*models.Campus), nil
}

func (r *MemoryReferenceCache) SetCampus(ctx context.Context, campus *models.Campus) error {
	r.campuses.Store(campus.ID, &cacheEntry{value: campus, expiresAt: time.Now().Add(r.ttl)})
	return nil
}

func (r *MemoryReferenceCache) GetHolidays(ctx context.Context) ([]*models.Holiday, error) {
	r.mu.RLock()
	entry := r.holidays
	r.mu.RUnlock()

	if entry == nil || entry.expired(time.Now()) {
		return nil, ErrCacheMiss
	}
	return entry.value.([]*models.Holiday), nil
}

func (r *MemoryReferenceCache) SetHolidays(ctx context.Context, holidays []*models.Holiday) error {
	r.mu.Lock()
	r.holidays = &cacheEntry{value: holidays, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return nil
}

func (r *MemoryReferenceCache) Invalidate(ctx context.Context) error {
	r.campuses.Range(func(key, _ interface{}) bool {
		r.campuses.Delete(key)
		return true
	})
	r.mu.Lock()
	r.holidays = nil
	r.mu.Unlock()
	return nil
}
