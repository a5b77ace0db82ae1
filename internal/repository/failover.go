package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"campusbook/internal/domain"
	"campusbook/internal/models"

	"github.com/rs/zerolog"
)

// FailoverReferenceCache идёт в primary (Redis), при его падении переключается
// на fallback (память) и раз в минуту пробует вернуться.
type FailoverReferenceCache struct {
	primary   domain.ReferenceCache
	fallback  domain.ReferenceCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos
}

func NewFailoverReferenceCache(primary, fallback domain.ReferenceCache, logger *zerolog.Logger) *FailoverReferenceCache {
	return &FailoverReferenceCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverReferenceCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary reference cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverReferenceCache) shouldRetryPrimary() bool {
	return time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute
}

func (r *FailoverReferenceCache) GetCampus(ctx context.Context, id int64) (*models.Campus, error) {
	if !r.isDown.Load() || r.shouldRetryPrimary() {
		campus, err := r.primary.GetCampus(ctx, id)
		if err == nil || errors.Is(err, ErrCacheMiss) {
			r.isDown.Store(false)
			return campus, err
		}
		r.markDown(err)
	}
	return r.fallback.GetCampus(ctx, id)
}

func (r *FailoverReferenceCache) SetCampus(ctx context.Context, campus *models.Campus) error {
	if !r.isDown.Load() {
		if err := r.primary.SetCampus(ctx, campus); err != nil {
			r.markDown(err)
		}
	}
	return r.fallback.SetCampus(ctx, campus)
}

func (r *FailoverReferenceCache) GetHolidays(ctx context.Context) ([]*models.Holiday, error) {
	if !r.isDown.Load() || r.shouldRetryPrimary() {
		holidays, err := r.primary.GetHolidays(ctx)
		if err == nil || errors.Is(err, ErrCacheMiss) {
			r.isDown.Store(false)
			return holidays, err
		}
		r.markDown(err)
	}
	return r.fallback.GetHolidays(ctx)
}

func (r *FailoverReferenceCache) SetHolidays(ctx context.Context, holidays []*models.Holiday) error {
	if !r.isDown.Load() {
		if err := r.primary.SetHolidays(ctx, holidays); err != nil {
			r.markDown(err)
		}
	}
	return r.fallback.SetHolidays(ctx, holidays)
}

func (r *FailoverReferenceCache) Invalidate(ctx context.Context) error {
	var primaryErr error
	if !r.isDown.Load() {
		if primaryErr = r.primary.Invalidate(ctx); primaryErr != nil {
			r.markDown(primaryErr)
		}
	}
	return r.fallback.Invalidate(ctx)
}
