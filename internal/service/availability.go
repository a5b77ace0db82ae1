package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusbook/internal/database"
	"campusbook/internal/domain"
	"campusbook/internal/metrics"
	"campusbook/internal/models"
	"campusbook/internal/repository"

	"github.com/rs/zerolog"
)

// AvailabilityService отвечает на вопрос "можно ли занять слот".
// Проверки идут от дешёвых к дорогим и падают на первой нарушенной:
// формат слота, помещение, праздник, рабочие часы, пересечения.
type AvailabilityService struct {
	ref      domain.ReferenceStore
	bookings domain.BookingRepository
	cache    domain.ReferenceCache
	logger   *zerolog.Logger
}

func NewAvailabilityService(ref domain.ReferenceStore, bookings domain.BookingRepository, cache domain.ReferenceCache, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		ref:      ref,
		bookings: bookings,
		cache:    cache,
		logger:   logger,
	}
}

// CheckAvailability возвращает nil, если слот [start,end) на дату date свободен
// для facilityID. Любая другая причина — конкретная доменная ошибка.
// Результат "свободно" не резервирует слот: финальная проверка пересечений
// повторяется внутри транзакции создания брони.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, facilityID int64, date time.Time, start, end string) error {
	if !models.ValidClock(start) || !models.ValidClock(end) {
		metrics.IncConflict("bad_slot")
		return fmt.Errorf("%w: times must be HH:MM", ErrValidation)
	}
	if start >= end {
		metrics.IncConflict("bad_slot")
		return fmt.Errorf("%w: start %q must be before end %q", ErrValidation, start, end)
	}

	facility, err := s.ref.GetFacility(ctx, facilityID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.IncConflict("facility_missing")
			return fmt.Errorf("%w: facility %d", database.ErrNotFound, facilityID)
		}
		return err
	}
	if facility.Status != models.FacilityAvailable {
		metrics.IncConflict("facility_status")
		return fmt.Errorf("%w: facility %d is %s", ErrFacilityUnavailable, facilityID, facility.Status)
	}

	holidays, err := s.holidays(ctx)
	if err != nil {
		return err
	}
	for _, h := range holidays {
		if h.Matches(date) {
			metrics.IncConflict("holiday")
			return fmt.Errorf("%w: %s", ErrHolidayConflict, h.Name)
		}
	}

	campus, err := s.campus(ctx, facility.CampusID)
	if err != nil {
		return err
	}
	if !campus.WithinWorkingHours(start, end) {
		metrics.IncConflict("working_hours")
		return fmt.Errorf("%w: campus %s is open %s-%s", ErrOutsideWorkingHours, campus.Code, campus.OpenTime, campus.CloseTime)
	}

	overlapping, err := s.bookings.CountOverlapping(ctx, facilityID, date, start, end)
	if err != nil {
		return err
	}
	if overlapping > 0 {
		metrics.IncConflict("slot_conflict")
		return fmt.Errorf("%w: %d overlapping booking(s)", database.ErrSlotConflict, overlapping)
	}

	return nil
}

// Campus возвращает кампус помещения, через кэш.
func (s *AvailabilityService) Campus(ctx context.Context, campusID int64) (*models.Campus, error) {
	return s.campus(ctx, campusID)
}

func (s *AvailabilityService) campus(ctx context.Context, campusID int64) (*models.Campus, error) {
	if s.cache != nil {
		campus, err := s.cache.GetCampus(ctx, campusID)
		if err == nil {
			return campus, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn().Err(err).Int64("campus_id", campusID).Msg("campus cache read failed")
		}
	}

	campus, err := s.ref.GetCampus(ctx, campusID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCampus(ctx, campus); err != nil {
			s.logger.Warn().Err(err).Int64("campus_id", campusID).Msg("campus cache write failed")
		}
	}
	return campus, nil
}

func (s *AvailabilityService) holidays(ctx context.Context) ([]*models.Holiday, error) {
	if s.cache != nil {
		holidays, err := s.cache.GetHolidays(ctx)
		if err == nil {
			return holidays, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("holidays cache read failed")
		}
	}

	holidays, err := s.ref.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetHolidays(ctx, holidays); err != nil {
			s.logger.Warn().Err(err).Msg("holidays cache write failed")
		}
	}
	return holidays, nil
}
