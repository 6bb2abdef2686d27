package liquidacion

import (
	"context"
	"errors"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/surcharge"
)

// Holidays returns the effective holiday calendar: the stored one, or the
// built-in one when no calendar was ever stored. Removing every holiday
// leaves an empty calendar; RestoreDefaultHolidays brings the built-in back.
func (s *Service) Holidays(ctx context.Context) ([]model.Holiday, error) {
	hs, err := s.holidaySet(ctx)
	if err != nil {
		return nil, err
	}
	return hs.List(), nil
}

// AddHoliday rejects a zero date and a date that is already a holiday.
func (s *Service) AddHoliday(ctx context.Context, h model.Holiday) error {
	if h.Date.IsZero() {
		return validationErr("date", "is required")
	}
	if err := s.seedHolidays(ctx); err != nil {
		return err
	}
	err := s.store.AddHoliday(ctx, h)
	if errors.Is(err, model.ErrDuplicateHoliday) {
		return err
	}
	if err != nil {
		return persistErr("add holiday", err)
	}
	s.log.Info().Str("date", h.Date.ISO()).Str("description", h.Description).Msg("holiday added")
	return nil
}

// RemoveHoliday reports whether the date was a holiday.
func (s *Service) RemoveHoliday(ctx context.Context, d model.Date) (bool, error) {
	if err := s.seedHolidays(ctx); err != nil {
		return false, err
	}
	ok, err := s.store.RemoveHoliday(ctx, d)
	if err != nil {
		return false, persistErr("remove holiday", err)
	}
	if ok {
		s.log.Info().Str("date", d.ISO()).Msg("holiday removed")
	}
	return ok, nil
}

// RestoreDefaultHolidays replaces the stored calendar with the built-in one.
func (s *Service) RestoreDefaultHolidays(ctx context.Context) (int, error) {
	defaults := surcharge.DefaultHolidays()
	if err := s.store.ReplaceHolidays(ctx, defaults); err != nil {
		return 0, persistErr("replace holidays", err)
	}
	s.log.Info().Int("holidays", len(defaults)).Msg("holiday calendar restored")
	return len(defaults), nil
}

// seedHolidays stores the built-in calendar before the first edit, so editing
// an unseeded store starts from the calendar the batches were using.
func (s *Service) seedHolidays(ctx context.Context) error {
	_, seeded, err := s.storedHolidays(ctx)
	if err != nil {
		return err
	}
	if seeded {
		return nil
	}
	if err := s.store.ReplaceHolidays(ctx, surcharge.DefaultHolidays()); err != nil {
		return persistErr("seed holidays", err)
	}
	return nil
}
