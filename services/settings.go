package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"kopi-store/models"
)

// SettingsService edits store info, weekly hours, special days and the
// admission policy.
type SettingsService struct {
	deps  Deps
	locks *storeLocks
}

func (s *SettingsService) Get(ctx context.Context, storeID string) (*models.StoreSettings, error) {
	return s.deps.Settings.Get(ctx, storeID)
}

// Calendar returns the business calendar of the store.
func (s *SettingsService) Calendar(ctx context.Context, storeID string) (Calendar, error) {
	settings, err := s.deps.Settings.Get(ctx, storeID)
	if err != nil {
		return Calendar{}, err
	}
	cal, err := NewCalendar(settings)
	if err != nil {
		log.Warn().Err(err).Str("store_id", storeID).Msg("falling back to UTC")
	}
	return cal, nil
}

// Ensure stores settings for a store that has none yet and reports whether
// it did. Existing settings are left alone.
func (s *SettingsService) Ensure(ctx context.Context, settings *models.StoreSettings) (bool, error) {
	unlock := s.locks.lock(settings.StoreID)
	defer unlock()

	_, err := s.deps.Settings.Get(ctx, settings.StoreID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrSettingsNotFound) {
		return false, err
	}
	if err := s.validate(settings); err != nil {
		return false, err
	}
	for i := range settings.SpecialDays {
		if settings.SpecialDays[i].ID == "" {
			settings.SpecialDays[i].ID = newID("special")
		}
	}
	settings.UpdatedAt = s.deps.Clock.Now()
	if err := s.deps.Settings.Upsert(ctx, settings); err != nil {
		return false, fmt.Errorf("store settings: %w", err)
	}
	return true, nil
}

func (s *SettingsService) validate(settings *models.StoreSettings) error {
	if strings.TrimSpace(settings.StoreID) == "" {
		return newValidationError("store_id", "store is required")
	}
	if settings.TimeZone != "" {
		if _, err := time.LoadLocation(settings.TimeZone); err != nil {
			return newValidationError("time_zone", err.Error())
		}
	}
	if err := validatePolicy(settings.Policy); err != nil {
		return err
	}
	cal := Calendar{Weekly: settings.Weekly, SpecialDays: settings.SpecialDays}
	return cal.Validate()
}

// update loads the settings under the store lock, applies fn and stores the
// result.
func (s *SettingsService) update(ctx context.Context, storeID string, fn func(*models.StoreSettings) error) (*models.StoreSettings, error) {
	unlock := s.locks.lock(storeID)
	defer unlock()

	settings, err := s.deps.Settings.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := fn(settings); err != nil {
		return nil, err
	}
	settings.UpdatedAt = s.deps.Clock.Now()
	if err := s.deps.Settings.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("store settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsService) UpdateInfo(ctx context.Context, storeID string, info models.StoreInfo) (*models.StoreSettings, error) {
	if strings.TrimSpace(info.Name) == "" {
		return nil, newValidationError("name", "store name is required")
	}
	return s.update(ctx, storeID, func(st *models.StoreSettings) error {
		st.Info = info
		return nil
	})
}

func (s *SettingsService) UpdateWeeklyHours(ctx context.Context, storeID string, weekly models.WeeklyHours) (*models.StoreSettings, error) {
	if err := ValidateWeeklyHours(weekly); err != nil {
		return nil, err
	}
	settings, err := s.update(ctx, storeID, func(st *models.StoreSettings) error {
		st.Weekly = weekly
		return nil
	})
	if err == nil {
		log.Info().Str("store_id", storeID).Msg("business hours updated")
	}
	return settings, err
}

func (s *SettingsService) UpdatePolicy(ctx context.Context, storeID string, p models.AdmissionPolicy) (*models.StoreSettings, error) {
	if err := validatePolicy(p); err != nil {
		return nil, err
	}
	settings, err := s.update(ctx, storeID, func(st *models.StoreSettings) error {
		st.Policy = p
		return nil
	})
	if err == nil {
		log.Info().Str("store_id", storeID).Int("max_orders_per_window", p.MaxOrdersPerWindow).
			Dur("window", p.Window()).Msg("admission policy updated")
	}
	return settings, err
}

func validatePolicy(p models.AdmissionPolicy) error {
	if p.MaxOrdersPerWindow < 0 {
		return newValidationError("max_orders_per_window", "must be >= 0")
	}
	if p.WindowMinutes < 0 {
		return newValidationError("window_minutes", "must be >= 0")
	}
	return nil
}

// AddSpecialDay adds a date override. A date that already has one fails
// with ErrDuplicateSpecialDay and nothing is stored.
func (s *SettingsService) AddSpecialDay(ctx context.Context, storeID string, sd models.SpecialDay) (*models.SpecialDay, error) {
	unlock := s.locks.lock(storeID)
	defer unlock()

	settings, err := s.deps.Settings.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if sd.ID == "" {
		sd.ID = newID("special")
	}
	cal := Calendar{Weekly: settings.Weekly, SpecialDays: settings.SpecialDays}
	if err := cal.AddSpecialDay(sd); err != nil {
		return nil, err
	}
	if err := s.deps.Settings.InsertSpecialDay(ctx, storeID, sd); err != nil {
		return nil, err
	}
	log.Info().Str("store_id", storeID).Str("date", sd.Date.String()).Bool("open", sd.IsOpen).Msg("special day added")
	return &sd, nil
}

func (s *SettingsService) RemoveSpecialDay(ctx context.Context, storeID, id string) error {
	unlock := s.locks.lock(storeID)
	defer unlock()

	settings, err := s.deps.Settings.Get(ctx, storeID)
	if err != nil {
		return err
	}
	cal := Calendar{SpecialDays: settings.SpecialDays}
	if err := cal.RemoveSpecialDay(id); err != nil {
		return err
	}
	if err := s.deps.Settings.DeleteSpecialDay(ctx, storeID, id); err != nil {
		return err
	}
	log.Info().Str("store_id", storeID).Str("special_day_id", id).Msg("special day removed")
	return nil
}

// Status reports whether the store is open right now and how much of the
// current capacity window is used.
func (s *SettingsService) Status(ctx context.Context, storeID string) (*models.StoreStatus, error) {
	settings, err := s.deps.Settings.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	cal, _ := NewCalendar(settings)
	now := s.deps.Clock.Now()
	count, err := s.deps.Orders.CountCreatedBetween(ctx, storeID, WindowStart(now, settings.Policy), now)
	if err != nil {
		return nil, fmt.Errorf("count orders in window: %w", err)
	}

	today := cal.LocalDate(now)
	st := &models.StoreStatus{
		StoreID:        storeID,
		At:             now,
		Open:           cal.IsOpenAt(now),
		Today:          today,
		OrdersInWindow: count,
		MaxPerWindow:   EffectiveCap(cal, settings.Policy, now),
		Remaining:      -1,
	}
	if opens, closes, ok := cal.EffectiveHours(today); ok {
		st.OpenTime, st.CloseTime = &opens, &closes
	}
	if sd, ok := cal.SpecialDayOn(today); ok {
		st.SpecialDayNote = sd.Note
	}
	if st.MaxPerWindow > 0 {
		st.Remaining = st.MaxPerWindow - count
		if st.Remaining < 0 {
			st.Remaining = 0
		}
		st.Congested = st.Remaining == 0
	}
	return st, nil
}
