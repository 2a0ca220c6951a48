package services

import (
	"fmt"
	"sort"
	"time"

	"kopi-store/models"
)

// Calendar resolves opening hours per date: a special day fully replaces
// the weekly entry for its date.
type Calendar struct {
	Weekly      models.WeeklyHours
	SpecialDays []models.SpecialDay
	Location    *time.Location
}

// NewCalendar builds a calendar from stored settings. An unknown time zone
// falls back to UTC with an error so callers can log it.
func NewCalendar(s *models.StoreSettings) (Calendar, error) {
	cal := Calendar{
		Weekly:      s.Weekly,
		SpecialDays: append([]models.SpecialDay(nil), s.SpecialDays...),
		Location:    time.UTC,
	}
	if s.TimeZone == "" {
		return cal, nil
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return cal, fmt.Errorf("load time zone %q: %w", s.TimeZone, err)
	}
	cal.Location = loc
	return cal, nil
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// SpecialDayOn returns the override for d, if any.
func (c Calendar) SpecialDayOn(d models.Date) (models.SpecialDay, bool) {
	for _, sd := range c.SpecialDays {
		if sd.Date == d {
			return sd, true
		}
	}
	return models.SpecialDay{}, false
}

// HoursOn returns the effective hours for d and the special day that
// produced them, if one did.
func (c Calendar) HoursOn(d models.Date) (models.DayHours, *models.SpecialDay) {
	if sd, ok := c.SpecialDayOn(d); ok {
		return sd.Hours(), &sd
	}
	return c.Weekly[d.Weekday()], nil
}

func (c Calendar) IsOpenOn(d models.Date) bool {
	h, _ := c.HoursOn(d)
	return h.IsOpen
}

// EffectiveHours returns the operating window for d; ok is false when the
// store is closed all day.
func (c Calendar) EffectiveHours(d models.Date) (opens, closes models.TimeOfDay, ok bool) {
	h, _ := c.HoursOn(d)
	if !h.IsOpen {
		return 0, 0, false
	}
	return h.Open, h.Close, true
}

// IsOpenAt reports whether t falls inside the operating window of its
// store-local date.
func (c Calendar) IsOpenAt(t time.Time) bool {
	local := t.In(c.location())
	h, _ := c.HoursOn(models.DateOf(local))
	return h.Contains(models.TimeOfDayOf(local))
}

// LocalDate is the store-local calendar date of t.
func (c Calendar) LocalDate(t time.Time) models.Date {
	return models.DateOf(t.In(c.location()))
}

// AddSpecialDay inserts sd. A second entry for the same date is rejected
// and leaves the calendar untouched.
func (c *Calendar) AddSpecialDay(sd models.SpecialDay) error {
	if err := validateSpecialDay(sd); err != nil {
		return err
	}
	if _, ok := c.SpecialDayOn(sd.Date); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSpecialDay, sd.Date)
	}
	days := make([]models.SpecialDay, 0, len(c.SpecialDays)+1)
	days = append(days, c.SpecialDays...)
	days = append(days, sd)
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	c.SpecialDays = days
	return nil
}

func (c *Calendar) RemoveSpecialDay(id string) error {
	for i, sd := range c.SpecialDays {
		if sd.ID == id {
			days := make([]models.SpecialDay, 0, len(c.SpecialDays)-1)
			days = append(days, c.SpecialDays[:i]...)
			days = append(days, c.SpecialDays[i+1:]...)
			c.SpecialDays = days
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrSpecialDayNotFound, id)
}

// Validate checks every open day has Open < Close and special-day dates
// are unique.
func (c Calendar) Validate() error {
	if err := ValidateWeeklyHours(c.Weekly); err != nil {
		return err
	}
	seen := make(map[models.Date]bool, len(c.SpecialDays))
	for _, sd := range c.SpecialDays {
		if err := validateSpecialDay(sd); err != nil {
			return err
		}
		if seen[sd.Date] {
			return fmt.Errorf("%w: %s", ErrDuplicateSpecialDay, sd.Date)
		}
		seen[sd.Date] = true
	}
	return nil
}

func ValidateWeeklyHours(w models.WeeklyHours) error {
	for day, h := range w {
		if err := validateHours(h); err != nil {
			return newValidationError(time.Weekday(day).String(), err.Error())
		}
	}
	return nil
}

func validateSpecialDay(sd models.SpecialDay) error {
	if sd.Date.IsZero() {
		return newValidationError("date", "date is required")
	}
	if err := validateHours(sd.Hours()); err != nil {
		return newValidationError(sd.Date.String(), err.Error())
	}
	if sd.MaxOrdersPerWindow != nil && *sd.MaxOrdersPerWindow < 0 {
		return newValidationError("max_orders_per_window", "must be >= 0")
	}
	return nil
}

func validateHours(h models.DayHours) error {
	if !h.IsOpen {
		return nil
	}
	if h.Open < 0 || h.Close > models.EndOfDay {
		return fmt.Errorf("hours out of range")
	}
	if h.Open >= h.Close {
		return fmt.Errorf("open time %s must be before close time %s", h.Open, h.Close)
	}
	return nil
}
