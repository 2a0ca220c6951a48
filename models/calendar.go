package models

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	return d.In(time.UTC).Before(o.In(time.UTC))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a wall-clock time in minutes since midnight. 24:00 is
// allowed so a day can close at midnight.
type TimeOfDay int

const EndOfDay TimeOfDay = 24 * 60

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// TimeOfDayOf returns the wall-clock time of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if n, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || n != 2 || len(s) != 5 {
		return 0, fmt.Errorf("parse time of day %q: want HH:MM", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("parse time of day %q: out of range", s)
	}
	return NewTimeOfDay(h, m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = 0
		return nil
	}
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type DayHours struct {
	Open   TimeOfDay `json:"open" yaml:"open"`
	Close  TimeOfDay `json:"close" yaml:"close"`
	IsOpen bool      `json:"is_open" yaml:"is_open"`
}

// Contains reports whether tod falls in [Open, Close) on an open day.
func (h DayHours) Contains(tod TimeOfDay) bool {
	return h.IsOpen && tod >= h.Open && tod < h.Close
}

// WeeklyHours holds one entry per weekday, indexed by time.Weekday.
type WeeklyHours [7]DayHours

// SpecialDay overrides the weekly entry for a single date.
type SpecialDay struct {
	ID     string    `json:"id" yaml:"id"`
	Date   Date      `json:"date" yaml:"date"`
	IsOpen bool      `json:"is_open" yaml:"is_open"`
	Open   TimeOfDay `json:"open" yaml:"open"`
	Close  TimeOfDay `json:"close" yaml:"close"`
	Note   string    `json:"note" yaml:"note"`
	// MaxOrdersPerWindow replaces the store policy cap on this date when set.
	MaxOrdersPerWindow *int `json:"max_orders_per_window,omitempty" yaml:"max_orders_per_window"`
}

func (s SpecialDay) Hours() DayHours {
	return DayHours{Open: s.Open, Close: s.Close, IsOpen: s.IsOpen}
}
