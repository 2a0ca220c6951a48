package models

import "time"

const DefaultWindowMinutes = 15

// AdmissionPolicy caps how many orders a store accepts per trailing window.
type AdmissionPolicy struct {
	// MaxOrdersPerWindow of 0 means unlimited.
	MaxOrdersPerWindow int `json:"max_orders_per_window" yaml:"max_orders_per_window"`
	WindowMinutes      int `json:"window_minutes" yaml:"window_minutes"`
}

// Window returns the trailing window length, 15 minutes when unset.
func (p AdmissionPolicy) Window() time.Duration {
	if p.WindowMinutes <= 0 {
		return DefaultWindowMinutes * time.Minute
	}
	return time.Duration(p.WindowMinutes) * time.Minute
}

type StoreInfo struct {
	Name        string `json:"name" yaml:"name"`
	Address     string `json:"address" yaml:"address"`
	Phone       string `json:"phone" yaml:"phone"`
	Description string `json:"description" yaml:"description"`
	ImageRef    string `json:"image_ref,omitempty" yaml:"image_ref"`
	IconRef     string `json:"icon_ref,omitempty" yaml:"icon_ref"`
}

// StoreSettings is everything staff edit on the settings screen.
type StoreSettings struct {
	StoreID     string          `json:"store_id"`
	Info        StoreInfo       `json:"info"`
	Weekly      WeeklyHours     `json:"weekly_hours"`
	SpecialDays []SpecialDay    `json:"special_days"`
	Policy      AdmissionPolicy `json:"policy"`
	TimeZone    string          `json:"time_zone"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StoreStatus is the live open/capacity view shown on the dashboard.
type StoreStatus struct {
	StoreID        string     `json:"store_id"`
	At             time.Time  `json:"at"`
	Open           bool       `json:"open"`
	Today          Date       `json:"today"`
	OpenTime       *TimeOfDay `json:"open_time,omitempty"`
	CloseTime      *TimeOfDay `json:"close_time,omitempty"`
	SpecialDayNote string     `json:"special_day_note,omitempty"`
	OrdersInWindow int        `json:"orders_in_window"`
	MaxPerWindow   int        `json:"max_per_window"`
	Remaining      int        `json:"remaining"` // -1 when unlimited
	Congested      bool       `json:"congested"`
}
