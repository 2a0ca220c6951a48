// Package seed loads initial store settings and menu from YAML.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"kopi-store/models"
	"kopi-store/services"
)

//go:embed default.yaml
var defaultSeed []byte

type File struct {
	Info        models.StoreInfo           `yaml:"info"`
	TimeZone    string                     `yaml:"time_zone"`
	Policy      models.AdmissionPolicy     `yaml:"policy"`
	WeeklyHours map[string]models.DayHours `yaml:"weekly_hours"`
	SpecialDays []models.SpecialDay        `yaml:"special_days"`
	Menu        []models.MenuItem          `yaml:"menu"`
}

// Default returns the built-in seed.
func Default() (*File, error) {
	return Parse(defaultSeed)
}

// Load reads a seed file from disk; an empty path means the built-in seed.
func Load(path string) (*File, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for day := range f.WeeklyHours {
		if _, ok := weekdayByName(day); !ok {
			return nil, fmt.Errorf("parse seed: unknown weekday %q", day)
		}
	}
	return &f, nil
}

func weekdayByName(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, true
		}
	}
	return 0, false
}

// Settings builds StoreSettings for storeID. A non-empty timeZone replaces
// the one in the file. Weekdays missing from the file are closed.
func (f *File) Settings(storeID, timeZone string) *models.StoreSettings {
	s := &models.StoreSettings{
		StoreID:     storeID,
		Info:        f.Info,
		Policy:      f.Policy,
		TimeZone:    f.TimeZone,
		SpecialDays: append([]models.SpecialDay(nil), f.SpecialDays...),
	}
	if timeZone != "" {
		s.TimeZone = timeZone
	}
	for name, h := range f.WeeklyHours {
		if d, ok := weekdayByName(name); ok {
			s.Weekly[d] = h
		}
	}
	return s
}

type Result struct {
	SettingsCreated bool
	MenuItems       int
}

// Apply writes the seed for a store that has not been set up yet. Existing
// settings are kept and menu items are only added to an empty menu.
func Apply(ctx context.Context, svc *services.Services, f *File, storeID, timeZone string) (Result, error) {
	var res Result
	created, err := svc.Settings.Ensure(ctx, f.Settings(storeID, timeZone))
	if err != nil {
		return res, fmt.Errorf("seed settings: %w", err)
	}
	res.SettingsCreated = created

	existing, err := svc.Menu.List(ctx, storeID, "")
	if err != nil {
		return res, fmt.Errorf("seed menu: %w", err)
	}
	if len(existing) == 0 {
		for _, item := range f.Menu {
			item.StoreID = storeID
			if _, err := svc.Menu.Create(ctx, item); err != nil {
				return res, fmt.Errorf("seed menu item %s: %w", item.ID, err)
			}
			res.MenuItems++
		}
	}
	log.Info().Str("store_id", storeID).Bool("settings_created", res.SettingsCreated).
		Int("menu_items", res.MenuItems).Msg("seed applied")
	return res, nil
}
