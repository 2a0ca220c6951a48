package services

import (
	"errors"
	"fmt"
	"strings"

	"kopi-store/lang"
	"kopi-store/models"
)

// BuildMenuText lists items with their price and what keeps them from
// being sold, for the /menu command.
func BuildMenuText(items []models.MenuItem, langCode string) string {
	var lines []string
	for _, it := range items {
		line := lang.T(langCode, "menu_item", it.Name, it.Price)
		var marks []string
		if !it.IsVisible || !it.IsActive {
			marks = append(marks, lang.T(langCode, "menu_hidden"))
		}
		if it.StockManaged {
			if it.Stock == 0 {
				marks = append(marks, lang.T(langCode, "menu_soldout"))
			} else {
				marks = append(marks, lang.T(langCode, "menu_stock", it.Stock))
			}
		}
		if len(marks) > 0 {
			line += " [" + strings.Join(marks, ", ") + "]"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// BuildOpeningHoursText renders the effective hours of n days starting at
// from, special-day notes included.
func BuildOpeningHoursText(cal Calendar, from models.Date, n int, langCode string) string {
	var lines []string
	for i := 0; i < n; i++ {
		d := from.AddDays(i)
		wd := lang.T(langCode, fmt.Sprintf("weekday_%d", int(d.Weekday())))
		var line string
		if opens, closes, ok := cal.EffectiveHours(d); ok {
			line = lang.T(langCode, "open_day", d.String(), wd, opens.String(), closes.String())
		} else {
			line = lang.T(langCode, "closed_day", d.String(), wd)
		}
		if sd, ok := cal.SpecialDayOn(d); ok && sd.Note != "" {
			line += " " + sd.Note
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// ErrorText turns a service error into a short message for staff.
func ErrorText(langCode string, err error) string {
	var iu *ItemUnavailableError
	switch {
	case errors.As(err, &iu):
		name := iu.Name
		if name == "" {
			name = iu.MenuItemID
		}
		return lang.T(langCode, "err_item_unavailable", name)
	case errors.Is(err, ErrOrderNotFound):
		return lang.T(langCode, "err_order_not_found")
	case errors.Is(err, ErrInvalidTransition):
		return lang.T(langCode, "err_invalid_transition")
	case errors.Is(err, ErrStoreClosed):
		return lang.T(langCode, "err_store_closed")
	case errors.Is(err, ErrCapacityExceeded):
		return lang.T(langCode, "err_capacity_exceeded")
	case errors.Is(err, ErrDuplicateSpecialDay):
		return lang.T(langCode, "err_duplicate_special_day")
	case errors.Is(err, ErrSpecialDayNotFound):
		return lang.T(langCode, "err_special_day_not_found")
	case errors.Is(err, ErrMenuItemNotFound):
		return lang.T(langCode, "err_menu_item_not_found")
	case errors.Is(err, ErrMenuItemExists):
		return lang.T(langCode, "err_menu_item_exists")
	}
	return lang.T(langCode, "err_internal")
}
