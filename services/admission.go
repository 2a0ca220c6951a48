package services

import (
	"fmt"
	"strings"
	"time"

	"kopi-store/models"
)

// AdmissionRequest is everything the admission decision looks at. It is a
// snapshot: Admit never reads or writes storage.
type AdmissionRequest struct {
	Now      time.Time
	Intake   models.OrderIntake
	Calendar Calendar
	Policy   models.AdmissionPolicy
	// InWindow is the number of orders created in [Now-window, Now].
	InWindow int
	Menu     map[string]models.MenuItem
}

// Verdict is the outcome of an admission check. Reason is nil exactly when
// Accepted is true.
type Verdict struct {
	Accepted bool
	Reason   error
	Order    *models.Order
}

// WindowStart is the inclusive lower bound of the trailing capacity window.
func WindowStart(now time.Time, p models.AdmissionPolicy) time.Time {
	return now.Add(-p.Window())
}

// EffectiveCap is the order cap in force at t: a special day's override
// wins over the store policy. 0 means unlimited.
func EffectiveCap(cal Calendar, p models.AdmissionPolicy, t time.Time) int {
	if sd, ok := cal.SpecialDayOn(cal.LocalDate(t)); ok && sd.MaxOrdersPerWindow != nil {
		return *sd.MaxOrdersPerWindow
	}
	return p.MaxOrdersPerWindow
}

// Admit decides whether the intake may become an order. Checks run in a
// fixed order: input shape, open hours, capacity, then every line's
// sellability. On acceptance the returned order is priced from the menu
// and sits in the received state with no ID yet.
func Admit(req AdmissionRequest) Verdict {
	if err := validateIntake(req.Intake, req.Now); err != nil {
		return Verdict{Reason: err}
	}
	if !req.Calendar.IsOpenAt(req.Now) {
		return Verdict{Reason: fmt.Errorf("%w at %s", ErrStoreClosed, req.Now.In(req.Calendar.location()).Format(time.RFC3339))}
	}
	if limit := EffectiveCap(req.Calendar, req.Policy, req.Now); limit > 0 && req.InWindow >= limit {
		return Verdict{Reason: fmt.Errorf("%w: %d orders in the last %s (limit %d)",
			ErrCapacityExceeded, req.InWindow, req.Policy.Window(), limit)}
	}

	wanted := make(map[string]int, len(req.Intake.Items))
	for _, line := range req.Intake.Items {
		wanted[line.MenuItemID] += line.Quantity
	}
	order := &models.Order{
		StoreID:        req.Intake.StoreID,
		Nickname:       strings.TrimSpace(req.Intake.Nickname),
		Status:         models.OrderStatusReceived,
		ScheduledTime:  req.Intake.ScheduledTime,
		CreatedAt:      req.Now,
		UpdatedAt:      req.Now,
		CouponCode:     req.Intake.CouponCode,
		CouponDiscount: req.Intake.CouponDiscount,
		Items:          make([]models.OrderItem, 0, len(req.Intake.Items)),
	}
	if order.ScheduledTime.IsZero() {
		order.ScheduledTime = req.Now
	}
	for _, line := range req.Intake.Items {
		item, ok := req.Menu[line.MenuItemID]
		if !ok {
			return Verdict{Reason: &ItemUnavailableError{MenuItemID: line.MenuItemID, Reason: "not on the menu"}}
		}
		if reason := unavailableReason(&item, wanted[line.MenuItemID]); reason != "" {
			return Verdict{Reason: &ItemUnavailableError{MenuItemID: item.ID, Name: item.Name, Reason: reason}}
		}
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			UnitPrice:  item.Price,
			Quantity:   line.Quantity,
			Options:    append([]models.ItemOption(nil), line.Options...),
		})
	}
	if order.CouponDiscount > order.Subtotal() {
		return Verdict{Reason: newValidationError("coupon_discount", "discount exceeds order subtotal")}
	}
	order.RecomputeTotal()
	return Verdict{Accepted: true, Order: order}
}

func unavailableReason(item *models.MenuItem, qty int) string {
	switch {
	case !item.IsActive:
		return "not on sale"
	case !item.IsVisible:
		return "hidden"
	case item.StockManaged && item.Stock == 0:
		return "sold out"
	case !item.CanFulfil(qty):
		return fmt.Sprintf("only %d left", item.Stock)
	}
	return ""
}

func validateIntake(in models.OrderIntake, now time.Time) error {
	if strings.TrimSpace(in.StoreID) == "" {
		return newValidationError("store_id", "store is required")
	}
	if strings.TrimSpace(in.Nickname) == "" {
		return newValidationError("nickname", "nickname is required")
	}
	if len(in.Items) == 0 {
		return newValidationError("items", "at least one item is required")
	}
	for i, line := range in.Items {
		if line.MenuItemID == "" {
			return newValidationError(fmt.Sprintf("items[%d].menu_item_id", i), "menu item is required")
		}
		if line.Quantity <= 0 {
			return newValidationError(fmt.Sprintf("items[%d].quantity", i), "quantity must be positive")
		}
	}
	if in.CouponDiscount < 0 {
		return newValidationError("coupon_discount", "discount must be >= 0")
	}
	if !in.ScheduledTime.IsZero() && in.ScheduledTime.Before(now) {
		return newValidationError("scheduled_time", "pickup time is in the past")
	}
	return nil
}
