package services

import (
	"fmt"

	"kopi-store/lang"
	"kopi-store/models"
)

var nextStatus = map[models.OrderStatus]models.OrderStatus{
	models.OrderStatusReceived:  models.OrderStatusPreparing,
	models.OrderStatusPreparing: models.OrderStatusReady,
	models.OrderStatusReady:     models.OrderStatusCollected,
}

// NextStatus returns the single forward step from s. Collected and
// cancelled orders have none.
func NextStatus(s models.OrderStatus) (models.OrderStatus, error) {
	next, ok := nextStatus[s]
	if !ok {
		return "", fmt.Errorf("%w: no status after %q", ErrInvalidTransition, s)
	}
	return next, nil
}

// ValidStatusTransition reports whether from -> to is allowed: the forward
// step, or an administrative cancel of a non-terminal order.
func ValidStatusTransition(from, to models.OrderStatus) bool {
	if to == models.OrderStatusCancelled {
		_, ok := nextStatus[from]
		return ok
	}
	next, ok := nextStatus[from]
	return ok && next == to
}

// StatusLabel is the display name of s in langCode.
func StatusLabel(langCode string, s models.OrderStatus) string {
	if !s.Valid() {
		return string(s)
	}
	return lang.T(langCode, "status_"+string(s))
}

// AdvanceLabel is the button text for moving an order on from s, or "" when
// the order is terminal.
func AdvanceLabel(langCode string, s models.OrderStatus) string {
	if _, ok := nextStatus[s]; !ok {
		return ""
	}
	return lang.T(langCode, "action_"+string(s))
}
