package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOrderNotFound       = errors.New("order not found")
	ErrStoreClosed         = errors.New("store is closed")
	ErrCapacityExceeded    = errors.New("order capacity exceeded")
	ErrItemUnavailable     = errors.New("item unavailable")
	ErrDuplicateSpecialDay = errors.New("special day already exists for date")
	ErrSpecialDayNotFound  = errors.New("special day not found")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemExists      = errors.New("menu item already exists")
	ErrSettingsNotFound    = errors.New("store settings not found")
)

// ItemUnavailableError names the line that failed the sellability check.
type ItemUnavailableError struct {
	MenuItemID string
	Name       string
	Reason     string
}

func (e *ItemUnavailableError) Error() string {
	name := e.Name
	if name == "" {
		name = e.MenuItemID
	}
	return fmt.Sprintf("item unavailable: %s (%s)", name, e.Reason)
}

func (e *ItemUnavailableError) Is(target error) bool {
	return target == ErrItemUnavailable
}

// ValidationError reports malformed input, as opposed to a business rule
// rejecting well-formed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func newValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation helps callers tell input errors from infrastructure failures.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
