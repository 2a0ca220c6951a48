package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"kopi-store/services"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	MenuItemID string `json:"menu_item_id,omitempty"`
}

var errorKinds = []struct {
	err    error
	code   string
	status int
}{
	{services.ErrOrderNotFound, "order_not_found", http.StatusNotFound},
	{services.ErrInvalidTransition, "invalid_transition", http.StatusConflict},
	{services.ErrStoreClosed, "store_closed", http.StatusConflict},
	{services.ErrCapacityExceeded, "capacity_exceeded", http.StatusTooManyRequests},
	{services.ErrDuplicateSpecialDay, "duplicate_special_day", http.StatusConflict},
	{services.ErrSpecialDayNotFound, "special_day_not_found", http.StatusNotFound},
	{services.ErrMenuItemNotFound, "menu_item_not_found", http.StatusNotFound},
	{services.ErrMenuItemExists, "menu_item_exists", http.StatusConflict},
	{services.ErrSettingsNotFound, "store_not_found", http.StatusNotFound},
}

// errorCode classifies err into a stable code and HTTP status.
func errorCode(err error) (errorBody, int) {
	body := errorBody{Message: err.Error()}

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		body.Error, body.Field = "validation", ve.Field
		return body, http.StatusBadRequest
	}
	var iu *services.ItemUnavailableError
	if errors.As(err, &iu) {
		body.Error, body.MenuItemID = "item_unavailable", iu.MenuItemID
		return body, http.StatusConflict
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			body.Error = k.code
			return body, k.status
		}
	}
	body.Error, body.Message = "internal", "internal error"
	return body, http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	body, status := errorCode(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "validation", Message: err.Error()})
}

func errInvalidQuery(name, value string) error {
	return fmt.Errorf("invalid %s: %q", name, value)
}

func errMissingField(name string) error {
	return fmt.Errorf("%s is required", name)
}

func errWeekLength(n int) error {
	return fmt.Errorf("weekly hours need 7 entries (Sunday first), got %d", n)
}
