package services

import (
	"fmt"
	"strings"
	"time"

	"kopi-store/lang"
	"kopi-store/models"
)

const (
	CallbackAdvance = "order_advance"
	CallbackCancel  = "order_cancel"
)

// OrderCardButton is one inline button (text + callback_data).
type OrderCardButton struct {
	Text         string
	CallbackData string
}

// OrderCardContent is the text and optional inline keyboard for an order card.
type OrderCardContent struct {
	Text    string
	Buttons [][]OrderCardButton
}

// BuildStaffCard returns the card staff see for an order. The advance button
// always names the next status so staff never pick a transition by hand.
func BuildStaffCard(o *models.Order, langCode string, loc *time.Location) OrderCardContent {
	if langCode == "" {
		langCode = lang.Ja
	}
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	b.WriteString(lang.T(langCode, "card_order", o.ID) + "\n")
	b.WriteString(lang.T(langCode, "card_customer", o.Nickname) + "\n")
	b.WriteString(lang.T(langCode, "card_pickup", o.ScheduledTime.In(loc).Format("15:04")) + "\n\n")
	for _, it := range o.Items {
		b.WriteString(lang.T(langCode, "card_item", it.Name, it.Quantity, it.LineTotal()) + "\n")
		for _, opt := range it.Options {
			b.WriteString(lang.T(langCode, "card_option", opt.Name, opt.Value) + "\n")
		}
	}
	if o.CouponDiscount > 0 {
		b.WriteString(lang.T(langCode, "card_coupon", o.CouponCode, o.CouponDiscount) + "\n")
	}
	b.WriteString(lang.T(langCode, "card_total", o.TotalAmount) + "\n")
	b.WriteString(lang.T(langCode, "card_status", StatusLabel(langCode, o.Status)))

	var buttons [][]OrderCardButton
	if label := AdvanceLabel(langCode, o.Status); label != "" {
		buttons = append(buttons, []OrderCardButton{{Text: label, CallbackData: CallbackData(CallbackAdvance, o.ID)}})
	}
	if ValidStatusTransition(o.Status, models.OrderStatusCancelled) {
		buttons = append(buttons, []OrderCardButton{{Text: lang.T(langCode, "action_cancel"), CallbackData: CallbackData(CallbackCancel, o.ID)}})
	}
	return OrderCardContent{Text: b.String(), Buttons: buttons}
}

// BuildStoreStatusText renders StoreStatus for the /status command.
func BuildStoreStatusText(st *models.StoreStatus, window time.Duration, langCode string) string {
	var lines []string
	if st.Open && st.OpenTime != nil && st.CloseTime != nil {
		lines = append(lines, lang.T(langCode, "store_open", st.OpenTime.String(), st.CloseTime.String()))
	} else {
		lines = append(lines, lang.T(langCode, "store_closed"))
	}
	if st.SpecialDayNote != "" {
		lines = append(lines, lang.T(langCode, "store_note", st.SpecialDayNote))
	}
	minutes := int(window / time.Minute)
	if st.MaxPerWindow > 0 {
		lines = append(lines, lang.T(langCode, "store_capacity", minutes, st.OrdersInWindow, st.MaxPerWindow))
	} else {
		lines = append(lines, lang.T(langCode, "store_unlimited", minutes, st.OrdersInWindow))
	}
	if st.Congested {
		lines = append(lines, lang.T(langCode, "store_congested"))
	}
	return strings.Join(lines, "\n")
}

// CallbackData encodes an order action as "<action>:<order id>".
func CallbackData(action, orderID string) string {
	return action + ":" + orderID
}

// ParseCallbackData is the inverse of CallbackData.
func ParseCallbackData(data string) (action, orderID string, err error) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid callback data %q", data)
	}
	switch parts[0] {
	case CallbackAdvance, CallbackCancel:
		return parts[0], parts[1], nil
	}
	return "", "", fmt.Errorf("unknown callback action %q", parts[0])
}
