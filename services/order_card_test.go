package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kopi-store/lang"
	"kopi-store/models"
)

func cardOrder(status models.OrderStatus) *models.Order {
	o := &models.Order{
		ID:            "ORD-1A2B3C4D5E",
		Nickname:      "Taro",
		Status:        status,
		ScheduledTime: time.Date(2025, 6, 2, 1, 30, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{MenuItemID: "latte", Name: "カフェラテ", UnitPrice: 480, Quantity: 2,
				Options: []models.ItemOption{{Name: "size", Value: "M"}}},
		},
		CouponCode:     "WELCOME",
		CouponDiscount: 100,
	}
	o.RecomputeTotal()
	return o
}

func TestBuildStaffCard(t *testing.T) {
	card := BuildStaffCard(cardOrder(models.OrderStatusReceived), lang.Ja, tokyo(t))
	for _, want := range []string{"注文 ORD-1A2B3C4D5E", "Taroさん", "受取予定: 10:30", "・カフェラテ x2 (¥960)",
		"size: M", "クーポン WELCOME: -¥100", "合計: ¥860", "ステータス: 受付済"} {
		assert.Contains(t, card.Text, want)
	}
	require.Len(t, card.Buttons, 2)
	assert.Equal(t, "調理開始", card.Buttons[0][0].Text)
	assert.Equal(t, "order_advance:ORD-1A2B3C4D5E", card.Buttons[0][0].CallbackData)
	assert.Equal(t, "order_cancel:ORD-1A2B3C4D5E", card.Buttons[1][0].CallbackData)
}

func TestBuildStaffCardButtonsFollowStatus(t *testing.T) {
	tests := []struct {
		status  models.OrderStatus
		buttons int
		advance string
	}{
		{models.OrderStatusReceived, 2, "Start preparing"},
		{models.OrderStatusPreparing, 2, "Mark ready"},
		{models.OrderStatusReady, 2, "Mark collected"},
		{models.OrderStatusCollected, 0, ""},
		{models.OrderStatusCancelled, 0, ""},
	}
	for _, tt := range tests {
		card := BuildStaffCard(cardOrder(tt.status), lang.En, nil)
		if len(card.Buttons) != tt.buttons {
			t.Errorf("%s: %d button rows, want %d", tt.status, len(card.Buttons), tt.buttons)
			continue
		}
		if tt.buttons > 0 && card.Buttons[0][0].Text != tt.advance {
			t.Errorf("%s: advance button %q, want %q", tt.status, card.Buttons[0][0].Text, tt.advance)
		}
	}
}

func TestParseCallbackData(t *testing.T) {
	action, id, err := ParseCallbackData(CallbackData(CallbackCancel, "ORD-1"))
	require.NoError(t, err)
	assert.Equal(t, CallbackCancel, action)
	assert.Equal(t, "ORD-1", id)

	for _, bad := range []string{"", "order_advance", "order_advance:", "refund:ORD-1"} {
		_, _, err := ParseCallbackData(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildStoreStatusText(t *testing.T) {
	opens, closes := models.NewTimeOfDay(8, 0), models.NewTimeOfDay(20, 0)
	st := &models.StoreStatus{Open: true, OpenTime: &opens, CloseTime: &closes,
		OrdersInWindow: 5, MaxPerWindow: 5, Congested: true, SpecialDayNote: "イベント"}
	text := BuildStoreStatusText(st, 15*time.Minute, lang.Ja)
	assert.Equal(t, "営業中 (08:00〜20:00)\n特別営業日: イベント\n直近15分の注文: 5 / 5\n混雑中のため新規注文を停止しています", text)

	closed := &models.StoreStatus{OrdersInWindow: 0}
	assert.Equal(t, "Closed\nOrders in last 30 min: 0 (no limit)", BuildStoreStatusText(closed, 30*time.Minute, lang.En))
}

func TestBuildMenuText(t *testing.T) {
	items := []models.MenuItem{
		{Name: "カフェラテ", Price: 480, IsActive: true, IsVisible: true},
		{Name: "アメリカーノ", Price: 400, IsActive: true, IsVisible: true, StockManaged: true},
		{Name: "クロワッサン", Price: 280, IsActive: true, IsVisible: true, StockManaged: true, Stock: 8},
		{Name: "チョコレートケーキ", Price: 480, StockManaged: true, Stock: 2},
	}
	lines := strings.Split(BuildMenuText(items, lang.Ja), "\n")
	assert.Equal(t, []string{
		"カフェラテ ¥480",
		"アメリカーノ ¥400 [売切]",
		"クロワッサン ¥280 [残り8]",
		"チョコレートケーキ ¥480 [非表示, 残り2]",
	}, lines)
}

func TestBuildOpeningHoursText(t *testing.T) {
	cal := testCalendar(t)
	require.NoError(t, cal.AddSpecialDay(models.SpecialDay{ID: "sd", Date: models.Date{Year: 2025, Month: 6, Day: 3}, Note: "棚卸し"}))
	text := BuildOpeningHoursText(cal, models.Date{Year: 2025, Month: 6, Day: 1}, 3, lang.Ja)
	assert.Equal(t, "2025-06-01(日) 休業\n2025-06-02(月) 08:00〜20:00\n2025-06-03(火) 休業 棚卸し", text)
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("wrap: %w", ErrOrderNotFound), "err_order_not_found"},
		{ErrInvalidTransition, "err_invalid_transition"},
		{ErrStoreClosed, "err_store_closed"},
		{ErrCapacityExceeded, "err_capacity_exceeded"},
		{ErrDuplicateSpecialDay, "err_duplicate_special_day"},
		{ErrSpecialDayNotFound, "err_special_day_not_found"},
		{ErrMenuItemNotFound, "err_menu_item_not_found"},
		{errors.New("boom"), "err_internal"},
	}
	for _, tt := range tests {
		if got, want := ErrorText(lang.En, tt.err), lang.T(lang.En, tt.want); got != want {
			t.Errorf("ErrorText(%v) = %q, want %q", tt.err, got, want)
		}
	}
	iu := &ItemUnavailableError{MenuItemID: "croissant", Name: "クロワッサン", Reason: "sold out"}
	assert.Equal(t, "「クロワッサン」は現在ご注文いただけません", ErrorText(lang.Ja, iu))
}
