package lang

import "fmt"

const (
	Ja = "ja"
	En = "en"
)

var messages = map[string]map[string]string{
	Ja: {
		"status_received":  "受付済",
		"status_preparing": "調理中",
		"status_ready":     "準備完了",
		"status_collected": "受取済",
		"status_cancelled": "取消",

		"action_received":  "調理開始",
		"action_preparing": "準備完了にする",
		"action_ready":     "受取済にする",
		"action_cancel":    "注文を取り消す",

		"card_order":     "注文 %s",
		"card_customer":  "%sさん",
		"card_pickup":    "受取予定: %s",
		"card_total":     "合計: ¥%d",
		"card_coupon":    "クーポン %s: -¥%d",
		"card_status":    "ステータス: %s",
		"card_item":      "・%s x%d (¥%d)",
		"card_option":    "    %s: %s",
		"status_updated": "ステータスを「%s」に更新しました",

		"store_open":      "営業中 (%s〜%s)",
		"store_closed":    "休業中",
		"store_capacity":  "直近%d分の注文: %d / %d",
		"store_unlimited": "直近%d分の注文: %d (上限なし)",
		"store_congested": "混雑中のため新規注文を停止しています",
		"store_note":      "特別営業日: %s",

		"no_active_orders": "対応中の注文はありません",
		"menu_item":        "%s ¥%d",
		"menu_stock":       "残り%d",
		"open_day":         "%s(%s) %s〜%s",
		"closed_day":       "%s(%s) 休業",
		"weekday_0":        "日",
		"weekday_1":        "月",
		"weekday_2":        "火",
		"weekday_3":        "水",
		"weekday_4":        "木",
		"weekday_5":        "金",
		"weekday_6":        "土",
		"cmd_orders":       "対応中の注文",
		"cmd_status":       "営業状況と混雑状況",
		"cmd_menu":         "メニューと在庫",
		"cmd_open":         "今後7日間の営業時間",
		"cmd_stock":        "在庫の調整",
		"stock_header":     "在庫管理 (ボタンで増減)",
		"stock_updated":    "%sの在庫: %d",
		"no_stock_items":   "在庫管理中のメニューはありません",
		"unauthorized":     "このチャットでは操作できません",
		"menu_soldout":     "売切",
		"menu_hidden":      "非表示",

		"err_order_not_found":       "注文が見つかりません",
		"err_invalid_transition":    "このステータスからは更新できません",
		"err_store_closed":          "現在営業時間外です",
		"err_capacity_exceeded":     "混雑のため現在ご注文を受け付けていません",
		"err_item_unavailable":      "「%s」は現在ご注文いただけません",
		"err_duplicate_special_day": "この日付には既に特別営業日が設定されています",
		"err_special_day_not_found": "特別営業日が見つかりません",
		"err_menu_item_not_found":   "メニューが見つかりません",
		"err_menu_item_exists":      "同じIDのメニューがすでにあります",
		"err_internal":              "エラーが発生しました。もう一度お試しください。",
	},
	En: {
		"status_received":  "Received",
		"status_preparing": "Preparing",
		"status_ready":     "Ready",
		"status_collected": "Collected",
		"status_cancelled": "Cancelled",

		"action_received":  "Start preparing",
		"action_preparing": "Mark ready",
		"action_ready":     "Mark collected",
		"action_cancel":    "Cancel order",

		"card_order":     "Order %s",
		"card_customer":  "Customer: %s",
		"card_pickup":    "Pickup: %s",
		"card_total":     "Total: ¥%d",
		"card_coupon":    "Coupon %s: -¥%d",
		"card_status":    "Status: %s",
		"card_item":      "- %s x%d (¥%d)",
		"card_option":    "    %s: %s",
		"status_updated": "Status updated to %s",

		"store_open":      "Open (%s-%s)",
		"store_closed":    "Closed",
		"store_capacity":  "Orders in last %d min: %d / %d",
		"store_unlimited": "Orders in last %d min: %d (no limit)",
		"store_congested": "Congested: new orders are blocked",
		"store_note":      "Special day: %s",

		"no_active_orders": "No active orders",
		"menu_item":        "%s ¥%d",
		"menu_stock":       "%d left",
		"open_day":         "%s (%s) %s-%s",
		"closed_day":       "%s (%s) closed",
		"weekday_0":        "Sun",
		"weekday_1":        "Mon",
		"weekday_2":        "Tue",
		"weekday_3":        "Wed",
		"weekday_4":        "Thu",
		"weekday_5":        "Fri",
		"weekday_6":        "Sat",
		"cmd_orders":       "Active orders",
		"cmd_status":       "Open state and congestion",
		"cmd_menu":         "Menu and stock",
		"cmd_open":         "Opening hours for the next 7 days",
		"cmd_stock":        "Adjust stock",
		"stock_header":     "Stock (tap to adjust)",
		"stock_updated":    "%s stock: %d",
		"no_stock_items":   "No stock-managed items",
		"unauthorized":     "Not allowed from this chat",
		"menu_soldout":     "sold out",
		"menu_hidden":      "hidden",

		"err_order_not_found":       "Order not found",
		"err_invalid_transition":    "The order cannot move on from this status",
		"err_store_closed":          "The store is closed",
		"err_capacity_exceeded":     "The store is congested, try again later",
		"err_item_unavailable":      "%s is not available",
		"err_duplicate_special_day": "A special day already exists for this date",
		"err_special_day_not_found": "Special day not found",
		"err_menu_item_not_found":   "Menu item not found",
		"err_menu_item_exists":      "A menu item with this ID already exists",
		"err_internal":              "Something went wrong, please retry",
	},
}

// T returns the message for key in langCode, falling back to Japanese and
// then to the key itself.
func T(langCode, key string, args ...interface{}) string {
	m, ok := messages[langCode]
	if !ok {
		m = messages[Ja]
	}
	s, ok := m[key]
	if !ok {
		s, ok = messages[Ja][key]
		if !ok {
			return key
		}
	}
	if len(args) == 0 {
		return s
	}
	return fmt.Sprintf(s, args...)
}

func Supported(langCode string) bool {
	_, ok := messages[langCode]
	return ok
}
