package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"kopi-store/lang"
	"kopi-store/models"
	"kopi-store/services"
)

const (
	stockCallbackPrefix = "stock:"
	stockAdd            = "add"
	stockSub            = "sub"
	stockZero           = "zero"
)

func stockCallbackData(op, itemID string) string {
	return stockCallbackPrefix + op + ":" + itemID
}

// stockKeyboard has one row per stock-managed item: the current count and
// -1 / +1 / sold-out buttons.
func stockKeyboard(items []models.MenuItem, langCode string) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, it := range items {
		if !it.StockManaged {
			continue
		}
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(lang.T(langCode, "stock_updated", it.Name, it.Stock), stockCallbackData(stockAdd, it.ID)),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("−1", stockCallbackData(stockSub, it.ID)),
				tgbotapi.NewInlineKeyboardButtonData("+1", stockCallbackData(stockAdd, it.ID)),
				tgbotapi.NewInlineKeyboardButtonData(lang.T(langCode, "menu_soldout"), stockCallbackData(stockZero, it.ID)),
			),
		)
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func (b *Bot) handleStock(ctx context.Context) {
	items, err := b.svc.Menu.List(ctx, b.storeID, "")
	if err != nil {
		log.Error().Err(err).Msg("list menu")
		b.send(b.chatID, lang.T(b.lang, "err_internal"))
		return
	}
	kb, ok := stockKeyboard(items, b.lang)
	if !ok {
		b.send(b.chatID, lang.T(b.lang, "no_stock_items"))
		return
	}
	msg := tgbotapi.NewMessage(b.chatID, lang.T(b.lang, "stock_header"))
	msg.ReplyMarkup = kb
	if _, err := b.tg.Send(msg); err != nil {
		log.Error().Err(err).Msg("send stock panel")
	}
}

func parseStockCallback(data string) (op, itemID string, err error) {
	parts := strings.SplitN(strings.TrimPrefix(data, stockCallbackPrefix), ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid stock callback %q", data)
	}
	switch parts[0] {
	case stockAdd, stockSub, stockZero:
		return parts[0], parts[1], nil
	}
	return "", "", fmt.Errorf("unknown stock operation %q", parts[0])
}

// handleStockCallback applies one button press of the stock panel and
// redraws the panel in place.
func (b *Bot) handleStockCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil || cq.Message.Chat.ID != b.chatID {
		b.AnswerCallbackQuery(cq.ID, lang.T(b.lang, "unauthorized"))
		return
	}
	op, itemID, err := parseStockCallback(cq.Data)
	if err != nil {
		b.AnswerCallbackQuery(cq.ID, lang.T(b.lang, "err_internal"))
		return
	}
	if _, err := b.svc.Menu.GetInStore(ctx, b.storeID, itemID); err != nil {
		b.AnswerCallbackQuery(cq.ID, services.ErrorText(b.lang, err))
		return
	}
	var item *models.MenuItem
	switch op {
	case stockAdd:
		item, err = b.svc.Menu.AdjustStock(ctx, itemID, 1)
	case stockSub:
		item, err = b.svc.Menu.AdjustStock(ctx, itemID, -1)
	case stockZero:
		item, err = b.svc.Menu.SetStock(ctx, itemID, 0)
	}
	if err != nil {
		log.Warn().Err(err).Str("menu_item_id", itemID).Msg("set stock")
		b.AnswerCallbackQuery(cq.ID, services.ErrorText(b.lang, err))
		return
	}
	actor := "telegram"
	if cq.From != nil {
		actor = staffName(cq.From)
	}
	log.Info().Str("menu_item_id", itemID).Int("stock", item.Stock).Str("actor", actor).Msg("stock adjusted from bot")
	b.AnswerCallbackQuery(cq.ID, lang.T(b.lang, "stock_updated", item.Name, item.Stock))

	items, err := b.svc.Menu.List(ctx, b.storeID, "")
	if err != nil {
		return
	}
	if kb, ok := stockKeyboard(items, b.lang); ok {
		edit := tgbotapi.NewEditMessageReplyMarkup(b.chatID, cq.Message.MessageID, kb)
		if _, err := b.tg.Send(edit); err != nil && !strings.Contains(err.Error(), "not modified") {
			log.Warn().Err(err).Msg("redraw stock panel")
		}
	}
}
