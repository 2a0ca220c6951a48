package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"

	"kopi-store/config"
	"kopi-store/lang"
	"kopi-store/models"
	"kopi-store/services"
)

const openDaysShown = 7

// messenger is the part of *tgbotapi.BotAPI the bot sends through.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the staff-side Telegram bot. Every order of the store gets one card
// in the staff chat that is edited in place as the order moves on.
type Bot struct {
	api     *tgbotapi.BotAPI
	tg      messenger
	svc     *services.Services
	ptrs    services.MessagePointerRepository
	storeID string
	chatID  int64
	lang    string

	cards   map[string]cardRef // by order id
	cardsMu sync.RWMutex

	orderLocks sync.Map // map[orderID]*sync.Mutex, serializes card edits per order

	strangers *replyThrottle
}

func New(cfg *config.Config, svc *services.Services, ptrs services.MessagePointerRepository) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	b := newBot(api, svc, ptrs, cfg.Store.ID, cfg.Telegram.StaffChatID, cfg.Telegram.Lang)
	b.api = api
	return b, nil
}

func newBot(tg messenger, svc *services.Services, ptrs services.MessagePointerRepository, storeID string, chatID int64, langCode string) *Bot {
	if !lang.Supported(langCode) {
		langCode = lang.Ja
	}
	return &Bot{
		tg:      tg,
		svc:     svc,
		ptrs:    ptrs,
		storeID: storeID,
		chatID:  chatID,
		lang:    langCode,
		cards:   make(map[string]cardRef),

		strangers: newReplyThrottle(nil),
	}
}

// cardMarkup converts OrderCardContent.Buttons to a Telegram inline keyboard.
func cardMarkup(c services.OrderCardContent) *tgbotapi.InlineKeyboardMarkup {
	if len(c.Buttons) == 0 {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, row := range c.Buttons {
		var btns []tgbotapi.InlineKeyboardButton
		for _, btn := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.CallbackData))
		}
		rows = append(rows, btns)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// cardRef points at the staff chat message showing an order and remembers
// what it currently says. A zero sum means the content is unknown, as for
// a card loaded back from storage.
type cardRef struct {
	messageID int
	sum       [32]byte
}

// cardSum fingerprints the text and buttons of a card.
func cardSum(c services.OrderCardContent) [32]byte {
	h := blake3.New()
	h.WriteString(c.Text)
	for _, row := range c.Buttons {
		for _, btn := range row {
			h.WriteString("\x00" + btn.Text + "\x00" + btn.CallbackData)
		}
		h.WriteString("\x01")
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func (b *Bot) cardPointer(ctx context.Context, orderID string) (cardRef, bool) {
	b.cardsMu.RLock()
	ref, ok := b.cards[orderID]
	b.cardsMu.RUnlock()
	if ok || b.ptrs == nil {
		return ref, ok
	}
	messageID, ok, err := b.ptrs.GetMessagePointer(ctx, orderID, b.chatID)
	if err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("load order card pointer")
		return cardRef{}, false
	}
	return cardRef{messageID: messageID}, ok
}

func (b *Bot) setCardPointer(ctx context.Context, orderID string, ref cardRef) {
	b.cardsMu.Lock()
	prev, had := b.cards[orderID]
	b.cards[orderID] = ref
	b.cardsMu.Unlock()
	if b.ptrs == nil || (had && prev.messageID == ref.messageID) {
		return
	}
	if err := b.ptrs.UpsertMessagePointer(ctx, orderID, b.chatID, ref.messageID); err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("save order card pointer")
	}
}

// UpsertOrderCard edits the existing card if there is one, otherwise sends
// a new card and remembers it. Unchanged cards are not sent at all. A card
// whose message was deleted is sent again; "message is not modified" is
// ignored.
func (b *Bot) UpsertOrderCard(ctx context.Context, o *models.Order) {
	content := services.BuildStaffCard(o, b.lang, b.location())
	sum := cardSum(content)
	if ref, ok := b.cardPointer(ctx, o.ID); ok {
		if ref.sum == sum {
			return
		}
		edit := tgbotapi.NewEditMessageText(b.chatID, ref.messageID, content.Text)
		if kb := cardMarkup(content); kb != nil {
			edit.ReplyMarkup = kb
		} else {
			emptyKb := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
			edit.ReplyMarkup = &emptyKb
		}
		_, err := b.tg.Send(edit)
		if err == nil {
			b.setCardPointer(ctx, o.ID, cardRef{messageID: ref.messageID, sum: sum})
			return
		}
		errStr := err.Error()
		if strings.Contains(errStr, "not modified") {
			b.setCardPointer(ctx, o.ID, cardRef{messageID: ref.messageID, sum: sum})
			return
		}
		if !strings.Contains(errStr, "not found") {
			log.Error().Err(err).Str("order_id", o.ID).Msg("edit order card")
			return
		}
	}
	b.sendCard(ctx, o.ID, content)
}

func (b *Bot) sendCard(ctx context.Context, orderID string, content services.OrderCardContent) {
	msg := tgbotapi.NewMessage(b.chatID, content.Text)
	if kb := cardMarkup(content); kb != nil {
		msg.ReplyMarkup = *kb
	}
	sent, err := b.tg.Send(msg)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("send order card")
		return
	}
	b.setCardPointer(ctx, orderID, cardRef{messageID: sent.MessageID, sum: cardSum(content)})
}

// AnswerCallbackQuery sends a short toast for the callback (no new message).
func (b *Bot) AnswerCallbackQuery(callbackQueryID, text string) {
	if _, err := b.tg.Request(tgbotapi.NewCallback(callbackQueryID, text)); err != nil {
		log.Warn().Err(err).Msg("answer callback query")
	}
}

// lockOrder locks by order id and returns an unlock function.
func (b *Bot) lockOrder(orderID string) func() {
	v, _ := b.orderLocks.LoadOrStore(orderID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// RefreshOrderCard re-reads the order and brings its card up to date.
func (b *Bot) RefreshOrderCard(ctx context.Context, orderID string) {
	unlock := b.lockOrder(orderID)
	defer unlock()

	o, err := b.svc.Orders.Get(ctx, orderID)
	if err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("refresh order card")
		return
	}
	b.UpsertOrderCard(ctx, o)
}

// onOrderEvent runs on the goroutine that changed the order, so the card
// update is handed off.
func (b *Bot) onOrderEvent(ev services.OrderEvent) {
	if ev.Order.StoreID != b.storeID {
		return
	}
	go b.RefreshOrderCard(context.Background(), ev.Order.ID)
}

func (b *Bot) location() *time.Location {
	cal, err := b.svc.Settings.Calendar(context.Background(), b.storeID)
	if err != nil || cal.Location == nil {
		return time.UTC
	}
	return cal.Location
}

func (b *Bot) setBotCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "orders", Description: lang.T(b.lang, "cmd_orders")},
		tgbotapi.BotCommand{Command: "status", Description: lang.T(b.lang, "cmd_status")},
		tgbotapi.BotCommand{Command: "menu", Description: lang.T(b.lang, "cmd_menu")},
		tgbotapi.BotCommand{Command: "open", Description: lang.T(b.lang, "cmd_open")},
		tgbotapi.BotCommand{Command: "stock", Description: lang.T(b.lang, "cmd_stock")},
	)
	_, err := b.tg.Request(cfg)
	return err
}

// Start subscribes to order events and serves updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	if err := b.setBotCommands(); err != nil {
		log.Warn().Err(err).Msg("set bot commands")
	}
	b.svc.Orders.Subscribe(b.onOrderEvent)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	log.Info().Str("bot", b.api.Self.UserName).Int64("staff_chat_id", b.chatID).Msg("staff bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		if strings.HasPrefix(cq.Data, stockCallbackPrefix) {
			b.handleStockCallback(ctx, cq)
			return
		}
		b.handleOrderStatusCallback(ctx, cq)
		return
	}
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	if msg.Chat.ID != b.chatID {
		b.refuse(msg.Chat.ID)
		return
	}
	switch msg.Command() {
	case "orders":
		b.handleOrders(ctx)
	case "status":
		b.handleStatus(ctx)
	case "menu":
		b.handleMenu(ctx)
	case "open":
		b.handleOpen(ctx)
	case "stock":
		b.handleStock(ctx)
	}
}

// refuse tells a foreign chat it cannot use the bot, at most once per
// cooldown.
func (b *Bot) refuse(chatID int64) {
	if wait := b.strangers.waitSeconds(chatID); wait > 0 {
		log.Debug().Int64("chat_id", chatID).Int("wait_seconds", wait).Msg("command from foreign chat ignored")
		return
	}
	b.strangers.recordRefused(chatID)
	log.Warn().Int64("chat_id", chatID).Msg("command from foreign chat refused")
	b.send(chatID, lang.T(b.lang, "unauthorized"))
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}

func (b *Bot) handleOrderStatusCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil || cq.Message.Chat.ID != b.chatID {
		b.AnswerCallbackQuery(cq.ID, lang.T(b.lang, "unauthorized"))
		return
	}
	action, orderID, err := services.ParseCallbackData(cq.Data)
	if err != nil {
		b.AnswerCallbackQuery(cq.ID, lang.T(b.lang, "err_internal"))
		return
	}
	actor := "telegram"
	if cq.From != nil {
		actor = staffName(cq.From)
	}

	if _, err := b.svc.Orders.GetInStore(ctx, b.storeID, orderID); err != nil {
		b.AnswerCallbackQuery(cq.ID, services.ErrorText(b.lang, err))
		return
	}

	var o *models.Order
	switch action {
	case services.CallbackAdvance:
		o, err = b.svc.Orders.Advance(ctx, orderID, actor)
	case services.CallbackCancel:
		o, err = b.svc.Orders.Cancel(ctx, orderID, actor)
	}
	if err != nil {
		log.Info().Err(err).Str("order_id", orderID).Str("action", action).Str("actor", actor).Msg("order status callback rejected")
		b.AnswerCallbackQuery(cq.ID, services.ErrorText(b.lang, err))
		// Another staff member may have moved the order on; show where it is.
		b.RefreshOrderCard(ctx, orderID)
		return
	}
	b.AnswerCallbackQuery(cq.ID, lang.T(b.lang, "status_updated", services.StatusLabel(b.lang, o.Status)))
}

func staffName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// handleOrders posts a fresh card for every active order; the newest card
// is the one that gets edited afterwards.
func (b *Bot) handleOrders(ctx context.Context) {
	orders, err := b.svc.Orders.Active(ctx, b.storeID)
	if err != nil {
		log.Error().Err(err).Msg("list active orders")
		b.send(b.chatID, lang.T(b.lang, "err_internal"))
		return
	}
	if len(orders) == 0 {
		b.send(b.chatID, lang.T(b.lang, "no_active_orders"))
		return
	}
	loc := b.location()
	for i := range orders {
		o := &orders[i]
		unlock := b.lockOrder(o.ID)
		b.sendCard(ctx, o.ID, services.BuildStaffCard(o, b.lang, loc))
		unlock()
	}
}

func (b *Bot) handleStatus(ctx context.Context) {
	st, err := b.svc.Settings.Status(ctx, b.storeID)
	if err != nil {
		log.Error().Err(err).Msg("store status")
		b.send(b.chatID, lang.T(b.lang, "err_internal"))
		return
	}
	settings, err := b.svc.Settings.Get(ctx, b.storeID)
	if err != nil {
		b.send(b.chatID, lang.T(b.lang, "err_internal"))
		return
	}
	b.send(b.chatID, services.BuildStoreStatusText(st, settings.Policy.Window(), b.lang))
}

func (b *Bot) handleMenu(ctx context.Context) {
	items, err := b.svc.Menu.List(ctx, b.storeID, "")
	if err != nil {
		log.Error().Err(err).Msg("list menu")
		b.send(b.chatID, lang.T(b.lang, "err_internal"))
		return
	}
	b.send(b.chatID, services.BuildMenuText(items, b.lang))
}

func (b *Bot) handleOpen(ctx context.Context) {
	cal, err := b.svc.Settings.Calendar(ctx, b.storeID)
	if err != nil {
		log.Error().Err(err).Msg("load calendar")
		b.send(b.chatID, lang.T(b.lang, "err_internal"))
		return
	}
	st, err := b.svc.Settings.Status(ctx, b.storeID)
	if err != nil {
		b.send(b.chatID, lang.T(b.lang, "err_internal"))
		return
	}
	b.send(b.chatID, services.BuildOpeningHoursText(cal, st.Today, openDaysShown, b.lang))
}
