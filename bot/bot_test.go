package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kopi-store/clock"
	"kopi-store/lang"
	"kopi-store/models"
	"kopi-store/services"
	"kopi-store/storage/memory"
)

const (
	staffChat = int64(-1001)
	storeID   = "kopi-test"
)

type fakeTelegram struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	editErr  error
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if _, ok := c.(tgbotapi.EditMessageTextConfig); ok && f.editErr != nil {
		return tgbotapi.Message{}, f.editErr
	}
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) last() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeTelegram) lastToast() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if cb, ok := f.requests[i].(tgbotapi.CallbackConfig); ok {
			return cb.Text
		}
	}
	return ""
}

func newTestBot(t *testing.T) (*Bot, *fakeTelegram, *models.Order) {
	t.Helper()
	ctx := context.Background()
	svc := services.New(services.Deps{
		Orders:   memory.NewOrderRepository(),
		Menu:     memory.NewMenuRepository(),
		Settings: memory.NewSettingsRepository(),
		Clock:    clock.Fake(time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)),
	})
	settings := &models.StoreSettings{StoreID: storeID, Info: models.StoreInfo{Name: "Kopi"}, TimeZone: "UTC"}
	for d := range settings.Weekly {
		settings.Weekly[d] = models.DayHours{Open: models.NewTimeOfDay(0, 0), Close: models.EndOfDay, IsOpen: true}
	}
	_, err := svc.Settings.Ensure(ctx, settings)
	require.NoError(t, err)
	_, err = svc.Menu.Create(ctx, models.MenuItem{ID: "latte", StoreID: storeID, Name: "カフェラテ", Price: 480,
		Category: models.CategoryCoffee, IsActive: true, IsVisible: true})
	require.NoError(t, err)
	o, err := svc.Orders.Place(ctx, models.OrderIntake{
		StoreID:  storeID,
		Nickname: "Taro",
		Items:    []models.IntakeItem{{MenuItemID: "latte", Quantity: 2}},
	}, "test")
	require.NoError(t, err)

	fake := &fakeTelegram{}
	return newBot(fake, svc, memory.NewMessagePointerRepository(), storeID, staffChat, lang.Ja), fake, o
}

func callback(chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 42, UserName: "barista"},
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}
}

func command(chatID int64, cmd string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     cmd,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func TestCardMarkup(t *testing.T) {
	assert.Nil(t, cardMarkup(services.OrderCardContent{Text: "x"}))

	kb := cardMarkup(services.OrderCardContent{Buttons: [][]services.OrderCardButton{
		{{Text: "a", CallbackData: "order_advance:1"}},
		{{Text: "b", CallbackData: "order_cancel:1"}},
	}})
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	require.NotNil(t, kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "order_cancel:1", *kb.InlineKeyboard[1][0].CallbackData)
}

func TestCardIsSentThenEdited(t *testing.T) {
	b, fake, o := newTestBot(t)
	ctx := context.Background()

	b.RefreshOrderCard(ctx, o.ID)
	msg, ok := fake.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, staffChat, msg.ChatID)
	assert.Contains(t, msg.Text, o.ID)
	assert.Contains(t, msg.Text, "受付済")

	b.handleOrderStatusCallback(ctx, callback(staffChat, services.CallbackData(services.CallbackAdvance, o.ID)))
	assert.Equal(t, "ステータスを「調理中」に更新しました", fake.lastToast())

	b.RefreshOrderCard(ctx, o.ID)
	edit, ok := fake.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 1, edit.MessageID)
	assert.Contains(t, edit.Text, "調理中")

	got, err := b.svc.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, got.Status)
	history, err := b.svc.Orders.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "@barista", history[len(history)-1].Actor)
}

func TestDeletedCardIsResent(t *testing.T) {
	b, fake, o := newTestBot(t)
	ctx := context.Background()
	b.RefreshOrderCard(ctx, o.ID)

	fake.editErr = errors.New("Bad Request: message to edit not found")
	_, err := b.svc.Orders.Advance(ctx, o.ID, "test")
	require.NoError(t, err)
	b.RefreshOrderCard(ctx, o.ID)
	_, ok := fake.last().(tgbotapi.MessageConfig)
	assert.True(t, ok)
	ref, _ := b.cardPointer(ctx, o.ID)
	assert.Equal(t, 2, ref.messageID)
	stored, ok, err := b.ptrs.GetMessagePointer(ctx, o.ID, staffChat)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, stored)
}

func TestCardPointerSurvivesRestart(t *testing.T) {
	b, fake, o := newTestBot(t)
	ctx := context.Background()
	b.RefreshOrderCard(ctx, o.ID)

	restarted := newBot(fake, b.svc, b.ptrs, storeID, staffChat, lang.Ja)
	restarted.RefreshOrderCard(ctx, o.ID)
	edit, ok := fake.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok, "a known card is edited, not posted again")
	assert.Equal(t, 1, edit.MessageID)
	assert.Len(t, fake.sent, 2)
}

func TestUnchangedCardIsNotResent(t *testing.T) {
	b, fake, o := newTestBot(t)
	ctx := context.Background()
	b.RefreshOrderCard(ctx, o.ID)
	b.RefreshOrderCard(ctx, o.ID)
	assert.Len(t, fake.sent, 1)
}

func TestCallbackFromOtherChatIsRejected(t *testing.T) {
	b, fake, o := newTestBot(t)
	ctx := context.Background()
	b.handleOrderStatusCallback(ctx, callback(12345, services.CallbackData(services.CallbackCancel, o.ID)))
	assert.Equal(t, lang.T(lang.Ja, "unauthorized"), fake.lastToast())

	got, err := b.svc.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReceived, got.Status)
}

func TestCallbackForOtherStoreOrder(t *testing.T) {
	b, fake, _ := newTestBot(t)
	ctx := context.Background()
	other := &models.StoreSettings{StoreID: "kopi-other", Info: models.StoreInfo{Name: "Kopi 2"}, TimeZone: "UTC"}
	for d := range other.Weekly {
		other.Weekly[d] = models.DayHours{Open: models.NewTimeOfDay(0, 0), Close: models.EndOfDay, IsOpen: true}
	}
	_, err := b.svc.Settings.Ensure(ctx, other)
	require.NoError(t, err)
	_, err = b.svc.Menu.Create(ctx, models.MenuItem{ID: "other-latte", StoreID: "kopi-other", Name: "カフェラテ", Price: 480,
		Category: models.CategoryCoffee, IsActive: true, IsVisible: true})
	require.NoError(t, err)
	o, err := b.svc.Orders.Place(ctx, models.OrderIntake{StoreID: "kopi-other", Nickname: "Jiro",
		Items: []models.IntakeItem{{MenuItemID: "other-latte", Quantity: 1}}}, "test")
	require.NoError(t, err)

	b.handleOrderStatusCallback(ctx, callback(staffChat, services.CallbackData(services.CallbackAdvance, o.ID)))
	assert.Equal(t, lang.T(lang.Ja, "err_order_not_found"), fake.lastToast())
	got, err := b.svc.Orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReceived, got.Status)
}

func TestCallbackOnFinishedOrder(t *testing.T) {
	b, fake, o := newTestBot(t)
	ctx := context.Background()
	_, err := b.svc.Orders.Cancel(ctx, o.ID, "test")
	require.NoError(t, err)

	b.handleOrderStatusCallback(ctx, callback(staffChat, services.CallbackData(services.CallbackAdvance, o.ID)))
	assert.Equal(t, lang.T(lang.Ja, "err_invalid_transition"), fake.lastToast())

	b.handleOrderStatusCallback(ctx, callback(staffChat, "order_advance:"))
	assert.Equal(t, lang.T(lang.Ja, "err_internal"), fake.lastToast())
}

func TestCommands(t *testing.T) {
	b, fake, o := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command(staffChat, "/menu"))
	assert.Contains(t, fake.last().(tgbotapi.MessageConfig).Text, "カフェラテ ¥480")

	b.handleUpdate(ctx, command(staffChat, "/status"))
	text := fake.last().(tgbotapi.MessageConfig).Text
	assert.True(t, strings.HasPrefix(text, "営業中"), text)

	b.handleUpdate(ctx, command(staffChat, "/open"))
	assert.Len(t, strings.Split(fake.last().(tgbotapi.MessageConfig).Text, "\n"), openDaysShown)

	b.handleUpdate(ctx, command(staffChat, "/orders"))
	assert.Contains(t, fake.last().(tgbotapi.MessageConfig).Text, o.ID)

	_, err := b.svc.Orders.Cancel(ctx, o.ID, "test")
	require.NoError(t, err)
	b.handleUpdate(ctx, command(staffChat, "/orders"))
	assert.Equal(t, lang.T(lang.Ja, "no_active_orders"), fake.last().(tgbotapi.MessageConfig).Text)

	b.handleUpdate(ctx, command(777, "/orders"))
	last := fake.last().(tgbotapi.MessageConfig)
	assert.Equal(t, int64(777), last.ChatID)
	assert.Equal(t, lang.T(lang.Ja, "unauthorized"), last.Text)

	sent := len(fake.sent)
	b.handleUpdate(ctx, command(777, "/orders"))
	assert.Len(t, fake.sent, sent, "a foreign chat in cooldown gets no reply")
}
