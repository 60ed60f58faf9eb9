// Package telegram connects the bot to Telegram private chats via long polling.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"spesebot/internal/bot"
	"spesebot/internal/log"
)

const (
	Platform = "telegram"

	// Telegram limits callback_data to 64 bytes.
	callbackDataLimit = 64
	pollTimeout       = 30
	buttonsPerRow     = 2
)

// Transport receives updates and replies on behalf of a bot.Handler.
type Transport struct {
	api     *tgbotapi.BotAPI
	handler bot.Handler
	logger  *log.Logger

	ready atomic.Bool
	wg    sync.WaitGroup
}

// Ensure interface conformance
var _ bot.Responder = (*Transport)(nil)

// New authenticates token against the Bot API.
func New(token string, handler bot.Handler, logger *log.Logger) (*Transport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return newTransport(api, handler, logger), nil
}

func newTransport(api *tgbotapi.BotAPI, handler bot.Handler, logger *log.Logger) *Transport {
	return &Transport{
		api:     api,
		handler: handler,
		logger:  logger.WithComponent(log.ComponentTelegram),
	}
}

func (t *Transport) Name() string { return Platform }

// Ready reports whether updates are being received.
func (t *Transport) Ready() bool { return t.ready.Load() }

// Run polls for updates until ctx is cancelled, then waits for in-flight
// handlers to return.
func (t *Transport) Run(ctx context.Context) error {
	// Long polling does not work while a webhook is registered.
	if _, err := t.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := t.api.GetUpdatesChan(u)

	t.ready.Store(true)
	t.logger.InfoContext(ctx, "Telegram transport started", "username", t.api.Self.UserName)

	defer func() {
		t.ready.Store(false)
		t.api.StopReceivingUpdates()
		t.wg.Wait()
		t.logger.Info("Telegram transport stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram update channel closed")
			}
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.dispatch(ctx, update)
			}()
		}
	}
}

func (t *Transport) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		t.handler.HandleMessage(ctx, t, toMessage(update.Message))
	case update.CallbackQuery != nil:
		t.handleCallback(ctx, update.CallbackQuery)
	}
}

func (t *Transport) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Answer first so the client stops its progress indicator.
	if _, err := t.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		t.logger.WarnContext(ctx, "Failed to answer callback", log.FieldError, err)
	}

	sel, ok := toSelection(cq)
	if !ok {
		t.logger.DebugContext(ctx, "Ignoring callback", "data", cq.Data)
		return
	}

	// Replace the keyboard with the picked label so it cannot be pressed twice.
	if cq.Message != nil {
		edit := tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, cq.Message.Text+" "+pressedLabel(cq, sel.Value))
		if _, err := t.api.Send(edit); err != nil {
			t.logger.DebugContext(ctx, "Failed to close menu", log.FieldError, err)
		}
	}

	t.handler.HandleSelection(ctx, t, sel)
}

// Send implements bot.Responder.
func (t *Transport) Send(_ context.Context, channelID, text string) error {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", channelID, err)
	}
	if _, err := t.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendMenu implements bot.Responder with an inline keyboard.
func (t *Transport) SendMenu(_ context.Context, channelID string, menu bot.Menu) error {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", channelID, err)
	}
	kb, err := keyboard(menu)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, menu.Prompt)
	msg.ReplyMarkup = kb
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send menu: %w", err)
	}
	return nil
}

func keyboard(menu bot.Menu) (tgbotapi.InlineKeyboardMarkup, error) {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, opt := range menu.Options {
		data, err := bot.EncodeChoice(menu.ID, opt.Value, callbackDataLimit)
		if err != nil {
			return tgbotapi.InlineKeyboardMarkup{}, err
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(opt.Label, data))
		if len(row) == buttonsPerRow {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), nil
}

// pressedLabel finds the label of the button whose data was sent back,
// falling back to the decoded value when the keyboard is not attached.
func pressedLabel(cq *tgbotapi.CallbackQuery, value string) string {
	if cq.Message == nil || cq.Message.ReplyMarkup == nil {
		return value
	}
	for _, row := range cq.Message.ReplyMarkup.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil && *b.CallbackData == cq.Data {
				return b.Text
			}
		}
	}
	return value
}

func toMessage(m *tgbotapi.Message) bot.Message {
	msg := bot.Message{
		Platform: Platform,
		Text:     m.Text,
	}
	if m.Chat != nil {
		msg.ChannelID = strconv.FormatInt(m.Chat.ID, 10)
		msg.Direct = m.Chat.IsPrivate()
	}
	if m.From != nil {
		msg.UserID = strconv.FormatInt(m.From.ID, 10)
		msg.Username = m.From.UserName
		msg.FromBot = m.From.IsBot
	}
	return msg
}

func toSelection(cq *tgbotapi.CallbackQuery) (bot.Selection, bool) {
	if cq.Message == nil || cq.Message.Chat == nil || !cq.Message.Chat.IsPrivate() || cq.From == nil {
		return bot.Selection{}, false
	}
	menuID, value, err := bot.DecodeChoice(cq.Data)
	if err != nil {
		return bot.Selection{}, false
	}
	return bot.Selection{
		Platform:  Platform,
		ChannelID: strconv.FormatInt(cq.Message.Chat.ID, 10),
		UserID:    strconv.FormatInt(cq.From.ID, 10),
		MenuID:    menuID,
		Value:     value,
	}, true
}
