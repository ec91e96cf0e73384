// Package transport implements moderation.Transport on top of Telebot.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gatebot/core/logger"
	"github.com/m3rciful/gatebot/core/telegram/keyboard"
	"github.com/m3rciful/gatebot/core/telegram/sender"
	"github.com/m3rciful/gatebot/internal/moderation"
)

// API is the subset of *tele.Bot used by the transport.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Telebot sends through the Bot API. Sends go through the asynchronous
// dispatcher when one is set; deletes, edits and callback answers are synchronous.
type Telebot struct {
	api        API
	dispatcher *sender.Dispatcher
}

var _ moderation.Transport = (*Telebot)(nil)

// New creates a transport. dispatcher may be nil.
func New(api API, dispatcher *sender.Dispatcher) *Telebot {
	return &Telebot{api: api, dispatcher: dispatcher}
}

func stored(ref moderation.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
}

// DeleteMessage removes a message and classifies the result.
func (t *Telebot) DeleteMessage(ctx context.Context, ref moderation.MessageRef) moderation.DeleteOutcome {
	err := t.api.Delete(stored(ref))
	outcome := ClassifyDeleteError(err)
	if err != nil {
		logger.Debug(ctx, "tg", "tg.delete",
			slog.String("status", "fail"),
			slog.String("outcome", outcome.String()),
			slog.String("err", err.Error()),
		)
	}
	return outcome
}

// ClassifyDeleteError maps a Bot API error to a DeleteOutcome.
func ClassifyDeleteError(err error) moderation.DeleteOutcome {
	if err == nil {
		return moderation.Deleted
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "message to delete not found"),
		strings.Contains(msg, "message not found"):
		return moderation.AlreadyGone
	case strings.Contains(msg, "can't be deleted"),
		strings.Contains(msg, "not enough rights"),
		strings.Contains(msg, "need administrator rights"),
		strings.Contains(msg, "have no rights"):
		return moderation.Denied
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		return moderation.Denied
	}
	return moderation.DeleteFailed
}

// SendMessage sends HTML content with an optional inline keyboard.
func (t *Telebot) SendMessage(ctx context.Context, chatID int64, content moderation.Content) error {
	opts := &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: markup(content.Keyboard),
	}
	if content.ReplyTo != 0 {
		opts.ReplyTo = &tele.Message{ID: content.ReplyTo}
		opts.AllowWithoutReply = true
	}
	run := func() error {
		_, err := t.api.Send(tele.ChatID(chatID), content.Text, opts)
		return err
	}
	if t.dispatcher == nil {
		return run()
	}
	if err := t.dispatcher.Enqueue(ctx, "send.message", "sendMessage", run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", "send.message"),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// EditMessage replaces the text of a message and drops its keyboard.
func (t *Telebot) EditMessage(_ context.Context, ref moderation.MessageRef, text string) error {
	_, err := t.api.Edit(stored(ref), text, &tele.SendOptions{ParseMode: tele.ModeHTML})
	return err
}

// Acknowledge answers a callback query with an optional toast or alert.
func (t *Telebot) Acknowledge(_ context.Context, callbackID, note string, alert bool) error {
	if callbackID == "" {
		return nil
	}
	return t.api.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{
		Text:      note,
		ShowAlert: alert,
	})
}

func markup(rows [][]moderation.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	kb := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Text, Data: b.Data, URL: b.URL})
		}
		kb = append(kb, r)
	}
	return keyboard.InlineButtonsRows(kb...)
}
