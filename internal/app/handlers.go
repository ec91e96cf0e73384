package app

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/gatebot/core/telegram/helpers"
	"github.com/m3rciful/gatebot/internal/moderation"
)

// TextHandler adapts text updates to the moderation handler.
func TextHandler(h *moderation.Handler) tele.HandlerFunc {
	return func(c tele.Context) error {
		msg := c.Message()
		user := c.Sender()
		if msg == nil || user == nil || msg.Chat == nil {
			return nil
		}
		h.OnTextMessage(tghelpers.BuildContext(c), moderation.TextMessage{
			SenderID:   user.ID,
			SenderName: displayName(user),
			ChatID:     msg.Chat.ID,
			Text:       msg.Text,
			Message:    moderation.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID},
		})
		return nil
	}
}

// CallbackHandler adapts inline button presses to the moderation handler.
func CallbackHandler(h *moderation.Handler) tele.HandlerFunc {
	return func(c tele.Context) error {
		cb := c.Callback()
		user := c.Sender()
		if cb == nil || user == nil {
			return nil
		}
		action, target := moderation.ParseCallbackData(cb.Data)
		ev := moderation.ActionInvoked{
			SenderID:   user.ID,
			Action:     action,
			TargetID:   target,
			CallbackID: cb.ID,
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.ChatID = cb.Message.Chat.ID
			ev.Message = moderation.MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.ID}
		}
		return h.OnAction(tghelpers.BuildContext(c), ev)
	}
}

func displayName(u *tele.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" && u.Username != "" {
		name = "@" + u.Username
	}
	return name
}
