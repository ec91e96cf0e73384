package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/gatebot/core/telegram/helpers"
)

func newContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return bot.NewContext(upd)
}

func textUpdate(userID int64, isBot bool) tele.Update {
	msg := &tele.Message{
		ID:   10,
		Text: "hello",
		Chat: &tele.Chat{ID: -1001, Type: tele.ChatSuperGroup},
	}
	if userID != 0 {
		msg.Sender = &tele.User{ID: userID, IsBot: isBot}
	}
	return tele.Update{ID: 77, Message: msg}
}

func TestSenderMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		upd    tele.Update
		opts   SenderOptions
		called bool
	}{
		{"user passes", textUpdate(5, false), SenderOptions{SelfID: 9, SkipBots: true}, true},
		{"no sender dropped", textUpdate(0, false), SenderOptions{}, false},
		{"self dropped", textUpdate(9, true), SenderOptions{SelfID: 9}, false},
		{"bot dropped", textUpdate(6, true), SenderOptions{SkipBots: true}, false},
		{"bot kept", textUpdate(6, true), SenderOptions{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := SenderMiddleware(tt.opts)(func(tele.Context) error {
				called = true
				return nil
			})
			require.NoError(t, h(newContext(t, tt.upd)))
			assert.Equal(t, tt.called, called)
		})
	}
}

func TestRecoverMiddlewareSwallowsPanic(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error {
		panic("boom")
	})
	assert.NotPanics(t, func() {
		assert.NoError(t, h(newContext(t, textUpdate(5, false))))
	})
}

func TestRecoverMiddlewarePassesErrors(t *testing.T) {
	want := errors.New("handler failed")
	h := RecoverMiddleware(func(tele.Context) error { return want })
	assert.ErrorIs(t, h(newContext(t, textUpdate(5, false))), want)
}

func TestLoggerMiddlewareStoresContext(t *testing.T) {
	c := newContext(t, textUpdate(5, false))
	h := LoggerMiddleware(func(c tele.Context) error {
		_, ok := tghelpers.ContextFrom(c)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, "77:-1001:5", c.Get("rid"))
}
