package telegram

import (
	"github.com/m3rciful/gatebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain registered via bot.Use.
// Per-route logging is added by the routers.
func DefaultMiddlewares(sender middleware.SenderOptions) []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "sender", Use: middleware.SenderMiddleware(sender)},
	}
}

// SelfSenderOptions drops the bot's own updates and those of other bots.
func SelfSenderOptions(bot *tele.Bot) middleware.SenderOptions {
	opts := middleware.SenderOptions{SkipBots: true}
	if bot != nil && bot.Me != nil {
		opts.SelfID = bot.Me.ID
	}
	return opts
}
