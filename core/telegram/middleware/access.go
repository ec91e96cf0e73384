package middleware

import (
	"log/slog"

	"github.com/m3rciful/gatebot/core/logger"
	tghelpers "github.com/m3rciful/gatebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// SenderOptions defines which updates reach the handlers.
type SenderOptions struct {
	// SelfID is the bot's own user id; its updates are dropped.
	SelfID int64
	// SkipBots drops updates sent by other bots.
	SkipBots bool
}

// SenderMiddleware drops updates that carry no user (channel posts, service
// updates) and, optionally, updates sent by bots.
func SenderMiddleware(opts SenderOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			reason := ""
			switch {
			case user == nil:
				reason = "no_sender"
			case opts.SelfID != 0 && user.ID == opts.SelfID:
				reason = "self"
			case opts.SkipBots && user.IsBot:
				reason = "bot"
			}
			if reason != "" {
				if logger.ShouldSampleDebug() {
					logger.Debug(tghelpers.BuildContext(c), "tg", "update.dropped",
						slog.String("status", "skip"),
						slog.String("reason", reason),
					)
				}
				return nil
			}
			return next(c)
		}
	}
}
