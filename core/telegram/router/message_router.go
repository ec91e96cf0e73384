package router

import (
	tg "github.com/m3rciful/gatebot/core/telegram"
	"github.com/m3rciful/gatebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextRoutes routes plain text messages to the registry's text handler.
// Other message kinds are not routed.
func TextRoutes(reg *tg.Registry) []tg.Route {
	handler := func(c tele.Context) error {
		var h tele.HandlerFunc
		if reg != nil {
			h = reg.TextHandler()
		}
		return observe(c, "text", h)
	}
	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}}
}
