// Package callbacks decodes inline button payloads for routing and logs.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse returns the routing key and the remaining payload of a callback.
// Telebot-encoded data (\f<unique>|<payload>) and plain "<key>:<payload>"
// data are both accepted.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return ParseData(cb.Data)
}

// ParseData splits raw callback data on the first ':' or '|'.
func ParseData(data string) (string, string) {
	raw := strings.TrimPrefix(strings.TrimSpace(data), "\f")
	idx := strings.IndexAny(raw, ":|")
	if idx < 0 {
		return strings.TrimSpace(raw), ""
	}
	return strings.TrimSpace(raw[:idx]), raw[idx+1:]
}
