package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/gatebot/core/logger"
	tghelpers "github.com/m3rciful/gatebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// observe runs fn as handler name and logs a handler.handled summary.
// Successful runs are sampled at debug level; failures are always logged.
// A nil fn is recorded as skipped.
func observe(c tele.Context, name string, fn tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)

	var err error
	status := "skip"
	if fn != nil {
		status = "ok"
		if err = fn(c); err != nil {
			status = "fail"
		}
	}

	level := slog.LevelDebug
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.Duration("duration", time.Since(start)),
	}, extras...)
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errCode(err)),
		)
	} else if !logger.ShouldSampleDebug() {
		return nil
	}
	logger.LogEvent(ctx, logger.Component("tg"), level, "handler.handled", attrs...)
	return err
}

func normalizeHandlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// errCode turns err into a short upper-case tag: TG_<code> for Bot API
// errors, otherwise the error's type name.
func errCode(err error) string {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return "TG_" + strconv.Itoa(apiErr.Code)
	}
	name := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(name)
}
