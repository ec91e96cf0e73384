package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/m3rciful/gatebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Registry maps callback keys to handlers and holds the text handler.
// Handlers are registered during wiring and read concurrently afterwards.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string]tele.HandlerFunc
	notFound  tele.HandlerFunc
	text      tele.HandlerFunc
}

// NewRegistry returns an empty registry whose fallback answers unknown
// callbacks with "Unsupported action".
func NewRegistry() *Registry {
	return &Registry{
		callbacks: map[string]tele.HandlerFunc{},
		notFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

// RegisterCallback binds handler to key. Empty keys, nil handlers and
// duplicates are rejected.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		wireLog(slog.LevelWarn, "register.callback.skip",
			slog.String("cb_key", key),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.callbacks[key]; dup {
		wireLog(slog.LevelWarn, "register.callback.duplicate", slog.String("cb_key", key))
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys in order.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.callbacks))
}

// SetCallbackNotFound replaces the fallback; nil is ignored.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.notFound = h
	r.mu.Unlock()
}

func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notFound
}

func (r *Registry) SetTextHandler(h tele.HandlerFunc) {
	r.mu.Lock()
	r.text = h
	r.mu.Unlock()
}

func (r *Registry) TextHandler() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.text
}

func wireLog(level slog.Level, event string, attrs ...slog.Attr) {
	logger.LogEvent(context.Background(), logger.TWire, level, event, attrs...)
}
