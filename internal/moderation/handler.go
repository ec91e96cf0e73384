// Package moderation turns inbound chat events into gate decisions, filter
// verdicts and outbound transport calls.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/gatebot/core/logger"
	"github.com/m3rciful/gatebot/core/telegram/format"
	"github.com/m3rciful/gatebot/internal/filter"
	"github.com/m3rciful/gatebot/internal/gate"
	"github.com/m3rciful/gatebot/internal/store"
)

// TextMessage is an inbound text posted to the group.
type TextMessage struct {
	SenderID   int64
	SenderName string
	ChatID     int64
	Text       string
	Message    MessageRef
}

// ActionInvoked is an inline button press.
type ActionInvoked struct {
	SenderID   int64
	Action     string
	TargetID   int64
	CallbackID string
	ChatID     int64
	// Message is the message carrying the pressed button.
	Message MessageRef
}

// Verdict reports what OnTextMessage decided.
type Verdict string

const (
	VerdictExempt        Verdict = "exempt"
	VerdictGated         Verdict = "gated"
	VerdictForeignScript Verdict = Verdict(filter.VerdictForeignScript)
	VerdictBlocked       Verdict = Verdict(filter.VerdictBlocked)
	VerdictClean         Verdict = Verdict(filter.VerdictClean)
)

// Recorder receives moderation counters. Implementations must be safe for concurrent use.
type Recorder interface {
	Message(verdict string)
	Deletion(outcome string)
	Transition(action string)
	Rejection(reason string)
}

type nopRecorder struct{}

func (nopRecorder) Message(string)    {}
func (nopRecorder) Deletion(string)   {}
func (nopRecorder) Transition(string) {}
func (nopRecorder) Rejection(string)  {}

// Options wires a Handler.
type Options struct {
	Gate         *gate.Machine
	Filter       *filter.Filter
	Transport    Transport
	ReferenceURL string
	Messages     Messages
	Metrics      Recorder
}

// Handler is the message dispatcher of the bot.
type Handler struct {
	gate      *gate.Machine
	filter    *filter.Filter
	transport Transport
	url       string
	msgs      Messages
	metrics   Recorder
}

// New validates options and builds a Handler.
func New(opts Options) (*Handler, error) {
	if opts.Gate == nil {
		return nil, errors.New("moderation: gate is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("moderation: transport is required")
	}
	if strings.TrimSpace(opts.ReferenceURL) == "" {
		return nil, errors.New("moderation: reference url is required")
	}
	f := opts.Filter
	if f == nil {
		f = filter.New(nil, false)
	}
	rec := opts.Metrics
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Handler{
		gate:      opts.Gate,
		filter:    f,
		transport: opts.Transport,
		url:       opts.ReferenceURL,
		msgs:      opts.Messages.WithDefaults(),
		metrics:   rec,
	}, nil
}

// OnTextMessage gates and filters one inbound text message.
func (h *Handler) OnTextMessage(ctx context.Context, msg TextMessage) Verdict {
	v := h.decide(ctx, msg)
	h.metrics.Message(string(v))
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, "moderation", "moderation.message",
			slog.String("verdict", string(v)),
			slog.Int64("user_id", msg.SenderID),
			slog.Int64("chat_id", msg.ChatID),
		)
	}
	return v
}

func (h *Handler) decide(ctx context.Context, msg TextMessage) Verdict {
	if h.gate.IsOwner(msg.SenderID) {
		return VerdictExempt
	}
	if !h.gate.Check(ctx, msg.SenderID) {
		h.delete(ctx, msg.Message, VerdictGated)
		h.sendPrompt(ctx, msg)
		return VerdictGated
	}

	switch h.filter.Check(msg.Text) {
	case filter.VerdictForeignScript:
		h.delete(ctx, msg.Message, VerdictForeignScript)
		return VerdictForeignScript
	case filter.VerdictBlocked:
		h.delete(ctx, msg.Message, VerdictBlocked)
		return VerdictBlocked
	}
	return VerdictClean
}

// delete is best effort: every outcome other than Deleted is logged and dropped.
func (h *Handler) delete(ctx context.Context, ref MessageRef, reason Verdict) {
	outcome := h.transport.DeleteMessage(ctx, ref)
	h.metrics.Deletion(outcome.String())

	attrs := []slog.Attr{
		slog.String("reason", string(reason)),
		slog.String("outcome", outcome.String()),
		slog.Int64("chat_id", ref.ChatID),
		slog.Int("message_id", ref.MessageID),
	}
	if outcome == Deleted {
		logger.Info(ctx, "moderation", "moderation.deleted", append(attrs, slog.String("status", "ok"))...)
		return
	}
	logger.Warn(ctx, "moderation", "moderation.delete_skipped", append(attrs, slog.String("status", "skip"))...)
}

func (h *Handler) sendPrompt(ctx context.Context, msg TextMessage) {
	mention := format.MentionHTML(msg.SenderID, msg.SenderName, h.msgs.AnonymousUser)
	content := Content{
		Text: fmt.Sprintf("👋 %s\n\n%s", mention, format.EscapeHTML(h.msgs.Prompt)),
		Keyboard: [][]Button{
			{{Text: h.msgs.GetLinkButton, Data: CallbackData(ActionGetLink, msg.SenderID)}},
			{{Text: h.msgs.SubscribeButton, Data: CallbackData(ActionSubscribed, msg.SenderID)}},
		},
	}
	if err := h.transport.SendMessage(ctx, msg.ChatID, content); err != nil {
		h.transportFailed(ctx, "send_prompt", err)
	}
}

// OnAction routes a button press to the gate machine and reports the result to the user.
// Only unexpected internal failures are returned; user-level rejections are answered inline.
func (h *Handler) OnAction(ctx context.Context, ev ActionInvoked) error {
	switch ev.Action {
	case ActionGetLink:
		return h.onGetLink(ctx, ev)
	case ActionSubscribed:
		return h.onSubscribed(ctx, ev)
	}
	h.metrics.Rejection("unsupported")
	h.ack(ctx, ev, h.msgs.Unsupported, false)
	return nil
}

func (h *Handler) onGetLink(ctx context.Context, ev ActionInvoked) error {
	_, err := h.gate.GetLink(ctx, ev.SenderID, ev.TargetID)
	if errors.Is(err, gate.ErrUnauthorized) {
		h.metrics.Rejection("unauthorized")
		h.ack(ctx, ev, h.msgs.NotForYou, true)
		return nil
	}
	if err != nil && !errors.Is(err, store.ErrPersist) {
		return fmt.Errorf("get link: %w", err)
	}
	h.metrics.Transition(ActionGetLink)

	h.ack(ctx, ev, h.msgs.LinkSent, false)
	content := Content{
		Text:     format.EscapeHTML(h.msgs.LinkReply),
		Keyboard: [][]Button{{{Text: h.msgs.OpenLinkButton, URL: h.url}}},
		ReplyTo:  ev.Message.MessageID,
	}
	chatID := ev.ChatID
	if chatID == 0 {
		chatID = ev.Message.ChatID
	}
	if err := h.transport.SendMessage(ctx, chatID, content); err != nil {
		h.transportFailed(ctx, "send_link", err)
	}
	return nil
}

func (h *Handler) onSubscribed(ctx context.Context, ev ActionInvoked) error {
	_, err := h.gate.ConfirmSubscribed(ctx, ev.SenderID, ev.TargetID)
	switch {
	case errors.Is(err, gate.ErrUnauthorized):
		h.metrics.Rejection("unauthorized")
		h.ack(ctx, ev, h.msgs.NotForYou, true)
		return nil
	case errors.Is(err, gate.ErrOrderViolation):
		h.metrics.Rejection("order_violation")
		h.ack(ctx, ev, h.msgs.LinkFirst, true)
		return nil
	case err != nil && !errors.Is(err, store.ErrPersist):
		return fmt.Errorf("confirm subscribed: %w", err)
	}
	h.metrics.Transition(ActionSubscribed)

	h.ack(ctx, ev, h.msgs.Granted, false)
	if err := h.transport.EditMessage(ctx, ev.Message, format.EscapeHTML(h.msgs.GrantedEdit)); err != nil {
		h.transportFailed(ctx, "edit_prompt", err)
	}
	return nil
}

func (h *Handler) ack(ctx context.Context, ev ActionInvoked, note string, alert bool) {
	if err := h.transport.Acknowledge(ctx, ev.CallbackID, note, alert); err != nil {
		h.transportFailed(ctx, "acknowledge", err)
	}
}

func (h *Handler) transportFailed(ctx context.Context, op string, err error) {
	logger.Warn(ctx, "moderation", "moderation.transport_failed",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}
