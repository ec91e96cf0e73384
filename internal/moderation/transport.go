package moderation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// MessageRef addresses one chat message.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Button is an inline button carrying either callback data or an external URL.
type Button struct {
	Text string
	Data string
	URL  string
}

// Content is an outbound message with optional inline keyboard rows.
type Content struct {
	Text     string
	Keyboard [][]Button
	// ReplyTo is the message id to reply to; 0 sends a plain message.
	ReplyTo int
}

// DeleteOutcome classifies the result of a delete request.
type DeleteOutcome int

const (
	Deleted DeleteOutcome = iota
	AlreadyGone
	Denied
	DeleteFailed
)

func (o DeleteOutcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case AlreadyGone:
		return "already_gone"
	case Denied:
		return "denied"
	case DeleteFailed:
		return "failed"
	}
	return "unknown"
}

// Transport is the outbound side of the chat platform.
type Transport interface {
	DeleteMessage(ctx context.Context, ref MessageRef) DeleteOutcome
	SendMessage(ctx context.Context, chatID int64, content Content) error
	EditMessage(ctx context.Context, ref MessageRef, text string) error
	Acknowledge(ctx context.Context, callbackID, note string, alert bool) error
}

// Action names carried in callback data.
const (
	ActionGetLink    = "get_link"
	ActionSubscribed = "subscribed"
)

// CallbackData encodes an action addressed to targetID as "action:targetID".
func CallbackData(action string, targetID int64) string {
	return fmt.Sprintf("%s:%d", action, targetID)
}

// ParseCallbackData splits "action:targetID". A missing or malformed target
// yields targetID 0, which never matches a real sender.
func ParseCallbackData(data string) (string, int64) {
	data = strings.TrimSpace(data)
	action, rawID, found := strings.Cut(data, ":")
	if !found {
		return action, 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil {
		return action, 0
	}
	return action, id
}
