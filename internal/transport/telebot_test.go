package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gatebot/core/telegram/sender"
	"github.com/m3rciful/gatebot/internal/moderation"
)

type fakeAPI struct {
	deleteErr error
	sendErr   error

	deleted   []tele.Editable
	sentTo    []tele.Recipient
	sentText  []string
	sentOpts  []*tele.SendOptions
	edited    []string
	responses []*tele.CallbackResponse
	sent      chan struct{}
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.sentTo = append(f.sentTo, to)
	f.sentText = append(f.sentText, what.(string))
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			f.sentOpts = append(f.sentOpts, so)
		}
	}
	if f.sent != nil {
		f.sent <- struct{}{}
	}
	return &tele.Message{ID: 99}, f.sendErr
}

func (f *fakeAPI) Edit(msg tele.Editable, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.edited = append(f.edited, what.(string))
	return &tele.Message{}, nil
}

func (f *fakeAPI) Delete(msg tele.Editable) error {
	f.deleted = append(f.deleted, msg)
	return f.deleteErr
}

func (f *fakeAPI) Respond(_ *tele.Callback, resp ...*tele.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

func TestClassifyDeleteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want moderation.DeleteOutcome
	}{
		{"nil", nil, moderation.Deleted},
		{"not found", tele.NewError(400, "Bad Request: message to delete not found"), moderation.AlreadyGone},
		{"too old", tele.NewError(400, "Bad Request: message can't be deleted"), moderation.Denied},
		{"no rights", tele.NewError(400, "Bad Request: not enough rights to delete a message"), moderation.Denied},
		{"forbidden", tele.NewError(403, "Forbidden: bot is not a member of the supergroup chat"), moderation.Denied},
		{"network", errors.New("dial tcp: connection refused"), moderation.DeleteFailed},
		{"server", tele.NewError(502, "Bad Gateway"), moderation.DeleteFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDeleteError(tt.err))
		})
	}
}

func TestDeleteMessageAddressesStoredMessage(t *testing.T) {
	api := &fakeAPI{deleteErr: tele.NewError(400, "Bad Request: message to delete not found")}
	tr := New(api, nil)

	got := tr.DeleteMessage(context.Background(), moderation.MessageRef{ChatID: -100, MessageID: 42})
	assert.Equal(t, moderation.AlreadyGone, got)
	require.Len(t, api.deleted, 1)
	id, chat := api.deleted[0].MessageSig()
	assert.Equal(t, "42", id)
	assert.Equal(t, int64(-100), chat)
}

func TestSendMessageSync(t *testing.T) {
	api := &fakeAPI{}
	tr := New(api, nil)

	err := tr.SendMessage(context.Background(), -100, moderation.Content{
		Text: "hello",
		Keyboard: [][]moderation.Button{
			{{Text: "link", Data: "get_link:5"}},
			{{Text: "open", URL: "https://example.org"}},
		},
		ReplyTo: 7,
	})
	require.NoError(t, err)
	require.Len(t, api.sentOpts, 1)

	opts := api.sentOpts[0]
	assert.Equal(t, tele.ModeHTML, opts.ParseMode)
	require.NotNil(t, opts.ReplyTo)
	assert.Equal(t, 7, opts.ReplyTo.ID)
	assert.True(t, opts.AllowWithoutReply)
	require.NotNil(t, opts.ReplyMarkup)
	require.Len(t, opts.ReplyMarkup.InlineKeyboard, 2)
	assert.Equal(t, "get_link:5", opts.ReplyMarkup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "https://example.org", opts.ReplyMarkup.InlineKeyboard[1][0].URL)
	assert.Equal(t, "-100", api.sentTo[0].Recipient())
}

func TestSendMessageWithoutKeyboardOrReply(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("boom")}
	tr := New(api, nil)

	err := tr.SendMessage(context.Background(), 1, moderation.Content{Text: "x"})
	assert.Error(t, err)
	assert.Nil(t, api.sentOpts[0].ReplyMarkup)
	assert.Nil(t, api.sentOpts[0].ReplyTo)
}

func TestSendMessageThroughDispatcher(t *testing.T) {
	api := &fakeAPI{sent: make(chan struct{}, 1)}
	d := sender.NewDispatcher(sender.Options{Workers: 1})
	tr := New(api, d)

	require.NoError(t, tr.SendMessage(context.Background(), 1, moderation.Content{Text: "queued"}))
	d.Close()
	<-api.sent
	assert.Equal(t, []string{"queued"}, api.sentText)
}

func TestSendMessageFallsBackWhenQueueClosed(t *testing.T) {
	api := &fakeAPI{}
	d := sender.NewDispatcher(sender.Options{Workers: 1})
	d.Close()
	tr := New(api, d)

	require.NoError(t, tr.SendMessage(context.Background(), 1, moderation.Content{Text: "direct"}))
	assert.Equal(t, []string{"direct"}, api.sentText)
}

func TestEditAndAcknowledge(t *testing.T) {
	api := &fakeAPI{}
	tr := New(api, nil)

	require.NoError(t, tr.EditMessage(context.Background(), moderation.MessageRef{ChatID: 1, MessageID: 2}, "done"))
	assert.Equal(t, []string{"done"}, api.edited)

	require.NoError(t, tr.Acknowledge(context.Background(), "cb-1", "note", true))
	require.Len(t, api.responses, 1)
	assert.Equal(t, "note", api.responses[0].Text)
	assert.True(t, api.responses[0].ShowAlert)

	require.NoError(t, tr.Acknowledge(context.Background(), "", "ignored", false))
	assert.Len(t, api.responses, 1)
}
