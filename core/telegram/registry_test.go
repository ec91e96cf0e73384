package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	noop := func(tele.Context) error { return nil }

	require.NoError(t, reg.RegisterCallback("subscribed", noop))
	require.NoError(t, reg.RegisterCallback("get_link", noop))
	assert.Error(t, reg.RegisterCallback("get_link", noop))
	assert.Error(t, reg.RegisterCallback("", noop))
	assert.Error(t, reg.RegisterCallback("x", nil))

	assert.Equal(t, []string{"get_link", "subscribed"}, reg.ListCallbacks())
	_, ok := reg.GetCallback("get_link")
	assert.True(t, ok)
	_, ok = reg.GetCallback("missing")
	assert.False(t, ok)
}

func TestRegistryFallbacks(t *testing.T) {
	reg := NewRegistry()
	assert.NotNil(t, reg.CallbackNotFound())
	assert.Nil(t, reg.TextHandler())

	called := false
	reg.SetCallbackNotFound(func(tele.Context) error { called = true; return nil })
	reg.SetCallbackNotFound(nil)
	require.NoError(t, reg.CallbackNotFound()(nil))
	assert.True(t, called)

	reg.SetTextHandler(func(tele.Context) error { return nil })
	assert.NotNil(t, reg.TextHandler())
}
