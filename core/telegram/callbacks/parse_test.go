package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseData(t *testing.T) {
	tests := []struct {
		in      string
		key     string
		payload string
	}{
		{"get_link:123", "get_link", "123"},
		{"subscribed:42", "subscribed", "42"},
		{"\fmenu|page=2", "menu", "page=2"},
		{"plain", "plain", ""},
		{"", "", ""},
		{"a:b:c", "a", "b:c"},
	}
	for _, tt := range tests {
		key, payload := ParseData(tt.in)
		assert.Equal(t, tt.key, key, tt.in)
		assert.Equal(t, tt.payload, payload, tt.in)
	}
}

func TestParsePrefersUnique(t *testing.T) {
	key, payload := Parse(&tele.Callback{Unique: "btn", Data: "7"})
	assert.Equal(t, "btn", key)
	assert.Equal(t, "7", payload)

	key, payload = Parse(nil)
	assert.Empty(t, key)
	assert.Empty(t, payload)
}
