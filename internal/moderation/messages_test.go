package moderation

import (
	"reflect"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMessagesArePersian(t *testing.T) {
	v := reflect.ValueOf(DefaultMessages())
	for i := 0; i < v.NumField(); i++ {
		name, text := v.Type().Field(i).Name, v.Field(i).String()
		assert.Truef(t, hasArabicScript(text), "%s = %q", name, text)
	}
}

func TestWithDefaultsKeepsOverrides(t *testing.T) {
	m := Messages{Unsupported: "nope"}.WithDefaults()
	assert.Equal(t, "nope", m.Unsupported)
	assert.Equal(t, DefaultMessages().LinkSent, m.LinkSent)
}

func hasArabicScript(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}
