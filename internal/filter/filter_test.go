package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Neutral terms stand in for the real list; the matching rules do not depend on content.
var testTerms = []string{"کلمه", "بدی", "spam"}

func TestIsBlocked(t *testing.T) {
	f := New(testTerms, false)

	tests := []struct {
		name string
		msg  string
		want bool
	}{
		{name: "clean", msg: "سلام دوستان", want: false},
		{name: "plain term", msg: "این یک کلمه است", want: true},
		{name: "term inside word", msg: "کلمهها", want: true},
		{name: "spaced letters", msg: "ک ل م ه", want: true},
		{name: "punctuation between letters", msg: "ک.ل-م_ه", want: true},
		{name: "diacritics inserted", msg: "ک\u064eل\u064fم\u0650ه", want: true},
		{name: "zero width inserted", msg: "ک\u200cل\u200bم\u200dه", want: true},
		{name: "tatweel inserted", msg: "کــلــمــه", want: true},
		{name: "arabic kaf variant", msg: "كلمه", want: true},
		{name: "arabic yeh variant", msg: "بدي", want: true},
		{name: "latin upper case", msg: "S P A M", want: true},
		{name: "empty", msg: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsBlocked(tt.msg))
		})
	}
}

func TestMatchReportsConfiguredTerm(t *testing.T) {
	f := New(testTerms, false)
	term, ok := f.Match("ب-د-ي")
	assert.True(t, ok)
	assert.Equal(t, "بدی", term)
}

func TestNewDropsEmptyTerms(t *testing.T) {
	f := New([]string{"", "  ", "!!!", "کلمه"}, false)
	assert.Equal(t, 1, f.Terms())
	assert.False(t, f.IsBlocked("سلام"))
}

func TestHasForeignScript(t *testing.T) {
	assert.True(t, HasForeignScript("salam"))
	assert.True(t, HasForeignScript("سلام X"))
	assert.False(t, HasForeignScript("سلام ۱۲۳ 456 !?"))
	assert.False(t, HasForeignScript("привет"))
	assert.False(t, HasForeignScript(""))
}

func TestCheck(t *testing.T) {
	on := New(testTerms, true)
	off := New(testTerms, false)

	assert.Equal(t, VerdictForeignScript, on.Check("hello"))
	assert.Equal(t, VerdictClean, off.Check("hello"))
	assert.Equal(t, VerdictBlocked, off.Check("kalame کلمه"))
	assert.Equal(t, VerdictForeignScript, on.Check("spam"))
	assert.Equal(t, VerdictBlocked, on.Check("بدی"))
	assert.Equal(t, VerdictClean, on.Check("سلام"))
}
