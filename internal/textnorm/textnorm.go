// Package textnorm canonicalizes Persian/Arabic text so that substring matching
// is not defeated by look-alike letters, diacritics, zero-width characters or
// punctuation inserted between letters.
package textnorm

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// variants maps alternate letterforms to the canonical Persian rune.
var variants = map[rune]rune{
	'ك': 'ک', // Arabic kaf
	'ي': 'ی', // Arabic yeh
	'ة': 'ه', // teh marbuta
	'ۀ': 'ه', // heh with yeh above
	'أ': 'ا',
	'إ': 'ا',
	'ؤ': 'و',
	'ئ': 'ی',
}

const tatweel = 'ـ'

var marks = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x064B, Hi: 0x065F, Stride: 1},
		{Lo: 0x0670, Hi: 0x0670, Stride: 1},
		{Lo: 0x06D6, Hi: 0x06ED, Stride: 1},
	},
}

var zeroWidth = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200B, Hi: 0x200D, Stride: 1},
	},
}

// The transformers below hold no state and may be shared; chains may not.
var (
	foldVariants = runes.Map(func(r rune) rune {
		if c, ok := variants[r]; ok {
			return c
		}
		return r
	})
	dropTatweel   = runes.Remove(runes.Predicate(func(r rune) bool { return r == tatweel }))
	dropMarks     = runes.Remove(runes.In(marks))
	dropZeroWidth = runes.Remove(runes.In(zeroWidth))
	dropForeign   = runes.Remove(runes.Predicate(func(r rune) bool { return !keep(r) }))
	lowerASCII    = runes.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	})
)

func keep(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 0x0600 && r <= 0x06FF:
		return true
	}
	return false
}

// Normalize returns the canonical form of text. It is pure and idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	chain := transform.Chain(foldVariants, dropTatweel, dropMarks, dropZeroWidth, dropForeign, lowerASCII)
	out, _, err := transform.String(chain, text)
	if err != nil {
		// runes transformers only fail on short buffers, which transform.String handles.
		return ""
	}
	return out
}
