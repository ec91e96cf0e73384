// Package filter decides whether a message from a verified member must be removed.
//
// Two rules are applied:
//   - foreign script: the raw message contains an ASCII letter (optional)
//   - blocked terms: a configured term occurs in the normalized message
package filter

import (
	"strings"

	"github.com/m3rciful/gatebot/internal/textnorm"
)

// Verdict is the filter decision for a single message.
type Verdict string

const (
	VerdictClean         Verdict = "clean"
	VerdictForeignScript Verdict = "foreign_script"
	VerdictBlocked       Verdict = "blocked_term"
)

// Filter holds the static blocked-term list and the foreign-script policy.
type Filter struct {
	terms         []string // normalized, non-empty
	raw           []string
	foreignScript bool
}

// New creates a Filter. Terms are normalized once here; terms that normalize
// to an empty string would match everything and are dropped.
func New(terms []string, foreignScript bool) *Filter {
	f := &Filter{foreignScript: foreignScript}
	for _, t := range terms {
		n := textnorm.Normalize(t)
		if n == "" {
			continue
		}
		f.terms = append(f.terms, n)
		f.raw = append(f.raw, t)
	}
	return f
}

// Terms returns the number of active blocked terms.
func (f *Filter) Terms() int { return len(f.terms) }

// ForeignScriptEnabled reports whether the foreign-script rule is active.
func (f *Filter) ForeignScriptEnabled() bool { return f.foreignScript }

// Match reports the first configured term found in the normalized message.
func (f *Filter) Match(message string) (string, bool) {
	if len(f.terms) == 0 {
		return "", false
	}
	norm := textnorm.Normalize(message)
	if norm == "" {
		return "", false
	}
	for i, term := range f.terms {
		if strings.Contains(norm, term) {
			return f.raw[i], true
		}
	}
	return "", false
}

// IsBlocked reports whether the message contains a blocked term.
func (f *Filter) IsBlocked(message string) bool {
	_, ok := f.Match(message)
	return ok
}

// HasForeignScript reports whether the raw message contains an ASCII letter.
// It deliberately looks at the raw text, not the normalized one.
func HasForeignScript(message string) bool {
	for i := 0; i < len(message); i++ {
		c := message[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return false
}

// Check applies the foreign-script rule (when enabled) and then the blocked-term rule.
func (f *Filter) Check(message string) Verdict {
	if f.foreignScript && HasForeignScript(message) {
		return VerdictForeignScript
	}
	if f.IsBlocked(message) {
		return VerdictBlocked
	}
	return VerdictClean
}
