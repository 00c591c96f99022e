// Package history keeps the bounded list of links a visitor created recently.
//
// The log is newest-first, holds at most Capacity slugs and never contains the
// same slug twice. It is persisted by the caller; String and Parse provide a
// compact encoding suitable for a cookie value.
package history

import (
	"strings"

	"github.com/vadimbarashkov/shortlink/internal/slug"
)

// DefaultCapacity is the number of recent links kept.
const DefaultCapacity = 5

const separator = "."

// Log is a bounded, ordered log of recently created slugs.
type Log struct {
	capacity int
	slugs    []string
}

// New returns an empty Log holding at most capacity slugs.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Log{capacity: capacity}
}

// Parse decodes a value produced by String. Invalid entries are skipped, so a
// tampered or stale value yields a shorter log rather than an error.
func Parse(value string, capacity int) *Log {
	l := New(capacity)
	if value == "" {
		return l
	}

	for _, s := range strings.Split(value, separator) {
		if !slug.IsValidSlug(s) || l.contains(s) {
			continue
		}
		if len(l.slugs) == l.capacity {
			break
		}
		l.slugs = append(l.slugs, s)
	}

	return l
}

// Push records s as the most recent entry, moving it to the front if present
// and evicting the oldest entry when the log is full.
func (l *Log) Push(s string) {
	slugs := make([]string, 0, l.capacity)
	slugs = append(slugs, s)

	for _, existing := range l.slugs {
		if existing == s {
			continue
		}
		if len(slugs) == l.capacity {
			break
		}
		slugs = append(slugs, existing)
	}

	l.slugs = slugs
}

// Slugs returns the entries, newest first.
func (l *Log) Slugs() []string {
	out := make([]string, len(l.slugs))
	copy(out, l.slugs)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.slugs)
}

// String encodes the log. Slugs never contain the separator.
func (l *Log) String() string {
	return strings.Join(l.slugs, separator)
}

func (l *Log) contains(s string) bool {
	for _, existing := range l.slugs {
		if existing == s {
			return true
		}
	}
	return false
}
