package backlog

import (
	"errors"
	"fmt"
	"time"
)

// Error variables for parsing and mutation.
var (
	ErrMalformedHeader = errors.New("malformed header")
	ErrUnknownType     = errors.New("unknown item type")
	ErrCriterionIndex  = errors.New("criterion index out of range")
	ErrItemNotFound    = errors.New("item not found")
	ErrSectionIndex    = errors.New("section index out of range")
	ErrInvalidID       = errors.New("invalid item id")
	ErrRawSection      = errors.New("section only holds raw text")
	ErrMultiline       = errors.New("values cannot span lines")
)

// WarningKind classifies non-fatal findings.
type WarningKind uint8

// WarningKind values.
const (
	WarnInvalidSeverity WarningKind = iota + 1
	WarnInvalidEffort
	WarnDuplicateID
)

func (k WarningKind) String() string {
	switch k {
	case WarnInvalidSeverity:
		return "invalid severity"
	case WarnInvalidEffort:
		return "invalid effort"
	case WarnDuplicateID:
		return "duplicate id"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal finding. Parsing never fails because of one.
type Warning struct {
	Kind   WarningKind
	Line   int // 1-based line in the normalized text, 0 if unknown
	ItemID string
	Value  string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s %s: %q", w.Line, w.ItemID, w.Kind, w.Value)
	}

	return fmt.Sprintf("%s %s: %q", w.ItemID, w.Kind, w.Value)
}

// Option configures [Parse].
type Option func(*options)

type options struct {
	now         func() time.Time
	warn        func(Warning)
	customTypes []ItemType
}

func newOptions(opts []Option) options {
	cfg := options{
		now:  time.Now,
		warn: func(Warning) {},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// WithClock sets the capture time used for screenshots whose filename
// carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithWarnings registers a sink for non-fatal findings such as dropped
// metadata values. Without it they are discarded silently.
func WithWarnings(sink func(Warning)) Option {
	return func(o *options) {
		if sink != nil {
			o.warn = sink
		}
	}
}

// WithCustomTypes accepts additional id prefixes as item types.
func WithCustomTypes(types ...ItemType) Option {
	return func(o *options) {
		o.customTypes = append(o.customTypes, types...)
	}
}
