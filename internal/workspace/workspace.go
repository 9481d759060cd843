// Package workspace reads and rewrites backlog files on disk.
//
// Reads are lock-free. Writes take an exclusive lock next to the file, parse
// the current content, apply a change and replace the file atomically, so a
// concurrent writer never loses an update and readers never see a partial
// file.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/Bouaris/ticketflow/internal/backlog"
)

// Error variables for file access.
var (
	ErrNotFound   = errors.New("backlog file not found")
	ErrUnparsable = errors.New("refusing to write a backlog that does not parse")
)

// ReadText returns the content of the backlog file at path.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return "", fmt.Errorf("reading backlog: %w", err)
	}

	return string(data), nil
}

// Load reads and parses the backlog file at path.
func Load(path string, opts ...backlog.Option) (*backlog.Backlog, error) {
	text, err := ReadText(path)
	if err != nil {
		return nil, err
	}

	parsed, err := backlog.Parse(text, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return parsed, nil
}

// UpdateText rewrites the file at path under the lock. handler receives the
// current content; returning the same text skips the write. If handler
// fails nothing is written.
func UpdateText(path string, handler func(text string) (string, error)) error {
	return WithLock(path, func() error {
		current, err := ReadText(path)
		if err != nil {
			return err
		}

		next, err := handler(current)
		if err != nil {
			return err
		}

		if next == current {
			return nil
		}

		if err := atomic.WriteFile(path, strings.NewReader(next)); err != nil {
			return fmt.Errorf("writing backlog: %w", err)
		}

		return nil
	})
}

// Update parses the file under the lock, passes the model to handler and
// writes the serialized result. A nil backlog from handler means no change.
// A result that does not parse again is not written.
func Update(path string, handler func(b *backlog.Backlog) (*backlog.Backlog, error), opts ...backlog.Option) error {
	return UpdateText(path, func(text string) (string, error) {
		parsed, err := backlog.Parse(text, opts...)
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}

		next, err := handler(parsed)
		if err != nil {
			return "", err
		}

		if next == nil {
			return text, nil
		}

		out := backlog.Serialize(next)

		// Warnings were already reported for the first parse.
		quiet := append(slices.Clone(opts), backlog.WithWarnings(func(backlog.Warning) {}))

		if _, err := backlog.Parse(out, quiet...); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrUnparsable, path, err)
		}

		return out, nil
	})
}
