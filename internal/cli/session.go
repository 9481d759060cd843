package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Bouaris/ticketflow/internal/backlog"
	"github.com/Bouaris/ticketflow/internal/config"
	"github.com/Bouaris/ticketflow/internal/workspace"
)

// session is what every command shares: resolved config and the debug
// logger. Run fills cfg before any command executes.
type session struct {
	stdin io.Reader
	cfg   config.Config
	log   *slog.Logger
}

// parseOptions routes parser warnings to o.
func (s *session) parseOptions(o *IO) []backlog.Option {
	return []backlog.Option{
		backlog.WithCustomTypes(s.cfg.ItemTypes()...),
		backlog.WithWarnings(func(w backlog.Warning) {
			o.Warn(w.String(), "fix the value, it was ignored")
		}),
	}
}

func (s *session) load(o *IO) (*backlog.Backlog, error) {
	start := time.Now()

	b, err := workspace.Load(s.cfg.BacklogFileAbs, s.parseOptions(o)...)
	if err != nil {
		return nil, err
	}

	s.log.Debug("backlog parsed",
		"file", s.cfg.BacklogFileAbs,
		"sections", len(b.Sections),
		"items", len(b.AllItems()),
		"took", time.Since(start),
	)

	return b, nil
}

func (s *session) update(o *IO, handler func(b *backlog.Backlog) (*backlog.Backlog, error)) error {
	err := workspace.Update(s.cfg.BacklogFileAbs, handler, s.parseOptions(o)...)
	if err != nil {
		return err
	}

	s.log.Debug("backlog written", "file", s.cfg.BacklogFileAbs)

	return nil
}

// warnDuplicates reports items hidden from the flattened view.
func warnDuplicates(o *IO, b *backlog.Backlog) {
	for _, w := range b.DuplicateWarnings() {
		o.Warn(w.String(), "rename or remove the later copy, only the first one is used")
	}
}

// findSection resolves a section by its id ("2") or by a case-insensitive
// title.
func findSection(b *backlog.Backlog, ref string) (int, error) {
	ref = strings.TrimSpace(ref)

	for idx, section := range b.Sections {
		if section.ID == ref {
			return idx, nil
		}
	}

	for idx, section := range b.Sections {
		if strings.EqualFold(section.Title, ref) {
			return idx, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errSectionNotFound, ref)
}
