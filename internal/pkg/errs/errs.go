package errs

import (
	"errors"
	"fmt"
	"strings"

	cr "github.com/cockroachdb/errors"
)

func New(msg string) error {
	return cr.New(msg)
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

// Mark attaches markErr so callers can match with errors.Is while the
// original cause stays available for logging.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return &marked{error: cr.Mark(err, markErr), mark: markErr}
}

// marked exposes the mark to the standard library's errors.Is, which does
// not see cockroachdb marker metadata. The embedded error keeps the
// cockroachdb chain (message, stacks, cr.Is) intact.
type marked struct {
	error
	mark error
}

func (m *marked) Is(target error) bool { return errors.Is(m.mark, target) }

func (m *marked) Unwrap() error { return m.error }

func (m *marked) Format(s fmt.State, verb rune) {
	if f, ok := m.error.(fmt.Formatter); ok {
		f.Format(s, verb)
		return
	}
	fmt.Fprintf(s, fmt.FormatString(s, verb), m.error)
}

func ExtractStackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	s := fmt.Sprintf("%+v", err)
	lines := strings.Split(s, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
