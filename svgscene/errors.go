package svgscene

import (
	"errors"
	"fmt"
	"log"
)

// ErrorMode is the for setting how the parser reacts to unparsed elements
type ErrorMode uint8

const (
	// IgnoreErrorMode skips unparsed SVG elements
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode outputs a warning for each unparsed SVG element
	WarnErrorMode
	// StrictErrorMode causes an error when an unparsed SVG element is found
	StrictErrorMode
)

func (m ErrorMode) String() string {
	switch m {
	case IgnoreErrorMode:
		return "ignore"
	case WarnErrorMode:
		return "warn"
	case StrictErrorMode:
		return "strict"
	default:
		return "<unknown ErrorMode>"
	}
}

// ParseErrorMode maps "ignore", "warn" and "strict" to their mode.
func ParseErrorMode(s string) (ErrorMode, error) {
	switch s {
	case "", "warn":
		return WarnErrorMode, nil
	case "ignore":
		return IgnoreErrorMode, nil
	case "strict":
		return StrictErrorMode, nil
	}
	return WarnErrorMode, fmt.Errorf("invalid error mode %q", s)
}

var (
	errParamMismatch = errors.New("param mismatch")
	errZeroLengthID  = errors.New("zero length id")
	errEmptyDocument = errors.New("invalid svg xml document")

	// ErrGroupNotFound is returned when addressing a group by an unknown name.
	ErrGroupNotFound = errors.New("group not found")
)

// ParseError is returned when a document can't be turned
// into a scene: malformed XML, unsupported content in strict mode,
// or a required named group missing.
type ParseError struct {
	Element string // the offending element, if known
	Err     error
}

func (e *ParseError) Error() string {
	if e.Element == "" {
		return "svgscene: " + e.Err.Error()
	}
	return fmt.Sprintf("svgscene: <%s>: %s", e.Element, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (c *pathCursor) handleError(errStr string) error {
	switch c.errorMode {
	case StrictErrorMode:
		return errors.New(errStr)
	case WarnErrorMode:
		log.Println(errStr)
	}
	return nil
}
