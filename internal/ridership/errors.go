package ridership

import (
	"errors"
	"fmt"
)

var errArity = errors.New("expected exactly two values")

// MalformedStopError describes a stop token that was skipped during parsing.
type MalformedStopError struct {
	LineID string
	Token  string
	Err    error
}

func (e *MalformedStopError) Error() string {
	return fmt.Sprintf("line %q: malformed stop %q: %v", e.LineID, e.Token, e.Err)
}

func (e *MalformedStopError) Unwrap() error { return e.Err }
