// Package source provides the raw ridership records fed to the parser.
package source

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInputUnavailable is returned when the records source cannot be opened or read.
var ErrInputUnavailable = errors.New("input unavailable")

// ReadFile returns the records stored in the file at path, one per line.
func ReadFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputUnavailable, err)
	}
	return FromString(string(b)), nil
}

// FromString splits s into records. Line endings may be \n or \r\n.
func FromString(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
