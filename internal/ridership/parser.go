package ridership

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts raw records of the form "lineId,b:a,b:a,..." into per-line stop events.
// Blank records are skipped, tokens without ':' are ignored, and tokens that contain ':'
// but do not hold exactly two integers are handed to onMalformed (which may be nil).
func Parse(lines []string, onMalformed func(*MalformedStopError)) *LineEvents {
	events := NewLineEvents()
	for _, line := range lines {
		parseRecord(events, line, onMalformed)
	}
	return events
}

func parseRecord(events *LineEvents, line string, onMalformed func(*MalformedStopError)) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	parts := strings.Split(line, ",")
	lineID := parts[0]
	for _, tok := range parts[1:] {
		if !strings.Contains(tok, ":") {
			continue
		}
		ev, err := ParseStop(tok)
		if err != nil {
			if onMalformed != nil {
				onMalformed(&MalformedStopError{LineID: lineID, Token: tok, Err: err})
			}
			continue
		}
		events.Append(lineID, ev)
	}
}

// ParseStop parses a single "boarding:alighting" token.
func ParseStop(tok string) (StopEvent, error) {
	fields := strings.Split(tok, ":")
	if len(fields) != 2 {
		return StopEvent{}, errArity
	}
	b, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return StopEvent{}, fmt.Errorf("boarding: %w", err)
	}
	a, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return StopEvent{}, fmt.Errorf("alighting: %w", err)
	}
	return StopEvent{Boarding: b, Alighting: a}, nil
}
