package ridership

import "strconv"

// StopEvent is one boarding/alighting measurement at a single stop.
type StopEvent struct {
	Boarding  int
	Alighting int
}

// String renders the event in its wire form "boarding:alighting".
func (e StopEvent) String() string {
	return strconv.Itoa(e.Boarding) + ":" + strconv.Itoa(e.Alighting)
}

// LineEvents holds the stop events of every line, keyed by line id.
// Line ids keep the order in which they were first seen; events keep input order.
type LineEvents struct {
	order  []string
	events map[string][]StopEvent
}

func NewLineEvents() *LineEvents {
	return &LineEvents{events: make(map[string][]StopEvent)}
}

// Append adds ev to the end of lineID's sequence, creating the sequence on first use.
func (l *LineEvents) Append(lineID string, ev StopEvent) {
	seq, ok := l.events[lineID]
	if !ok {
		l.order = append(l.order, lineID)
	}
	l.events[lineID] = append(seq, ev)
}

// Lines returns line ids in first-seen order.
func (l *LineEvents) Lines() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

func (l *LineEvents) Events(lineID string) []StopEvent { return l.events[lineID] }

func (l *LineEvents) Len() int { return len(l.order) }
