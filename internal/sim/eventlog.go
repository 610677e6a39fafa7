package sim

import (
	"fmt"
	"strings"
)

// Event is one recorded simulation event.
type Event struct {
	Tick     int
	Agent    string  // label e.g. "U0", or "--" for world events
	Category string  // order, route, avoid, terrain
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the event as a fixed-width log line.
//
//	[T=042] U0   route     arrived          (12,4)
func (e Event) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-16s %s",
		e.Tick, e.Agent, e.Category, e.Key, e.Value)
}

// EventLog collects structured events for tests, reports and front ends.
// It is unbounded unless created with NewBoundedEventLog.
type EventLog struct {
	entries []Event
	verbose bool
	limit   int // 0 means unbounded
	dropped int // events discarded from the front
}

// NewEventLog creates an EventLog. If verbose is true, per-tick position and
// avoidance entries are recorded too.
func NewEventLog(verbose bool) *EventLog {
	return &EventLog{verbose: verbose}
}

// NewBoundedEventLog creates an EventLog that keeps at most limit events.
// When full, the oldest quarter is discarded in one go. Interactive front
// ends use it so a long session does not grow without bound.
func NewBoundedEventLog(verbose bool, limit int) *EventLog {
	if limit < 4 {
		limit = 4
	}
	return &EventLog{verbose: verbose, limit: limit}
}

// Add records a new event.
func (el *EventLog) Add(tick int, agent, category, key, value string, numVal float64) {
	if el.limit > 0 && len(el.entries) >= el.limit {
		drop := el.limit / 4
		n := copy(el.entries, el.entries[drop:])
		clear(el.entries[n:])
		el.entries = el.entries[:n]
		el.dropped += drop
	}
	el.entries = append(el.entries, Event{
		Tick:     tick,
		Agent:    agent,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an event only when verbose mode is on.
func (el *EventLog) AddVerbose(tick int, agent, category, key, value string, numVal float64) {
	if !el.verbose {
		return
	}
	el.Add(tick, agent, category, key, value, numVal)
}

// Verbose reports whether per-tick entries are recorded.
func (el *EventLog) Verbose() bool { return el.verbose }

// Len returns the number of events currently held.
func (el *EventLog) Len() int { return len(el.entries) }

// Total returns the number of events ever recorded, including any a bounded
// log has discarded. It is the cursor to pass to Since.
func (el *EventLog) Total() int { return el.dropped + len(el.entries) }

// Entries returns the events currently held, oldest first.
func (el *EventLog) Entries() []Event {
	return el.entries
}

// Since returns the held events recorded after the first n ever recorded.
// Events a bounded log already discarded are skipped.
func (el *EventLog) Since(n int) []Event {
	n -= el.dropped
	if n < 0 {
		n = 0
	}
	if n >= len(el.entries) {
		return nil
	}
	return el.entries[n:]
}

// Filter returns events matching the given category and/or key.
// Pass empty string to match any value for that field.
func (el *EventLog) Filter(category, key string) []Event {
	var out []Event
	for _, e := range el.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterAgent returns every event for one agent label.
func (el *EventLog) FilterAgent(label string) []Event {
	var out []Event
	for _, e := range el.entries {
		if e.Agent == label {
			out = append(out, e)
		}
	}
	return out
}

// Dump formats every event, one per line.
func (el *EventLog) Dump() string {
	var sb strings.Builder
	for _, e := range el.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
