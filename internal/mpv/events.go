package mpv

import "encoding/json"

// EventKind classifies player events.
type EventKind int

const (
	EventPosition EventKind = iota + 1
	EventDuration
	EventPath
	EventEndFile
)

func (k EventKind) String() string {
	switch k {
	case EventPosition:
		return "position"
	case EventDuration:
		return "duration"
	case EventPath:
		return "path"
	case EventEndFile:
		return "end_file"
	default:
		return "unknown"
	}
}

// Event is one player notification.
type Event struct {
	Kind  EventKind
	Value float64
	Path  string
	// Reason is set for EventEndFile (eof, stop, quit, error, redirect).
	Reason string
}

func parseEvent(msg message) (Event, bool) {
	switch msg.Event {
	case "end-file":
		return Event{Kind: EventEndFile, Reason: msg.Reason}, true
	case "property-change":
	default:
		return Event{}, false
	}

	switch msg.Name {
	case "time-pos", "duration":
		var v *float64
		if err := json.Unmarshal(msg.Data, &v); err != nil || v == nil {
			return Event{}, false
		}
		kind := EventPosition
		if msg.Name == "duration" {
			kind = EventDuration
		}
		return Event{Kind: kind, Value: *v}, true
	case "path":
		var p *string
		if err := json.Unmarshal(msg.Data, &p); err != nil || p == nil {
			return Event{}, false
		}
		return Event{Kind: EventPath, Path: *p}, true
	}
	return Event{}, false
}
