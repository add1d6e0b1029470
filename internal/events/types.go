package events

// Event type constants for kelindar/event.
const (
	TypeStatusUpdated uint32 = iota + 1
	TypeIndicatorChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StatusUpdatedEvent is published once per poll iteration.
type StatusUpdatedEvent struct {
	Status    string `json:"status" example:"green" doc:"Classified status: red, yellow, green or error"`
	Signal    *int   `json:"signal,omitempty" example:"2" doc:"Latest signal value, absent when unavailable"`
	Error     string `json:"error,omitempty" example:"signal data not found" doc:"Why the status is error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Poll timestamp"`
}

// Type returns the event type identifier for StatusUpdatedEvent.
func (e StatusUpdatedEvent) Type() uint32 { return TypeStatusUpdated }

// IndicatorChangedEvent is published after every indicator write, including
// all-off resets.
type IndicatorChangedEvent struct {
	State       string `json:"state" example:"green" doc:"Active output: off, red, yellow or green"`
	Description string `json:"description,omitempty" example:"High renewable energy" doc:"Meaning of the active output"`
	Timestamp   string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for IndicatorChangedEvent.
func (e IndicatorChangedEvent) Type() uint32 { return TypeIndicatorChanged }
