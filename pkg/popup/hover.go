package popup

import "time"

type State int

const (
	Idle State = iota
	PendingOpen
	Open
	PendingClose
)

func (s State) String() string {
	switch s {
	case PendingOpen:
		return "pending-open"
	case Open:
		return "open"
	case PendingClose:
		return "pending-close"
	}
	return "idle"
}

type Event int

const (
	TriggerEnter Event = iota
	TriggerLeave
	PopupEnter
	PopupLeave
	Elapsed
)

const DefaultDelay = 300 * time.Millisecond

type Delays struct {
	Open  time.Duration
	Close time.Duration
}

func DefaultDelays() Delays {
	return Delays{Open: DefaultDelay, Close: DefaultDelay}
}

// Hover is the state of one card. A zero Deadline means no timer is running.
type Hover struct {
	State    State
	Deadline time.Time
}

// Next is the transition function. Elapsed only counts once the deadline has passed.
func (h Hover) Next(ev Event, now time.Time, d Delays) Hover {
	switch h.State {
	case Idle:
		if ev == TriggerEnter {
			return Hover{State: PendingOpen, Deadline: now.Add(d.Open)}
		}
	case PendingOpen:
		switch ev {
		case TriggerLeave:
			return Hover{State: Idle}
		case Elapsed:
			if !now.Before(h.Deadline) {
				return Hover{State: Open}
			}
		}
	case Open:
		switch ev {
		case TriggerLeave, PopupLeave:
			return Hover{State: PendingClose, Deadline: now.Add(d.Close)}
		}
	case PendingClose:
		switch ev {
		case TriggerEnter, PopupEnter:
			return Hover{State: Open}
		case TriggerLeave, PopupLeave:
			return Hover{State: PendingClose, Deadline: now.Add(d.Close)}
		case Elapsed:
			if !now.Before(h.Deadline) {
				return Hover{State: Idle}
			}
		}
	}
	return h
}

// Timed reports whether the state waits on a timer.
func (h Hover) Timed() bool {
	return h.State == PendingOpen || h.State == PendingClose
}
