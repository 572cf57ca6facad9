package popup

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

// Measure reports the trigger's bounding box and the viewport at the moment of opening.
type Measure func() (Rect, Viewport)

type ChangeListener func(state State, geometry *Geometry)

type CardOption func(*Card)

func WithClock(clock clockwork.Clock) CardOption {
	return func(c *Card) { c.clock = clock }
}

func WithDelays(d Delays) CardOption {
	return func(c *Card) { c.delays = d }
}

func WithPlacer(p Placer) CardOption {
	return func(c *Card) { c.placer = p }
}

func WithChangeListener(fn ChangeListener) CardOption {
	return func(c *Card) { c.onChange = fn }
}

// Card runs the hover machine of one job card on real (or injected) timers.
type Card struct {
	clock    clockwork.Clock
	delays   Delays
	placer   Placer
	size     Size
	measure  Measure
	onChange ChangeListener

	mu       sync.Mutex
	hover    Hover
	geometry *Geometry
	timer    clockwork.Timer
	closed   bool
}

func NewCard(measure Measure, size Size, opts ...CardOption) *Card {
	c := &Card{
		clock:   clockwork.NewRealClock(),
		delays:  DefaultDelays(),
		placer:  NewPlacer(),
		size:    size,
		measure: measure,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Card) TriggerEnter() { c.dispatch(TriggerEnter) }
func (c *Card) TriggerLeave() { c.dispatch(TriggerLeave) }
func (c *Card) PopupEnter()   { c.dispatch(PopupEnter) }
func (c *Card) PopupLeave()   { c.dispatch(PopupLeave) }

func (c *Card) State() (State, *Geometry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hover.State, c.geometry
}

func (c *Card) dispatch(ev Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	prev := c.hover
	next := prev.Next(ev, now, c.delays)
	c.hover = next

	switch {
	case next.State == Open && prev.State == PendingOpen:
		rect, vp := c.measure()
		g := c.placer.Place(rect, vp, c.size)
		c.geometry = &g
	case next.State == Idle:
		c.geometry = nil
	}

	if next.Timed() {
		if next.Deadline != prev.Deadline || !prev.Timed() {
			c.stopTimer()
			c.timer = c.clock.AfterFunc(next.Deadline.Sub(now), func() {
				c.dispatch(Elapsed)
			})
		}
	} else {
		c.stopTimer()
	}

	changed := next.State != prev.State
	state, geometry := next.State, c.geometry
	listener := c.onChange
	c.mu.Unlock()

	if changed && listener != nil {
		listener(state, geometry)
	}
}

func (c *Card) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Close is the unmount: timers stop and the preview is gone.
func (c *Card) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimer()
	c.hover = Hover{State: Idle}
	c.geometry = nil
}
