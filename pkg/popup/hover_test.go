package popup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoverOpensAfterDelay(t *testing.T) {
	start := time.Unix(1000, 0)
	d := DefaultDelays()

	h := Hover{}.Next(TriggerEnter, start, d)
	assert.Equal(t, PendingOpen, h.State)
	assert.True(t, h.Timed())

	early := h.Next(Elapsed, start.Add(299*time.Millisecond), d)
	assert.Equal(t, PendingOpen, early.State)

	open := h.Next(Elapsed, start.Add(d.Open), d)
	assert.Equal(t, Open, open.State)
	assert.False(t, open.Timed())
}

func TestHoverLeaveBeforeOpenCancels(t *testing.T) {
	start := time.Unix(1000, 0)
	d := DefaultDelays()

	h := Hover{}.Next(TriggerEnter, start, d).Next(TriggerLeave, start.Add(100*time.Millisecond), d)
	assert.Equal(t, Idle, h.State)
	assert.True(t, h.Deadline.IsZero())
}

func TestHoverMovingIntoPopupKeepsItOpen(t *testing.T) {
	start := time.Unix(1000, 0)
	d := DefaultDelays()

	h := Hover{State: Open}.Next(TriggerLeave, start, d)
	assert.Equal(t, PendingClose, h.State)

	h = h.Next(PopupEnter, start.Add(50*time.Millisecond), d)
	assert.Equal(t, Open, h.State)

	h = h.Next(PopupLeave, start.Add(time.Second), d)
	assert.Equal(t, PendingClose, h.State)
	assert.Equal(t, start.Add(time.Second+d.Close), h.Deadline)

	assert.Equal(t, Idle, h.Next(Elapsed, h.Deadline, d).State)
}

func TestHoverIgnoresUnrelatedEvents(t *testing.T) {
	now := time.Unix(1000, 0)
	d := DefaultDelays()

	assert.Equal(t, Hover{}, Hover{}.Next(TriggerLeave, now, d))
	assert.Equal(t, Hover{}, Hover{}.Next(Elapsed, now, d))
	assert.Equal(t, Hover{State: Open}, Hover{State: Open}.Next(Elapsed, now, d))
	assert.Equal(t, "pending-close", PendingClose.String())
}

func TestHoverLeavingAgainRestartsClose(t *testing.T) {
	start := time.Unix(1000, 0)
	d := DefaultDelays()
	pending := Hover{State: Open}.Next(TriggerLeave, start, d)

	for _, ev := range []Event{TriggerLeave, PopupLeave} {
		later := start.Add(200 * time.Millisecond)
		h := pending.Next(ev, later, d)
		assert.Equal(t, PendingClose, h.State, "event %d", ev)
		assert.Equal(t, later.Add(d.Close), h.Deadline, "event %d", ev)
		assert.Equal(t, PendingClose, h.Next(Elapsed, pending.Deadline, d).State, "event %d", ev)
	}
}
