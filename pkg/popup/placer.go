// Package popup positions the hover preview of a job card and drives its open/close timing.
package popup

const (
	DefaultPadding = 16
	DefaultGap     = 12
)

// Rect is a bounding box in viewport coordinates.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Side string

const (
	SideRight Side = "right"
	SideLeft  Side = "left"
)

type Geometry struct {
	Top             float64 `json:"top"`
	Left            float64 `json:"left"`
	TransformOrigin string  `json:"transformOrigin"`
	Side            Side    `json:"side"`
}

type Placer struct {
	Padding float64
	Gap     float64
}

func NewPlacer() Placer {
	return Placer{Padding: DefaultPadding, Gap: DefaultGap}
}

func clamp(value, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Place puts the popup beside the trigger, right side first, and keeps it inside the viewport
// minus padding. It must run on every open since the trigger moves between hovers.
func (p Placer) Place(trigger Rect, vp Viewport, size Size) Geometry {
	spaceRight := vp.Width - trigger.Right() - p.Padding
	spaceLeft := trigger.Left - p.Padding
	minLeft, maxLeft := p.Padding, vp.Width-size.Width-p.Padding

	var left float64
	side := SideRight
	switch {
	case spaceRight >= size.Width+p.Gap:
		left = trigger.Right() + p.Gap
	case spaceLeft >= size.Width+p.Gap:
		left = trigger.Left - size.Width - p.Gap
		side = SideLeft
	case spaceRight >= spaceLeft:
		left = trigger.Right() + p.Gap
	default:
		left = trigger.Left - size.Width - p.Gap
		side = SideLeft
	}

	// a trigger hanging over a viewport edge can still push the flush position past the padding
	left = clamp(left, minLeft, maxLeft)
	top := clamp(trigger.Top, p.Padding, vp.Height-size.Height-p.Padding)

	origin := "top left"
	if side == SideLeft {
		origin = "top right"
	}
	return Geometry{Top: top, Left: left, TransformOrigin: origin, Side: side}
}
