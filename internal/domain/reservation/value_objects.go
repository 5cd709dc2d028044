package reservation

import (
	"fmt"
	"time"
)

// TimeSlot is a half-open interval [start, end).
type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if !end.After(start) {
		return TimeSlot{}, ErrInvalidInterval
	}

	return TimeSlot{
		start: start,
		end:   end,
	}, nil
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.end
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.end.Sub(ts.start)
}

// Overlaps is the availability test. Touching endpoints do not overlap.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return other.end.After(ts.start) && other.start.Before(ts.end)
}

// Window is a query range. Unlike TimeSlot it is not validated; an inverted
// window simply matches nothing.
type Window struct {
	start time.Time
	end   time.Time
}

func NewWindow(start, end time.Time) Window {
	return Window{start: start, end: end}
}

func (w Window) Start() time.Time { return w.start }
func (w Window) End() time.Time   { return w.end }

// Contains reports whether slot lies fully inside the window.
func (w Window) Contains(slot TimeSlot) bool {
	return !slot.start.Before(w.start) && !slot.end.After(w.end)
}

// Location is a cell on the 20x20 service grid. Bounds are checked by the
// request layer.
type Location struct {
	x int
	y int
}

const (
	GridMin = 1
	GridMax = 20
)

func NewLocation(x, y int) Location {
	return Location{x: x, y: y}
}

func (l Location) X() int { return l.x }
func (l Location) Y() int { return l.y }

func (l Location) InGrid() bool {
	return l.x >= GridMin && l.x <= GridMax && l.y >= GridMin && l.y <= GridMax
}

func (l Location) String() string {
	return fmt.Sprintf("(%d, %d)", l.x, l.y)
}
