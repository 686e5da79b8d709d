package zander

import (
	"fmt"
	"time"

	"github.com/MaxKellermann/loggertools/internal/earth"
)

// Task frame layout: MaxWaypoints slots of slotSize bytes. Every slot starts
// with the same header (waypoint count, declaration day, month, year), then
// the waypoint name and position. The firmware expects the header repeated
// in each slot, not once per frame.
const (
	MaxWaypoints   = 20
	slotHeaderSize = 4
	slotSize       = slotHeaderSize + NameSize + earth.PositionSize
	TaskSize       = MaxWaypoints * slotSize

	// NameSize is the width of a waypoint name.
	NameSize = 12
)

var waypointNameField = textField{name: "waypoint name", offset: slotHeaderSize, width: NameSize}

// Date is a task declaration date as stored by the device (two-digit year).
// The zero Date means "not set".
type Date struct {
	Day   byte `yaml:"day" json:"day"`
	Month byte `yaml:"month" json:"month"`
	Year  byte `yaml:"year" json:"year"`
}

func DateOf(t time.Time) Date {
	return Date{Day: byte(t.Day()), Month: byte(t.Month()), Year: byte(t.Year() % 100)}
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	if d.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%02d.%02d.%02d", d.Day, d.Month, d.Year)
}

// Waypoint is a named task point.
type Waypoint struct {
	Name     string
	Position earth.Position
}

// NewWaypoint trims name and rejects names longer than NameSize bytes.
func NewWaypoint(name string, pos earth.Position) (Waypoint, error) {
	name, err := waypointNameField.check(name)
	if err != nil {
		return Waypoint{}, err
	}
	return Waypoint{Name: name, Position: pos}, nil
}

func (w Waypoint) String() string {
	return fmt.Sprintf("%-12s %s", w.Name, w.Position)
}

// Task is an ordered list of waypoints; leg i runs from waypoint i-1 to i.
// The date travels in the slot headers, so an empty task has no date.
type Task struct {
	Date      Date
	Waypoints []Waypoint
}

func (t *Task) Len() int { return len(t.Waypoints) }

func (t *Task) Append(wp Waypoint) error {
	if len(t.Waypoints) >= MaxWaypoints {
		return fmt.Errorf("%w: task already has %d waypoints", ErrCapacity, MaxWaypoints)
	}
	t.Waypoints = append(t.Waypoints, wp)
	return nil
}

func (t *Task) Remove(i int) error {
	if i < 0 || i >= len(t.Waypoints) {
		return fmt.Errorf("%w: waypoint index %d of %d", ErrRange, i, len(t.Waypoints))
	}
	t.Waypoints = append(t.Waypoints[:i], t.Waypoints[i+1:]...)
	return nil
}

func (t *Task) Set(i int, wp Waypoint) error {
	if i < 0 || i >= len(t.Waypoints) {
		return fmt.Errorf("%w: waypoint index %d of %d", ErrRange, i, len(t.Waypoints))
	}
	t.Waypoints[i] = wp
	return nil
}

// EncodeTask builds the 480-byte task frame. Unused slots are zero.
func EncodeTask(t Task) ([]byte, error) {
	n := len(t.Waypoints)
	if n > MaxWaypoints {
		return nil, fmt.Errorf("%w: %d waypoints, max %d", ErrCapacity, n, MaxWaypoints)
	}

	rec := make([]byte, TaskSize)
	for i, wp := range t.Waypoints {
		slot := rec[i*slotSize : (i+1)*slotSize]
		slot[0] = byte(n)
		slot[1] = t.Date.Day
		slot[2] = t.Date.Month
		slot[3] = t.Date.Year
		waypointNameField.put(slot, wp.Name)
		pos, err := wp.Position.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("waypoint %d (%s): %w", i, wp.Name, err)
		}
		copy(slot[slotHeaderSize+NameSize:], pos)
	}
	return rec, nil
}

// DecodeTask parses a 480-byte task frame. The count and date are taken from
// the first slot; each slot's own header is skipped.
func DecodeTask(b []byte) (Task, error) {
	if len(b) != TaskSize {
		return Task{}, fmt.Errorf("%w: task is %d bytes, want %d", ErrFormat, len(b), TaskSize)
	}
	n := int(b[0])
	if n > MaxWaypoints {
		return Task{}, fmt.Errorf("%w: task claims %d waypoints, max %d", ErrFormat, n, MaxWaypoints)
	}

	var t Task
	if n > 0 {
		t.Date = Date{Day: b[1], Month: b[2], Year: b[3]}
	}
	for i := 0; i < n; i++ {
		slot := b[i*slotSize : (i+1)*slotSize]
		pos, err := earth.DecodePosition(slot[slotHeaderSize+NameSize:])
		if err != nil {
			return Task{}, fmt.Errorf("waypoint %d: %w", i, err)
		}
		t.Waypoints = append(t.Waypoints, Waypoint{Name: waypointNameField.get(slot), Position: pos})
	}
	return t, nil
}

// LegDistancesKm returns the great-circle length of every leg.
func LegDistancesKm(t Task) []float64 {
	if len(t.Waypoints) < 2 {
		return nil
	}
	legs := make([]float64, 0, len(t.Waypoints)-1)
	for i := 1; i < len(t.Waypoints); i++ {
		legs = append(legs, earth.GreatCircleKm(t.Waypoints[i-1].Position, t.Waypoints[i].Position))
	}
	return legs
}

func TotalKm(t Task) float64 {
	var sum float64
	for _, d := range LegDistancesKm(t) {
		sum += d
	}
	return sum
}
