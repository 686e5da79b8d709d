package zander

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/MaxKellermann/loggertools/internal/earth"
)

func mustWaypoint(t testing.TB, name string, lat, lon earth.Angle) Waypoint {
	t.Helper()
	pos, err := earth.NewPosition(lat, lon)
	if err != nil {
		t.Fatalf("NewPosition() error: %v", err)
	}
	wp, err := NewWaypoint(name, pos)
	if err != nil {
		t.Fatalf("NewWaypoint() error: %v", err)
	}
	return wp
}

func sampleTask(t testing.TB, n int) Task {
	t.Helper()
	var task Task
	for i := 0; i < n; i++ {
		wp := mustWaypoint(t, fmt.Sprintf("TP%02d", i), earth.FromDMS(50, i, 7, false), earth.FromDMS(8, 59-i, i, i%2 == 1))
		if err := task.Append(wp); err != nil {
			t.Fatalf("Append(%d) error: %v", i, err)
		}
	}
	return task
}

// The count header is repeated in front of every waypoint entry. This is
// what the GP940 firmware accepts; do not "fix" it into a single header.
func TestGolden_Task_RepeatedHeader(t *testing.T) {
	task := Task{
		Date: Date{Day: 10, Month: 6, Year: 8},
		Waypoints: []Waypoint{
			mustWaypoint(t, "BRUCHSAL", earth.FromDMS(49, 7, 30, false), earth.FromDMS(8, 33, 58, false)),
			mustWaypoint(t, "LA ROCHE", earth.FromDMS(46, 40, 5, false), earth.FromDMS(1, 22, 0, true)),
		},
	}
	rec, err := EncodeTask(task)
	require.NoError(t, err)
	require.Len(t, rec, TaskSize)

	want := []byte{
		0x02, 10, 6, 8, // header: count, date
		'B', 'R', 'U', 'C', 'H', 'S', 'A', 'L', ' ', ' ', ' ', ' ',
		49, 7, 30, 0, // latitude
		8, 33, 58, 0, // longitude
		0x02, 10, 6, 8, // header again
		'L', 'A', ' ', 'R', 'O', 'C', 'H', 'E', ' ', ' ', ' ', ' ',
		46, 40, 5, 0,
		1, 22, 0, 1,
	}
	for i := range want {
		if rec[i] != want[i] {
			t.Fatalf("byte[%d] mismatch: got 0x%02X want 0x%02X (rec=% X)", i, rec[i], want[i], rec[:len(want)])
		}
	}
	for i := len(want); i < TaskSize; i++ {
		if rec[i] != 0 {
			t.Fatalf("byte[%d] of unused slot is 0x%02X, want 0", i, rec[i])
		}
	}

	got, err := DecodeTask(rec)
	require.NoError(t, err)
	assert.Equal(t, task, got)
}

func TestEncodeTask_Empty(t *testing.T) {
	rec, err := EncodeTask(Task{})
	require.NoError(t, err)
	assert.Equal(t, make([]byte, TaskSize), rec)

	got, err := DecodeTask(rec)
	require.NoError(t, err)
	assert.Equal(t, Task{}, got)
}

func TestTask_RoundTripBoundaries(t *testing.T) {
	for _, n := range []int{0, 1, MaxWaypoints} {
		t.Run(fmt.Sprintf("%d waypoints", n), func(t *testing.T) {
			task := sampleTask(t, n)
			rec, err := EncodeTask(task)
			require.NoError(t, err)
			got, err := DecodeTask(rec)
			require.NoError(t, err)
			assert.Equal(t, task, got)
		})
	}
}

func TestEncodeTask_Capacity(t *testing.T) {
	task := sampleTask(t, MaxWaypoints)
	task.Waypoints = append(task.Waypoints, task.Waypoints[0])

	rec, err := EncodeTask(task)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Nil(t, rec)
}

func TestDecodeTask_Errors(t *testing.T) {
	_, err := DecodeTask(make([]byte, TaskSize-1))
	assert.ErrorIs(t, err, ErrFormat)

	rec := make([]byte, TaskSize)
	rec[0] = MaxWaypoints + 1
	_, err = DecodeTask(rec)
	assert.ErrorIs(t, err, ErrFormat)

	rec, err = EncodeTask(sampleTask(t, 2))
	require.NoError(t, err)
	rec[slotSize+slotHeaderSize+NameSize+3] = 9 // bad sign byte in waypoint 1
	_, err = DecodeTask(rec)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDecodeTask_IgnoresLaterSlotHeaders(t *testing.T) {
	rec, err := EncodeTask(sampleTask(t, 3))
	require.NoError(t, err)
	rec[slotSize] = 0xEE
	rec[2*slotSize+1] = 0xEE

	got, err := DecodeTask(rec)
	require.NoError(t, err)
	assert.Len(t, got.Waypoints, 3)
}

func TestTask_Edit(t *testing.T) {
	task := sampleTask(t, 3)
	extra := mustWaypoint(t, "EXTRA", 0, 0)

	require.NoError(t, task.Set(1, extra))
	assert.Equal(t, "EXTRA", task.Waypoints[1].Name)

	require.NoError(t, task.Remove(0))
	assert.Equal(t, 2, task.Len())
	assert.Equal(t, "EXTRA", task.Waypoints[0].Name)

	assert.ErrorIs(t, task.Remove(5), ErrRange)
	assert.ErrorIs(t, task.Set(-1, extra), ErrRange)

	full := sampleTask(t, MaxWaypoints)
	assert.ErrorIs(t, full.Append(extra), ErrCapacity)
}

func TestNewWaypoint_Name(t *testing.T) {
	wp, err := NewWaypoint("  HAHNWEIDE  ", earth.Position{})
	require.NoError(t, err)
	assert.Equal(t, "HAHNWEIDE", wp.Name)

	_, err = NewWaypoint("THIRTEEN CHRS", earth.Position{})
	assert.ErrorIs(t, err, ErrRange)
}

func TestLegDistancesKm(t *testing.T) {
	task := Task{Waypoints: []Waypoint{
		mustWaypoint(t, "A", 0, 0),
		mustWaypoint(t, "B", 0, 90*earth.Degree),
		mustWaypoint(t, "C", 90*earth.Degree, 90*earth.Degree),
	}}
	legs := LegDistancesKm(task)
	require.Len(t, legs, 2)
	quarter := earth.EarthRadiusKm * math.Pi / 2
	assert.InDelta(t, quarter, legs[0], 1e-6)
	assert.InDelta(t, quarter, legs[1], 1e-6)
	assert.InDelta(t, 2*quarter, TotalKm(task), 1e-6)

	assert.Nil(t, LegDistancesKm(Task{Waypoints: task.Waypoints[:1]}))
	assert.Zero(t, TotalKm(Task{}))
}

func TestDate(t *testing.T) {
	d := DateOf(time.Date(2008, time.June, 10, 18, 33, 11, 0, time.UTC))
	assert.Equal(t, Date{Day: 10, Month: 6, Year: 8}, d)
	assert.Equal(t, "10.06.08", d.String())
	assert.Equal(t, "-", Date{}.String())
}

func TestTask_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, MaxWaypoints).Draw(t, "n")
		var task Task
		if n > 0 {
			task.Date = Date{
				Day:   byte(rapid.IntRange(0, 31).Draw(t, "day")),
				Month: byte(rapid.IntRange(0, 12).Draw(t, "month")),
				Year:  byte(rapid.IntRange(0, 99).Draw(t, "year")),
			}
		}
		for i := 0; i < n; i++ {
			lat := earth.Angle(rapid.Int32Range(int32(-earth.MaxLatitude), int32(earth.MaxLatitude)).Draw(t, "lat"))
			lon := earth.Angle(rapid.Int32Range(int32(-earth.MaxLongitude), int32(earth.MaxLongitude)).Draw(t, "lon"))
			pos, err := earth.NewPosition(lat, lon)
			require.NoError(t, err)
			wp, err := NewWaypoint(drawText(t, "name", NameSize), pos)
			require.NoError(t, err)
			require.NoError(t, task.Append(wp))
		}

		rec, err := EncodeTask(task)
		require.NoError(t, err)
		got, err := DecodeTask(rec)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})
}

func TestCommand(t *testing.T) {
	req, resp := CmdReadTask.PayloadSize()
	assert.Equal(t, 0, req)
	assert.Equal(t, TaskSize, resp)

	req, resp = CmdWritePersonalData.PayloadSize()
	assert.Equal(t, PersonalDataSize, req)
	assert.Equal(t, 0, resp)

	assert.Equal(t, "READ_PERSONAL_DATA", CmdReadPersonalData.String())
	assert.Equal(t, "CMD_0x0F", Command(0x0f).String())
}
