package link_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxKellermann/loggertools/internal/earth"
	"github.com/MaxKellermann/loggertools/internal/emulator"
	"github.com/MaxKellermann/loggertools/internal/link"
	"github.com/MaxKellermann/loggertools/internal/zander"
)

type fakeIndicator struct {
	mu     sync.Mutex
	states []bool
}

func (f *fakeIndicator) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, on)
	return nil
}

func (f *fakeIndicator) history() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.states...)
}

func newEmulatedDevice(t *testing.T, opts ...link.Option) (*link.Device, *emulator.Emulator) {
	t.Helper()
	emu, err := emulator.New(t.TempDir(), log.Default())
	require.NoError(t, err)

	host, dev := net.Pipe()
	require.NoError(t, host.SetDeadline(time.Now().Add(10*time.Second)))
	go func() {
		_ = emu.Serve(context.Background(), dev)
		_ = dev.Close()
	}()
	t.Cleanup(func() { _ = host.Close() })
	return link.NewDevice(host, opts...), emu
}

func mustWaypoint(t *testing.T, name string, lat, lon earth.Angle) zander.Waypoint {
	t.Helper()
	pos, err := earth.NewPosition(lat, lon)
	require.NoError(t, err)
	return zander.Waypoint{Name: name, Position: pos}
}

func TestDevice_PersonalDataRoundTrip(t *testing.T) {
	d, emu := newEmulatedDevice(t)
	ctx := context.Background()

	want := zander.PersonalData{
		Pilot:        "Max Kellermann",
		Model:        "LS 8",
		Class:        "18m",
		Registration: "D-1234",
		Sign:         "XY",
	}
	require.NoError(t, d.WritePersonalData(ctx, want))

	got, err := d.ReadPersonalData(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.EqualValues(t, 2, emu.Snapshot().Commands)
}

func TestDevice_TaskRoundTrip(t *testing.T) {
	d, _ := newEmulatedDevice(t)
	ctx := context.Background()

	want := zander.Task{
		Date: zander.Date{Day: 10, Month: 6, Year: 8},
		Waypoints: []zander.Waypoint{
			mustWaypoint(t, "BRUCHSAL", earth.FromDMS(49, 7, 12, false), earth.FromDMS(8, 33, 47, false)),
			mustWaypoint(t, "LA ROCHE", earth.FromDMS(50, 11, 0, false), earth.FromDMS(5, 34, 0, false)),
			mustWaypoint(t, "SUED", earth.FromDMS(33, 55, 0, true), earth.FromDMS(18, 25, 0, false)),
		},
	}
	require.NoError(t, d.WriteTask(ctx, want))

	got, err := d.ReadTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDevice_ReadEmptyTask(t *testing.T) {
	d, _ := newEmulatedDevice(t)

	got, err := d.ReadTask(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestDevice_WriteTaskOverCapacitySendsNothing(t *testing.T) {
	d, emu := newEmulatedDevice(t)

	var task zander.Task
	for i := 0; i <= zander.MaxWaypoints; i++ {
		task.Waypoints = append(task.Waypoints, mustWaypoint(t, "WP", earth.Angle(i), 0))
	}
	err := d.WriteTask(context.Background(), task)
	require.ErrorIs(t, err, zander.ErrCapacity)
	assert.Zero(t, emu.Snapshot().Commands)
}

func TestDevice_CancelledBeforeExchange(t *testing.T) {
	d, emu := newEmulatedDevice(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.ReadPersonalData(ctx)
	if !errors.Is(err, link.ErrCancelled) {
		t.Fatalf("err=%v want ErrCancelled", err)
	}
	assert.NotErrorIs(t, err, link.ErrTimeout)
	assert.Zero(t, emu.Snapshot().Commands)
}

func TestDevice_IndicatorFollowsExchange(t *testing.T) {
	ind := &fakeIndicator{}
	d, _ := newEmulatedDevice(t, link.WithIndicator(ind))

	_, err := d.ReadPersonalData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, ind.history())
}

// silentConn accepts every write and never answers.
type silentConn struct{ reads int }

func (c *silentConn) Read(p []byte) (int, error)  { c.reads++; return 0, nil }
func (c *silentConn) Write(p []byte) (int, error) { return len(p), nil }

func TestDevice_NoAnswerTimesOut(t *testing.T) {
	conn := &silentConn{}
	d := link.NewDevice(conn, link.WithMaxEmptyReads(3))

	_, err := d.ReadTask(context.Background())
	require.ErrorIs(t, err, link.ErrTimeout)
	assert.Contains(t, err.Error(), "READ_TASK")
	assert.Equal(t, 3, conn.reads)
}
