package emulator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxKellermann/loggertools/internal/earth"
	"github.com/MaxKellermann/loggertools/internal/link"
	"github.com/MaxKellermann/loggertools/internal/zander"
)

func TestVirtual_ServesSerialHost(t *testing.T) {
	linkPath := filepath.Join(t.TempDir(), "fakezander")
	v, err := OpenVirtual(linkPath)
	if err != nil {
		t.Skipf("no pseudo terminals here: %v", err)
	}
	defer v.Close()
	assert.Equal(t, linkPath, v.Path)
	assert.NotEmpty(t, v.SlaveName())

	emu, err := New(t.TempDir(), log.Default())
	require.NoError(t, err)
	go func() { _ = emu.Serve(context.Background(), v) }()

	port, err := link.OpenSerial(v.Path, 9600)
	require.NoError(t, err)
	defer port.Close()

	pos, err := earth.NewPosition(earth.FromDMS(49, 7, 12, false), earth.FromDMS(8, 33, 47, false))
	require.NoError(t, err)
	want := zander.Task{
		Date:      zander.Date{Day: 10, Month: 6, Year: 8},
		Waypoints: []zander.Waypoint{{Name: "BRUCHSAL", Position: pos}},
	}

	// 0x11 and 0x13 are XON/XOFF; they must reach the emulator untouched.
	d := link.NewDevice(port)
	ctx := context.Background()
	require.NoError(t, d.WriteTask(ctx, want))
	got, err := d.ReadTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	pd, err := d.ReadPersonalData(ctx)
	require.NoError(t, err)
	assert.Equal(t, zander.PersonalData{}, pd)
}
