package wz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaxKellermann/loggertools/internal/earth"
	"github.com/MaxKellermann/loggertools/internal/zander"
)

const sample = `# club turnpoints
BRUCHSAL     490712N 0083347E

LA ROCHE     501100N 0053400E
KAPSTADT     335500S 0182500E
LIMA         120300S 0770300W
`

func TestLoad(t *testing.T) {
	wps, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, wps, 4)

	assert.Equal(t, "BRUCHSAL", wps[0].Name)
	assert.Equal(t, earth.FromDMS(49, 7, 12, false), wps[0].Position.Latitude())
	assert.Equal(t, earth.FromDMS(8, 33, 47, false), wps[0].Position.Longitude())

	assert.Equal(t, "LA ROCHE", wps[1].Name)
	assert.Equal(t, "33.55.00 S 018.25.00 E", wps[2].Position.String())
	assert.Equal(t, "12.03.00 S 077.03.00 W", wps[3].Position.String())
}

func TestLoad_CRLF(t *testing.T) {
	wps, err := Load(strings.NewReader("BRUCHSAL     490712N 0083347E\r\n"))
	require.NoError(t, err)
	require.Len(t, wps, 1)
	assert.Equal(t, "BRUCHSAL", wps[0].Name)
}

func TestLoad_Empty(t *testing.T) {
	wps, err := Load(strings.NewReader("# nothing\n\n"))
	require.NoError(t, err)
	assert.Empty(t, wps)
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		line string
		want error
	}{
		{"short line", "BRUCHSAL     490712N", earth.ErrFormat},
		{"letters in degrees", "BRUCHSAL     4X0712N 0083347E", earth.ErrFormat},
		{"minutes above 59", "BRUCHSAL     496012N 0083347E", earth.ErrFormat},
		{"bad hemisphere", "BRUCHSAL     490712X 0083347E", earth.ErrFormat},
		{"latitude beyond pole", "POLE         910000N 0000000E", earth.ErrRange},
		{"longitude beyond 180", "EDGE         000000N 1810000E", earth.ErrRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader("# header\n" + tc.line + "\n"))
			require.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestLookup(t *testing.T) {
	db, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	got, err := Lookup(db, []string{"la roche", "BRUCHSAL", "La Roche"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "LA ROCHE", got[0].Name)
	assert.Equal(t, "BRUCHSAL", got[1].Name)
	assert.Equal(t, got[0], got[2])

	_, err = Lookup(db, []string{"NOWHERE"})
	assert.Error(t, err)
}

func TestLoad_FeedsTask(t *testing.T) {
	db, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	task := zander.Task{Waypoints: db}
	frame, err := zander.EncodeTask(task)
	require.NoError(t, err)
	back, err := zander.DecodeTask(frame)
	require.NoError(t, err)
	assert.Equal(t, db, back.Waypoints)
}
