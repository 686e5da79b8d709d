// Package wz reads fixed-column .wz waypoint databases.
//
// Each line holds a name in columns 0-11, the latitude as DDMMSSH in
// columns 13-19 and the longitude as DDDMMSSH in columns 21-28. Blank lines
// and lines starting with '#' are skipped.
package wz

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MaxKellermann/loggertools/internal/earth"
	"github.com/MaxKellermann/loggertools/internal/zander"
)

const (
	nameEnd  = 12
	latStart = 13
	latEnd   = 20
	lonStart = 21
	lonEnd   = 29
)

func Load(r io.Reader) ([]zander.Waypoint, error) {
	s := bufio.NewScanner(r)
	var wps []zander.Waypoint
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimRight(s.Text(), " \t\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		wp, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("wz line %d: %w", lineNo, err)
		}
		wps = append(wps, wp)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return wps, nil
}

func parseLine(line string) (zander.Waypoint, error) {
	if len(line) < lonEnd {
		return zander.Waypoint{}, fmt.Errorf("%w: line is %d columns, want %d", earth.ErrFormat, len(line), lonEnd)
	}
	lat, err := parseAngle(line[latStart:latEnd], 2, 'N', 'S')
	if err != nil {
		return zander.Waypoint{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseAngle(line[lonStart:lonEnd], 3, 'E', 'W')
	if err != nil {
		return zander.Waypoint{}, fmt.Errorf("longitude: %w", err)
	}
	pos, err := earth.NewPosition(lat, lon)
	if err != nil {
		return zander.Waypoint{}, err
	}
	return zander.NewWaypoint(line[:nameEnd], pos)
}

// parseAngle decodes D..DMMSSH where the degree part has degDigits digits.
func parseAngle(field string, degDigits int, pos, neg byte) (earth.Angle, error) {
	deg, err := digits(field[:degDigits])
	if err != nil {
		return 0, err
	}
	mins, err := digits(field[degDigits : degDigits+2])
	if err != nil {
		return 0, err
	}
	secs, err := digits(field[degDigits+2 : degDigits+4])
	if err != nil {
		return 0, err
	}
	if mins > 59 || secs > 59 {
		return 0, fmt.Errorf("%w: %q has minutes or seconds above 59", earth.ErrFormat, field)
	}

	var negative bool
	switch h := field[degDigits+4]; h {
	case pos:
	case neg:
		negative = true
	default:
		return 0, fmt.Errorf("%w: hemisphere %q, want %c or %c", earth.ErrFormat, h, pos, neg)
	}
	return earth.FromDMS(deg, mins, secs, negative), nil
}

func digits(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q is not a number", earth.ErrFormat, s)
		}
	}
	return strconv.Atoi(s)
}

// Lookup returns the waypoints named in names, in that order. Names match
// case-insensitively; the first database entry with a name wins.
func Lookup(db []zander.Waypoint, names []string) ([]zander.Waypoint, error) {
	index := make(map[string]zander.Waypoint, len(db))
	for _, wp := range db {
		key := strings.ToUpper(wp.Name)
		if _, ok := index[key]; !ok {
			index[key] = wp
		}
	}

	out := make([]zander.Waypoint, 0, len(names))
	for _, name := range names {
		wp, ok := index[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("waypoint %q not in database", name)
		}
		out = append(out, wp)
	}
	return out, nil
}
