package earth

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/tzneal/coordconv"
)

// EarthRadiusKm is the sphere radius used for task distances.
const EarthRadiusKm = 6372.795

// PositionSize is the wire size of an encoded Position.
const PositionSize = 2 * AngleSize

// FromDMS assembles an angle from its components.
func FromDMS(deg, mins, secs int, negative bool) Angle {
	a := Angle((deg*60+mins)*60 + secs)
	if negative {
		a = -a
	}
	return a
}

// Position is a point on the earth surface. The zero value is 0°N 0°E.
type Position struct {
	lat Angle
	lon Angle
}

func NewPosition(lat, lon Angle) (Position, error) {
	if lat < -MaxLatitude || lat > MaxLatitude {
		return Position{}, fmt.Errorf("%w: latitude %d arcsec", ErrRange, lat)
	}
	if lon < -MaxLongitude || lon > MaxLongitude {
		return Position{}, fmt.Errorf("%w: longitude %d arcsec", ErrRange, lon)
	}
	return Position{lat: lat, lon: lon}, nil
}

func (p Position) Latitude() Angle  { return p.lat }
func (p Position) Longitude() Angle { return p.lon }

// String formats the position as "DD.MM.SS N DDD.MM.SS E".
func (p Position) String() string {
	latD, latM, latS, south := p.lat.DMS()
	lonD, lonM, lonS, west := p.lon.DMS()
	ns, ew := 'N', 'E'
	if south {
		ns = 'S'
	}
	if west {
		ew = 'W'
	}
	return fmt.Sprintf("%02d.%02d.%02d %c %03d.%02d.%02d %c", latD, latM, latS, ns, lonD, lonM, lonS, ew)
}

// MarshalBinary encodes latitude then longitude.
func (p Position) MarshalBinary() ([]byte, error) {
	return p.AppendBinary(make([]byte, 0, PositionSize))
}

func (p Position) AppendBinary(dst []byte) ([]byte, error) {
	dst, err := AppendAngle(dst, p.lat)
	if err != nil {
		return dst, err
	}
	return AppendAngle(dst, p.lon)
}

// DecodePosition parses the 8-byte encoding written by MarshalBinary.
func DecodePosition(b []byte) (Position, error) {
	if len(b) != PositionSize {
		return Position{}, fmt.Errorf("%w: position is %d bytes, want %d", ErrFormat, len(b), PositionSize)
	}
	lat, err := DecodeAngle(b[:AngleSize])
	if err != nil {
		return Position{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := DecodeAngle(b[AngleSize:])
	if err != nil {
		return Position{}, fmt.Errorf("longitude: %w", err)
	}
	return NewPosition(lat, lon)
}

// LatLng converts p for use with github.com/golang/geo.
func (p Position) LatLng() s2.LatLng {
	return s2.LatLng{Lat: p.lat.S1(), Lng: p.lon.S1()}
}

// UTM projects p onto its UTM zone.
func (p Position) UTM() (coordconv.UTMCoord, error) {
	return coordconv.DefaultUTMConverter.ConvertFromGeodetic(p.LatLng(), 0)
}

// GreatCircleKm returns the surface distance between a and b.
func GreatCircleKm(a, b Position) float64 {
	lat1, lon1 := a.lat.Radians(), a.lon.Radians()
	lat2, lon2 := b.lat.Radians(), b.lon.Radians()
	dLon := lon2 - lon1

	y := math.Hypot(math.Cos(lat2)*math.Sin(dLon),
		math.Cos(lat1)*math.Sin(lat2)-math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon))
	x := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(y, x) * EarthRadiusKm
}
