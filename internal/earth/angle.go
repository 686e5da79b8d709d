package earth

import (
	"errors"
	"fmt"

	"github.com/golang/geo/s1"
)

var (
	// ErrRange reports a value outside its legal domain.
	ErrRange = errors.New("value out of range")
	// ErrFormat reports a malformed wire buffer.
	ErrFormat = errors.New("malformed record")
)

// Angle is a signed geodetic angle in whole arcseconds.
type Angle int32

const (
	ArcSecond Angle = 1
	ArcMinute       = 60 * ArcSecond
	Degree          = 60 * ArcMinute

	MaxLatitude  = 90 * Degree
	MaxLongitude = 180 * Degree
)

// AngleSize is the wire size of an encoded angle.
const AngleSize = 4

// DMS splits the angle magnitude into degrees, minutes and seconds.
func (a Angle) DMS() (deg, mins, secs int, negative bool) {
	v := int(a)
	if v < 0 {
		negative = true
		v = -v
	}
	return v / 3600, (v / 60) % 60, v % 60, negative
}

// S1 converts the angle to a golang/geo angle (radians).
func (a Angle) S1() s1.Angle {
	return s1.Angle(float64(a)) * s1.Degree / 3600
}

// Radians returns the angle in radians.
func (a Angle) Radians() float64 {
	return a.S1().Radians()
}

// DecodeAngle parses the 4-byte device representation:
// degrees, minutes, seconds, sign (0 = north/east, 1 = south/west).
func DecodeAngle(b []byte) (Angle, error) {
	if len(b) != AngleSize {
		return 0, fmt.Errorf("%w: angle is %d bytes, want %d", ErrFormat, len(b), AngleSize)
	}
	if b[3] > 1 {
		return 0, fmt.Errorf("%w: angle sign byte 0x%02x", ErrFormat, b[3])
	}
	v := (Angle(b[0])*60+Angle(b[1]))*60 + Angle(b[2])
	if b[3] == 1 {
		v = -v
	}
	return v, nil
}

// EncodeAngle builds the 4-byte device representation of a.
func EncodeAngle(a Angle) ([AngleSize]byte, error) {
	var out [AngleSize]byte
	if a < -MaxLongitude || a > MaxLongitude {
		return out, fmt.Errorf("%w: angle %d arcsec exceeds 180 degrees", ErrRange, a)
	}
	deg, mins, secs, neg := a.DMS()
	out[0] = byte(deg)
	out[1] = byte(mins)
	out[2] = byte(secs)
	if neg {
		out[3] = 1
	}
	return out, nil
}

// AppendAngle appends the encoding of a to dst.
func AppendAngle(dst []byte, a Angle) ([]byte, error) {
	b, err := EncodeAngle(a)
	if err != nil {
		return dst, err
	}
	return append(dst, b[:]...), nil
}
