package zander

import (
	"fmt"
	"strings"
)

// textField is a fixed-width, space-padded string slot in a record.
type textField struct {
	name   string
	offset int
	width  int
}

// check trims s and rejects values wider than the field.
func (f textField) check(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) > f.width {
		return "", fmt.Errorf("%w: %s is %d bytes, max %d", ErrRange, f.name, len(s), f.width)
	}
	return s, nil
}

// put truncates s to the field width and right-pads it with spaces.
func (f textField) put(rec []byte, s string) {
	dst := rec[f.offset : f.offset+f.width]
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = ' '
	}
}

// get returns the field contents without trailing spaces and NULs.
func (f textField) get(rec []byte) string {
	return strings.TrimRight(string(rec[f.offset:f.offset+f.width]), " \x00")
}
