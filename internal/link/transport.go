// Package link moves fixed-size frames between the host and a Zander
// instrument over a byte stream that may return short or empty reads.
package link

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MaxKellermann/loggertools/internal/zander"
)

var (
	// ErrTimeout means the device stopped sending before the frame was
	// complete. The whole request may be retried.
	ErrTimeout = errors.New("link: device not responding")
	// ErrCancelled means the caller gave up; it is not a device failure.
	ErrCancelled = errors.New("link: cancelled")
)

// DefaultMaxEmptyReads is the number of consecutive reads returning no data
// after which ReadFrame gives up.
const DefaultMaxEmptyReads = 5

// Transport carries the retry budget for frame reads. The zero value uses
// DefaultMaxEmptyReads.
type Transport struct {
	MaxEmptyReads int
}

// ReadFrame reads exactly n bytes from r using the default retry budget.
func ReadFrame(ctx context.Context, r io.Reader, n int) ([]byte, error) {
	return Transport{}.ReadFrame(ctx, r, n)
}

// ReadFrame reads exactly n bytes from r. ctx is checked before every read;
// a read in progress is not interrupted. A read that returns no data (io.EOF
// from a tty with VMIN=0 included) counts as an empty attempt, and any data
// resets the count.
func (t Transport) ReadFrame(ctx context.Context, r io.Reader, n int) ([]byte, error) {
	limit := t.MaxEmptyReads
	if limit <= 0 {
		limit = DefaultMaxEmptyReads
	}

	buf := make([]byte, n)
	pos := 0
	empty := 0
	for pos < n {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w after %d of %d bytes: %w", ErrCancelled, pos, n, err)
		}

		got, err := r.Read(buf[pos:])
		pos += got
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("link: read after %d of %d bytes: %w", pos, n, err)
		}
		if got > 0 {
			empty = 0
			continue
		}
		empty++
		if empty >= limit {
			return nil, fmt.Errorf("%w: %d empty reads, got %d of %d bytes", ErrTimeout, empty, pos, n)
		}
	}
	return buf, nil
}

// WriteCommand sends the command byte followed by payload in one write. It
// does not wait for an answer.
func WriteCommand(w io.Writer, cmd zander.Command, payload []byte) error {
	buf := make([]byte, 0, 1+len(payload))
	buf = append(buf, byte(cmd))
	buf = append(buf, payload...)

	n, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("link: write %s: %w", cmd, err)
	}
	if n < len(buf) {
		return fmt.Errorf("link: write %s: %w (%d of %d bytes)", cmd, io.ErrShortWrite, n, len(buf))
	}
	return nil
}
