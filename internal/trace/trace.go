package trace

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
)

// Trace format: line-oriented text.
//
// - Blank lines ignored.
// - Lines starting with '#' ignored.
// - Line "START" resets the origin (next record time is relative to 0 again).
// - Data lines are: <t_ns>,<dir>,<hex>
//   where t_ns is nanoseconds since START, dir is '>' for bytes sent to the
//   instrument and '<' for bytes received, and hex is the raw bytes of one
//   Read or Write call.

type Direction byte

const (
	Send Direction = '>'
	Recv Direction = '<'
)

func (d Direction) String() string {
	switch d {
	case Send:
		return "send"
	case Recv:
		return "recv"
	default:
		return fmt.Sprintf("dir(%q)", byte(d))
	}
}

// Record is one traced chunk. A START marker has a nil Data.
type Record struct {
	At   time.Duration
	Dir  Direction
	Data []byte
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	recs := make([]Record, 0, 64)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			recs = append(recs, Record{})
			continue
		}

		fields := strings.SplitN(line, ",", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("trace line %d: want <t_ns>,<dir>,<hex>: %q", lineNo, line)
		}
		tsStr := strings.TrimSpace(fields[0])
		dirStr := strings.TrimSpace(fields[1])
		hexStr := strings.ReplaceAll(strings.TrimSpace(fields[2]), " ", "")

		tsNs, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: timestamp %q: %w", lineNo, tsStr, err)
		}
		if tsNs < 0 {
			return nil, fmt.Errorf("trace line %d: negative timestamp %d", lineNo, tsNs)
		}
		if len(dirStr) != 1 || (Direction(dirStr[0]) != Send && Direction(dirStr[0]) != Recv) {
			return nil, fmt.Errorf("trace line %d: direction %q", lineNo, dirStr)
		}
		b, err := hex.DecodeString(hexStr)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", lineNo, err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("trace line %d: empty payload", lineNo)
		}

		recs = append(recs, Record{At: time.Duration(tsNs), Dir: Direction(dirStr[0]), Data: b})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// ExpandPath formats strftime conversions in pattern with t, so a configured
// path like "zander-%Y%m%d-%H%M%S.trace" yields one file per session.
func ExpandPath(pattern string, t time.Time) (string, error) {
	p, err := strftime.Format(pattern, t)
	if err != nil {
		return "", fmt.Errorf("trace path %q: %w", pattern, err)
	}
	return p, nil
}

type Writer struct {
	mu     sync.Mutex
	c      io.Closer
	w      *bufio.Writer
	start  time.Time
	closed bool
}

// CreateWriter creates the file at path (strftime conversions expanded) and
// writes the START marker.
func CreateWriter(path string) (*Writer, error) {
	now := time.Now()
	path, err := ExpandPath(path, now)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, now)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.c = f
	return w, nil
}

// NewWriter writes a START marker to w and measures record times from start.
func NewWriter(w io.Writer, start time.Time) (*Writer, error) {
	bw := bufio.NewWriterSize(w, 16*1024)
	stamp, err := strftime.Format("%Y-%m-%d %H:%M:%S", start)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(bw, "# opened %s\nSTART\n", stamp); err != nil {
		return nil, err
	}
	return &Writer{w: bw, start: start}, nil
}

func (ww *Writer) Write(now time.Time, dir Direction, data []byte) error {
	ww.mu.Lock()
	defer ww.mu.Unlock()

	if ww.closed {
		return errors.New("trace writer is closed")
	}
	if len(data) == 0 {
		return nil
	}
	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(ww.w, "%d,%c,%s\n", d.Nanoseconds(), byte(dir), hex.EncodeToString(data))
	return err
}

func (ww *Writer) Flush() error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return nil
	}
	ww.closed = true
	err := ww.w.Flush()
	if ww.c != nil {
		if cerr := ww.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
