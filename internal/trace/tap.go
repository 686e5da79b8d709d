// Package trace records the bytes exchanged with an instrument and plays a
// recording back as a stand-in link.
package trace

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// Tap passes reads and writes through to rw and records every non-empty
// chunk. Recording failures never reach the link; the first one is kept
// for Err.
type Tap struct {
	rw  io.ReadWriter
	w   *Writer
	now func() time.Time

	mu  sync.Mutex
	err error
}

func NewTap(rw io.ReadWriter, w *Writer) *Tap {
	return &Tap{rw: rw, w: w, now: time.Now}
}

func (t *Tap) Read(p []byte) (int, error) {
	n, err := t.rw.Read(p)
	if n > 0 {
		t.record(Recv, p[:n])
	}
	return n, err
}

func (t *Tap) Write(p []byte) (int, error) {
	n, err := t.rw.Write(p)
	if n > 0 {
		t.record(Send, p[:n])
	}
	return n, err
}

// Err returns the first recording error, if any.
func (t *Tap) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Tap) record(dir Direction, data []byte) {
	if err := t.w.Write(t.now(), dir, data); err != nil {
		t.mu.Lock()
		if t.err == nil {
			t.err = err
		}
		t.mu.Unlock()
	}
}

// Playback replays a recording as a link. Writes must match the recorded
// Send bytes in order; reads hand out Recv bytes only once every Send before
// them has been written. When nothing is due a read returns io.EOF, which
// the frame reader treats as an empty attempt. Chunk boundaries and timing
// are not reproduced.
type Playback struct {
	recs []Record
	i    int
	off  int
}

func NewPlayback(recs []Record) *Playback {
	p := &Playback{}
	for _, r := range recs {
		if r.Data != nil {
			p.recs = append(p.recs, r)
		}
	}
	return p
}

func (p *Playback) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		if p.i >= len(p.recs) || p.recs[p.i].Dir != Send {
			return written, fmt.Errorf("trace: unexpected write of %d bytes at record %d", len(b)-written, p.i)
		}
		want := p.recs[p.i].Data[p.off:]
		n := min(len(want), len(b)-written)
		if !bytes.Equal(want[:n], b[written:written+n]) {
			return written, fmt.Errorf("trace: write differs from record %d at offset %d", p.i, p.off)
		}
		written += n
		p.advance(n)
	}
	return written, nil
}

func (p *Playback) Read(b []byte) (int, error) {
	if p.i >= len(p.recs) || p.recs[p.i].Dir != Recv {
		return 0, io.EOF
	}
	n := copy(b, p.recs[p.i].Data[p.off:])
	p.advance(n)
	return n, nil
}

// Done reports whether the whole recording has been consumed.
func (p *Playback) Done() bool {
	return p.i >= len(p.recs)
}

func (p *Playback) advance(n int) {
	p.off += n
	if p.off >= len(p.recs[p.i].Data) {
		p.i++
		p.off = 0
	}
}
