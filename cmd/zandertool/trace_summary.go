package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/MaxKellermann/loggertools/internal/trace"
	"github.com/MaxKellermann/loggertools/internal/zander"
)

type traceSummary struct {
	Segments      int
	BytesSent     int
	BytesReceived int
	Unknown       int
	MaxDuration   time.Duration
	CommandCounts map[zander.Command]int
}

// summarizeTrace walks the sent byte stream as command byte plus request
// payload, so commands are counted even when a write was split.
func summarizeTrace(records []trace.Record) traceSummary {
	s := traceSummary{CommandCounts: map[zander.Command]int{}}
	if len(records) == 0 {
		return s
	}

	origin := time.Duration(0)
	hasData := false
	segments := 0
	pending := 0

	for _, r := range records {
		if r.Data == nil {
			segments++
			origin = r.At
			pending = 0
			continue
		}
		hasData = true

		at := r.At - origin
		if at < 0 {
			at = 0
		}
		if at > s.MaxDuration {
			s.MaxDuration = at
		}

		if r.Dir == trace.Recv {
			s.BytesReceived += len(r.Data)
			continue
		}
		s.BytesSent += len(r.Data)
		data := r.Data
		for len(data) > 0 {
			if pending > 0 {
				n := min(pending, len(data))
				pending -= n
				data = data[n:]
				continue
			}
			cmd := zander.Command(data[0])
			data = data[1:]
			req, resp := cmd.PayloadSize()
			if req == 0 && resp == 0 {
				s.Unknown++
				continue
			}
			s.CommandCounts[cmd]++
			pending = req
		}
	}
	if segments == 0 && hasData {
		segments = 1
	}
	s.Segments = segments
	return s
}

func printTraceSummary(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := trace.NewReader(f).ReadAll()
	if err != nil {
		return err
	}

	s := summarizeTrace(recs)

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "bytes_sent: %d\n", s.BytesSent)
	fmt.Fprintf(w, "bytes_received: %d\n", s.BytesReceived)
	fmt.Fprintf(w, "unknown_commands: %d\n", s.Unknown)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)

	keys := make([]int, 0, len(s.CommandCounts))
	for k := range s.CommandCounts {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)
	fmt.Fprintf(w, "command_counts:\n")
	for _, k := range keys {
		c := zander.Command(k)
		fmt.Fprintf(w, "  0x%02X %s: %d\n", byte(c), c, s.CommandCounts[c])
	}
	return nil
}
