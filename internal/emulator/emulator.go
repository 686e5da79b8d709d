// Package emulator answers the GP940 command protocol from files in a data
// directory, so the host side can be exercised without an instrument.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/MaxKellermann/loggertools/internal/link"
	"github.com/MaxKellermann/loggertools/internal/zander"
)

// File names inside the data directory.
const (
	PersonalDataFile = "personal_data"
	TaskFile         = "task"
)

type Emulator struct {
	dir       string
	logger    *log.Logger
	transport link.Transport

	commands atomic.Uint64
}

type Snapshot struct {
	DataDir  string `json:"data_dir"`
	Commands uint64 `json:"commands"`
}

func New(dataDir string, logger *log.Logger) (*Emulator, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("emulator data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("emulator data dir: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Emulator{dir: dataDir, logger: logger}, nil
}

func (e *Emulator) Snapshot() Snapshot {
	return Snapshot{DataDir: e.dir, Commands: e.commands.Load()}
}

// Serve handles commands from rw until the peer goes away or ctx is done.
// ctx is only checked between commands; close rw to interrupt a blocked read.
func (e *Emulator) Serve(ctx context.Context, rw io.ReadWriter) error {
	cmd := make([]byte, 1)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := rw.Read(cmd)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("emulator read: %w", err)
		}
		if n == 0 {
			continue
		}

		c := zander.Command(cmd[0])
		e.commands.Add(1)
		e.logger.Info("received", "cmd", c)
		if err := e.handle(ctx, rw, c); err != nil {
			if errors.Is(err, link.ErrCancelled) {
				return nil
			}
			e.logger.Error("command failed", "cmd", c, "err", err)
		}
	}
}

func (e *Emulator) handle(ctx context.Context, rw io.ReadWriter, c zander.Command) error {
	switch c {
	case zander.CmdWritePersonalData:
		frame, err := e.transport.ReadFrame(ctx, rw, zander.PersonalDataSize)
		if err != nil {
			return err
		}
		if pd, err := zander.DecodePersonalData(frame); err == nil {
			e.logger.Info("personal data stored", "pilot", pd.Pilot, "registration", pd.Registration)
		}
		return e.store(PersonalDataFile, frame)

	case zander.CmdReadPersonalData:
		frame, err := e.load(PersonalDataFile, zander.PersonalDataSize)
		if errors.Is(err, fs.ErrNotExist) {
			frame = zander.EncodePersonalData(zander.PersonalData{})
		} else if err != nil {
			return err
		}
		return e.reply(rw, frame)

	case zander.CmdWriteTask:
		frame, err := e.transport.ReadFrame(ctx, rw, zander.TaskSize)
		if err != nil {
			return err
		}
		if t, err := zander.DecodeTask(frame); err != nil {
			e.logger.Warn("stored task does not decode", "err", err)
		} else {
			e.logger.Info("task stored", "waypoints", t.Len(), "date", t.Date)
		}
		return e.store(TaskFile, frame)

	case zander.CmdReadTask:
		frame, err := e.load(TaskFile, zander.TaskSize)
		if errors.Is(err, fs.ErrNotExist) {
			frame = make([]byte, zander.TaskSize)
		} else if err != nil {
			return err
		}
		return e.reply(rw, frame)

	default:
		return fmt.Errorf("unknown command 0x%02x", byte(c))
	}
}

func (e *Emulator) reply(w io.Writer, frame []byte) error {
	n, err := w.Write(frame)
	if err != nil {
		return err
	}
	if n < len(frame) {
		return io.ErrShortWrite
	}
	return nil
}

func (e *Emulator) store(name string, frame []byte) error {
	return os.WriteFile(filepath.Join(e.dir, name), frame, 0o644)
}

// load returns the named record, zero padded or cut to size.
func (e *Emulator) load(name string, size int) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(e.dir, name))
	if err != nil {
		return nil, err
	}
	frame := make([]byte, size)
	copy(frame, b)
	return frame, nil
}
