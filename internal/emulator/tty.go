//go:build !windows

package emulator

import (
	"fmt"
	"io"
	"os"

	"github.com/creack/pty"
	"github.com/pkg/term"
)

// OpenTTY opens a real serial device in blocking raw mode for Serve.
func OpenTTY(path string, baud int) (io.ReadWriteCloser, error) {
	t, err := term.Open(path, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if baud != 0 {
		if err := t.SetSpeed(baud); err != nil {
			_ = t.Close()
			return nil, fmt.Errorf("set speed %d on %s: %w", baud, path, err)
		}
	}
	return t, nil
}

// Virtual is a pseudo terminal pair. The host opens Path as if it were a
// serial port; the emulator serves the master side.
type Virtual struct {
	Path      string
	slaveName string
	master    *os.File
	keeper    *term.Term
}

// OpenVirtual creates a pseudo terminal and links symlinkPath to its slave
// side. The slave is reopened in raw mode and kept open, so command bytes
// like 0x11 and 0x13 are not taken as flow control and the master does not
// see EIO while no host is connected.
func OpenVirtual(symlinkPath string) (*Virtual, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}
	name := slave.Name()
	keeper, err := term.Open(name, term.RawMode)
	_ = slave.Close()
	if err != nil {
		_ = master.Close()
		return nil, fmt.Errorf("raw mode on %s: %w", name, err)
	}

	v := &Virtual{Path: symlinkPath, slaveName: name, master: master, keeper: keeper}
	if symlinkPath == "" {
		v.Path = name
		return v, nil
	}

	_ = os.Remove(symlinkPath)
	if err := os.Symlink(name, symlinkPath); err != nil {
		_ = v.Close()
		return nil, fmt.Errorf("symlink %s: %w", symlinkPath, err)
	}
	return v, nil
}

func (v *Virtual) Read(p []byte) (int, error)  { return v.master.Read(p) }
func (v *Virtual) Write(p []byte) (int, error) { return v.master.Write(p) }

// SlaveName is the /dev/pts path behind Path.
func (v *Virtual) SlaveName() string { return v.slaveName }

func (v *Virtual) Close() error {
	err := v.master.Close()
	_ = v.keeper.Close()
	if v.Path != "" && v.Path != v.slaveName {
		_ = os.Remove(v.Path)
	}
	return err
}
