package emulator

import (
	"fmt"
	"io"
)

func OpenTTY(path string, baud int) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("emulator tty not supported on this platform")
}

type Virtual struct {
	Path string
}

func OpenVirtual(symlinkPath string) (*Virtual, error) {
	return nil, fmt.Errorf("emulator pty not supported on this platform")
}

func (v *Virtual) Read(p []byte) (int, error)  { return 0, fmt.Errorf("unsupported") }
func (v *Virtual) Write(p []byte) (int, error) { return 0, fmt.Errorf("unsupported") }
func (v *Virtual) SlaveName() string           { return "" }
func (v *Virtual) Close() error                { return nil }
