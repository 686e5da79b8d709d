package link

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/MaxKellermann/loggertools/internal/zander"
)

// Indicator is lit while an exchange is in progress.
type Indicator interface {
	Set(on bool) error
}

// Device runs request/response exchanges with one instrument. It owns the
// link for the duration of each call; concurrent calls are serialised.
type Device struct {
	rw        io.ReadWriter
	transport Transport
	logger    *log.Logger
	busy      Indicator

	mu sync.Mutex
}

type Option func(*Device)

func WithLogger(l *log.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithMaxEmptyReads(n int) Option {
	return func(d *Device) { d.transport.MaxEmptyReads = n }
}

func WithIndicator(i Indicator) Option {
	return func(d *Device) { d.busy = i }
}

func NewDevice(rw io.ReadWriter, opts ...Option) *Device {
	d := &Device{rw: rw, logger: log.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) ReadPersonalData(ctx context.Context) (zander.PersonalData, error) {
	frame, err := d.exchange(ctx, zander.CmdReadPersonalData, nil)
	if err != nil {
		return zander.PersonalData{}, err
	}
	return zander.DecodePersonalData(frame)
}

func (d *Device) WritePersonalData(ctx context.Context, pd zander.PersonalData) error {
	_, err := d.exchange(ctx, zander.CmdWritePersonalData, zander.EncodePersonalData(pd))
	return err
}

func (d *Device) ReadTask(ctx context.Context) (zander.Task, error) {
	frame, err := d.exchange(ctx, zander.CmdReadTask, nil)
	if err != nil {
		return zander.Task{}, err
	}
	return zander.DecodeTask(frame)
}

// WriteTask encodes t before touching the link, so a task that does not fit
// fails without sending anything.
func (d *Device) WriteTask(ctx context.Context, t zander.Task) error {
	frame, err := zander.EncodeTask(t)
	if err != nil {
		return err
	}
	_, err = d.exchange(ctx, zander.CmdWriteTask, frame)
	return err
}

func (d *Device) exchange(ctx context.Context, cmd zander.Command, payload []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w before %s: %w", ErrCancelled, cmd, err)
	}

	d.setBusy(true)
	defer d.setBusy(false)

	d.logger.Debug("send", "cmd", cmd, "payload", len(payload))
	if err := WriteCommand(d.rw, cmd, payload); err != nil {
		return nil, err
	}

	_, want := cmd.PayloadSize()
	if want == 0 {
		return nil, nil
	}
	frame, err := d.transport.ReadFrame(ctx, d.rw, want)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	d.logger.Debug("recv", "cmd", cmd, "bytes", len(frame))
	return frame, nil
}

func (d *Device) setBusy(on bool) {
	if d.busy == nil {
		return
	}
	if err := d.busy.Set(on); err != nil {
		d.logger.Warn("busy indicator failed", "on", on, "err", err)
	}
}
