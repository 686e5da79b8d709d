package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/MaxKellermann/loggertools/internal/config"
	"github.com/MaxKellermann/loggertools/internal/indicator"
	"github.com/MaxKellermann/loggertools/internal/link"
	"github.com/MaxKellermann/loggertools/internal/trace"
)

func openPort(path string, baud int) (io.ReadWriteCloser, error) {
	f, err := link.OpenSerial(path, baud)
	if err != nil {
		return nil, err
	}
	return f, nil
}

var openPortFn = openPort

// session owns the link and everything layered on it for one run.
type session struct {
	dev    *link.Device
	tap    *trace.Tap
	logger *log.Logger

	closers []func() error
}

func openSession(cfg config.Config, logger *log.Logger) (*session, error) {
	s := &session{logger: logger}

	var rw io.ReadWriter
	if cfg.Trace.Replay != "" {
		f, err := os.Open(cfg.Trace.Replay)
		if err != nil {
			return nil, err
		}
		recs, err := trace.NewReader(f).ReadAll()
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", cfg.Trace.Replay, err)
		}
		logger.Info("replaying trace", "path", cfg.Trace.Replay, "records", len(recs))
		rw = trace.NewPlayback(recs)
	} else {
		port, err := openPortFn(cfg.Serial.Device, cfg.Serial.Baud)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Serial.Device, err)
		}
		s.closers = append(s.closers, port.Close)
		logger.Debug("serial open", "device", cfg.Serial.Device, "baud", cfg.Serial.Baud)
		rw = port
	}

	if cfg.Trace.Enable {
		w, err := trace.CreateWriter(cfg.Trace.Path)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("trace: %w", err)
		}
		s.closers = append(s.closers, w.Close)
		s.tap = trace.NewTap(rw, w)
		rw = s.tap
	}

	opts := []link.Option{
		link.WithLogger(logger.WithPrefix("link")),
		link.WithMaxEmptyReads(cfg.Link.MaxEmptyReads),
	}
	if cfg.Indicator.Enable {
		led, err := indicator.Open(cfg.Indicator.GPIO)
		if err != nil {
			logger.Warn("busy indicator unavailable", "gpio", cfg.Indicator.GPIO, "err", err)
		} else {
			s.closers = append(s.closers, led.Close)
			opts = append(opts, link.WithIndicator(led))
		}
	}

	s.dev = link.NewDevice(rw, opts...)
	return s, nil
}

func (s *session) Close() error {
	if s.tap != nil {
		if err := s.tap.Err(); err != nil {
			s.logger.Warn("trace incomplete", "err", err)
		}
	}
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
