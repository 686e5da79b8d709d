// Command fakezander answers GP940 requests from a data directory, on a real
// serial port or on a pseudo terminal for testing zandertool without an
// instrument.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/MaxKellermann/loggertools/internal/config"
	"github.com/MaxKellermann/loggertools/internal/emulator"
)

func main() {
	var configPath, dataDir, ttyPath, virtualPath, logLevel string
	var baud int
	pflag.StringVarP(&configPath, "config", "c", "", "Path to YAML config. Built-in defaults apply when empty.")
	pflag.StringVarP(&dataDir, "data-dir", "D", "", "Directory holding personal_data and task.")
	pflag.StringVarP(&ttyPath, "tty", "t", "", "Serve on this serial device instead of a pseudo terminal.")
	pflag.IntVarP(&baud, "baud", "b", 0, "Serial speed for --tty.")
	pflag.StringVarP(&virtualPath, "virtual", "v", "", "Symlink to create for the pseudo terminal.")
	pflag.StringVarP(&logLevel, "log-level", "l", "", "debug, info, warn or error.")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fakezander [flags]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 0 {
		pflag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "fakezander: %v\n", err)
			os.Exit(2)
		}
	}
	if dataDir != "" {
		cfg.Emulator.DataDir = dataDir
	}
	if virtualPath != "" {
		cfg.Emulator.VirtualLink = virtualPath
	}
	if ttyPath != "" {
		cfg.Serial.Device = ttyPath
	}
	if baud != 0 {
		cfg.Serial.Baud = baud
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "fakezander: %v\n", err)
		os.Exit(2)
	}

	lvl, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "fakezander", Level: lvl, ReportTimestamp: true})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, ttyPath != "", logger); err != nil {
		logger.Error("stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, useTTY bool, logger *log.Logger) error {
	emu, err := emulator.New(cfg.Emulator.DataDir, logger.WithPrefix("emulator"))
	if err != nil {
		return err
	}

	var port io.ReadWriteCloser
	if useTTY {
		port, err = emulator.OpenTTY(cfg.Serial.Device, cfg.Serial.Baud)
		if err != nil {
			return err
		}
		logger.Info("serving", "tty", cfg.Serial.Device, "baud", cfg.Serial.Baud, "data_dir", cfg.Emulator.DataDir)
	} else {
		v, err := emulator.OpenVirtual(cfg.Emulator.VirtualLink)
		if err != nil {
			return err
		}
		port = v
		logger.Info("serving", "link", v.Path, "pty", v.SlaveName(), "data_dir", cfg.Emulator.DataDir)
	}

	// A blocked read only returns once the port is closed.
	go func() {
		<-ctx.Done()
		_ = port.Close()
	}()

	err = emu.Serve(ctx, port)
	_ = port.Close()
	if err != nil && !errors.Is(ctx.Err(), context.Canceled) {
		return err
	}
	logger.Info("stopped", "commands", emu.Snapshot().Commands)
	return nil
}
