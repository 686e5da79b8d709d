// Command zandertool reads and writes the personal data and task records of
// a Zander GP940 flight computer over its serial link.
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
	"github.com/MaxKellermann/loggertools/internal/link"
)

const usageText = `Usage: zandertool [flags] COMMAND

Commands:
  personal read                      print the stored personal data as YAML
  personal write [--from FILE] [--pilot ...]
                                     store personal data (flags override FILE)
  task read [--utm]                  print the declared task with leg lengths
  task write --wz FILE [--date D] NAME...
                                     declare a task from a .wz waypoint file
  task show --wz FILE NAME...        print a task without a device
  trace summary FILE                 summarize a recorded link trace

Flags:
`

var errUsage = errors.New("usage")

type options struct {
	configPath    string
	device        string
	baud          int
	maxEmptyReads int
	tracePath     string
	replayPath    string
	gpio          int
	logLevel      string

	from         string
	pilot        string
	model        string
	class        string
	registration string
	sign         string

	wzPath string
	date   string
	utm    bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("zandertool", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVarP(&o.configPath, "config", "c", "", "Path to YAML config. Built-in defaults apply when empty.")
	fs.StringVarP(&o.device, "device", "d", "", "Serial device, e.g. /dev/ttyUSB0.")
	fs.IntVarP(&o.baud, "baud", "b", 0, "Serial speed.")
	fs.IntVar(&o.maxEmptyReads, "max-empty-reads", 0, "Give up a frame after this many empty reads.")
	fs.StringVarP(&o.tracePath, "trace", "t", "", "Record link traffic to this file (strftime conversions allowed).")
	fs.StringVar(&o.replayPath, "replay", "", "Answer requests from a recorded trace instead of the device.")
	fs.IntVar(&o.gpio, "gpio", 0, "BCM GPIO of a busy LED.")
	fs.StringVarP(&o.logLevel, "log-level", "l", "", "debug, info, warn or error.")

	fs.StringVar(&o.from, "from", "", "personal write: YAML file with pilot, model, class, registration, sign.")
	fs.StringVar(&o.pilot, "pilot", "", "personal write: pilot name.")
	fs.StringVar(&o.model, "model", "", "personal write: glider model.")
	fs.StringVar(&o.class, "class", "", "personal write: competition class.")
	fs.StringVar(&o.registration, "registration", "", "personal write: registration.")
	fs.StringVar(&o.sign, "sign", "", "personal write: competition sign.")

	fs.StringVarP(&o.wzPath, "wz", "w", "", "task write/show: .wz waypoint database.")
	fs.StringVar(&o.date, "date", "", "task write: declaration date DD.MM.YY or 'today'.")
	fs.BoolVar(&o.utm, "utm", false, "task read/show: add UTM coordinates.")

	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(fs, o)
	if err != nil {
		fmt.Fprintf(stderr, "zandertool: %v\n", err)
		return 2
	}
	logger := newLogger(stderr, cfg.Log.Level)

	err = dispatch(ctx, cfg, o, fs.Args(), stdout, logger)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fs.Usage()
		return 2
	case errors.Is(err, link.ErrCancelled):
		logger.Info("cancelled")
		return 130
	default:
		logger.Error("failed", "err", err)
		return 1
	}
}

func loadConfig(fs *pflag.FlagSet, o options) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		cfg, err = config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
	}

	if fs.Changed("device") {
		cfg.Serial.Device = o.device
	}
	if fs.Changed("baud") {
		cfg.Serial.Baud = o.baud
	}
	if fs.Changed("max-empty-reads") {
		cfg.Link.MaxEmptyReads = o.maxEmptyReads
	}
	if fs.Changed("trace") {
		cfg.Trace.Enable = o.tracePath != ""
		cfg.Trace.Path = o.tracePath
	}
	if fs.Changed("replay") {
		cfg.Trace.Replay = o.replayPath
	}
	if fs.Changed("gpio") {
		cfg.Indicator.Enable = o.gpio > 0
		cfg.Indicator.GPIO = o.gpio
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "zandertool",
		Level:  lvl,
	})
}

func dispatch(ctx context.Context, cfg config.Config, o options, args []string, stdout io.Writer, logger *log.Logger) error {
	if len(args) < 2 {
		return errUsage
	}

	// Everything that can fail without the device is checked before the
	// link is opened.
	var op func(*link.Device) error
	switch args[0] + " " + args[1] {
	case "trace summary":
		if len(args) != 3 {
			return errUsage
		}
		return printTraceSummary(stdout, args[2])
	case "task show":
		task, err := taskFromOptions(o, args[2:])
		if err != nil {
			return err
		}
		return printTask(stdout, task, o.utm)
	case "personal read":
		op = func(d *link.Device) error { return personalRead(ctx, d, stdout) }
	case "personal write":
		pd, err := personalFromOptions(o)
		if err != nil {
			return err
		}
		op = func(d *link.Device) error { return personalWrite(ctx, d, pd, logger) }
	case "task read":
		op = func(d *link.Device) error { return taskRead(ctx, d, stdout, o.utm) }
	case "task write":
		task, err := taskFromOptions(o, args[2:])
		if err != nil {
			return err
		}
		op = func(d *link.Device) error { return taskWrite(ctx, d, task, logger) }
	default:
		return errUsage
	}

	s, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("close failed", "err", err)
		}
	}()
	return op(s.dev)
}
