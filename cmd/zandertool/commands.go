package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tzneal/coordconv"
	"gopkg.in/yaml.v3"

	"github.com/MaxKellermann/loggertools/internal/link"
	"github.com/MaxKellermann/loggertools/internal/wz"
	"github.com/MaxKellermann/loggertools/internal/zander"
)

var nowFn = time.Now

func personalRead(ctx context.Context, d *link.Device, w io.Writer) error {
	pd, err := d.ReadPersonalData(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(pd)
}

// personalFromOptions starts from the --from YAML file, if any, and lets
// non-empty field flags replace its values.
func personalFromOptions(o options) (zander.PersonalData, error) {
	var pd zander.PersonalData
	if o.from != "" {
		b, err := os.ReadFile(o.from)
		if err != nil {
			return zander.PersonalData{}, err
		}
		if err := yaml.Unmarshal(b, &pd); err != nil {
			return zander.PersonalData{}, fmt.Errorf("%s: %w", o.from, err)
		}
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&pd.Pilot, o.pilot)
	override(&pd.Model, o.model)
	override(&pd.Class, o.class)
	override(&pd.Registration, o.registration)
	override(&pd.Sign, o.sign)

	return zander.NewPersonalData(pd.Pilot, pd.Model, pd.Class, pd.Registration, pd.Sign)
}

func personalWrite(ctx context.Context, d *link.Device, pd zander.PersonalData, logger *log.Logger) error {
	if err := d.WritePersonalData(ctx, pd); err != nil {
		return err
	}
	logger.Info("personal data written", "pilot", pd.Pilot, "registration", pd.Registration)
	return nil
}

func taskRead(ctx context.Context, d *link.Device, w io.Writer, utm bool) error {
	t, err := d.ReadTask(ctx)
	if err != nil {
		return err
	}
	return printTask(w, t, utm)
}

func taskWrite(ctx context.Context, d *link.Device, t zander.Task, logger *log.Logger) error {
	if err := d.WriteTask(ctx, t); err != nil {
		return err
	}
	logger.Info("task written", "waypoints", t.Len(), "date", t.Date, "km", fmt.Sprintf("%.1f", zander.TotalKm(t)))
	return nil
}

func taskFromOptions(o options, names []string) (zander.Task, error) {
	if o.wzPath == "" || len(names) == 0 {
		return zander.Task{}, fmt.Errorf("%w: --wz FILE and at least one waypoint name are required", errUsage)
	}
	f, err := os.Open(o.wzPath)
	if err != nil {
		return zander.Task{}, err
	}
	defer f.Close()

	db, err := wz.Load(f)
	if err != nil {
		return zander.Task{}, fmt.Errorf("%s: %w", o.wzPath, err)
	}
	wps, err := wz.Lookup(db, names)
	if err != nil {
		return zander.Task{}, err
	}
	date, err := parseDate(o.date)
	if err != nil {
		return zander.Task{}, err
	}

	t := zander.Task{Date: date}
	for _, wp := range wps {
		if err := t.Append(wp); err != nil {
			return zander.Task{}, err
		}
	}
	return t, nil
}

func parseDate(s string) (zander.Date, error) {
	switch s = strings.TrimSpace(s); s {
	case "":
		return zander.Date{}, nil
	case "today":
		return zander.DateOf(nowFn()), nil
	}
	t, err := time.Parse("02.01.06", s)
	if err != nil {
		return zander.Date{}, fmt.Errorf("date %q: want DD.MM.YY or 'today'", s)
	}
	return zander.DateOf(t), nil
}

func printTask(w io.Writer, t zander.Task, utm bool) error {
	fmt.Fprintf(w, "date: %s\n", t.Date)
	fmt.Fprintf(w, "waypoints: %d\n", t.Len())

	legs := zander.LegDistancesKm(t)
	for i, wp := range t.Waypoints {
		line := fmt.Sprintf("%2d %s", i+1, wp)
		if i > 0 {
			line += fmt.Sprintf(" %8.1f km", legs[i-1])
		} else if utm {
			line += fmt.Sprintf(" %8s   ", "")
		}
		if utm {
			u, err := wp.Position.UTM()
			if err != nil {
				return fmt.Errorf("waypoint %d (%s): %w", i+1, wp.Name, err)
			}
			line += " " + formatUTM(u)
		}
		fmt.Fprintln(w, line)
	}
	if len(legs) > 0 {
		fmt.Fprintf(w, "total: %.1f km\n", zander.TotalKm(t))
	}
	return nil
}

func formatUTM(u coordconv.UTMCoord) string {
	h := '?'
	switch u.Hemisphere {
	case coordconv.HemisphereNorth:
		h = 'N'
	case coordconv.HemisphereSouth:
		h = 'S'
	}
	return fmt.Sprintf("%d%c %.0fE %.0fN", u.Zone, h, u.Easting, u.Northing)
}
