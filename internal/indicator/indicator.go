// Package indicator drives a "link busy" LED on a GPIO output.
package indicator

import (
	"fmt"
	"sync"
)

type outputLine interface {
	SetValue(v int) error
	Close() error
}

// LED is an on/off output. It satisfies link.Indicator.
type LED struct {
	mu   sync.Mutex
	line outputLine
	on   bool
}

// Open requests BCM GPIO pin as an output. The LED starts off.
func Open(pin int) (*LED, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("indicator: invalid gpio pin %d", pin)
	}
	line, err := openLineFn(pin)
	if err != nil {
		return nil, err
	}
	return &LED{line: line}, nil
}

func (l *LED) Set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.line == nil {
		return fmt.Errorf("indicator: closed")
	}
	v := 0
	if on {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return err
	}
	l.on = on
	return nil
}

func (l *LED) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// Close switches the LED off and releases the line.
func (l *LED) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.line == nil {
		return nil
	}
	_ = l.line.SetValue(0)
	err := l.line.Close()
	l.line = nil
	l.on = false
	return err
}
