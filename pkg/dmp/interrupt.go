package dmp

import (
	"time"
)

// Interrupt is the IMU's data-ready line. periph's gpio.PinIn satisfies it.
type Interrupt interface {
	// WaitForEdge blocks until an edge arrives or timeout passes. A negative
	// timeout waits forever.
	WaitForEdge(timeout time.Duration) bool
}

// TickerInterrupt stands in for a data-ready line when none is wired, firing
// at the sample rate.
type TickerInterrupt struct {
	ticker *time.Ticker
}

func NewTickerInterrupt(rate int) *TickerInterrupt {
	return &TickerInterrupt{ticker: time.NewTicker(time.Second / time.Duration(rate))}
}

func (t *TickerInterrupt) WaitForEdge(timeout time.Duration) bool {
	if timeout < 0 {
		<-t.ticker.C
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.ticker.C:
		return true
	case <-timer.C:
		return false
	}
}

func (t *TickerInterrupt) Stop() {
	t.ticker.Stop()
}
