// Package clock implements the fixed-interval tick driver the trap
// dispatcher calls into on every timer interrupt, grounded on the
// reference tree's timer_qemu.go deadline-reprogramming loop
// (timer_write_tval / tick catch-up) but driven through the hal.Timer
// interface instead of linknamed CNTV registers.
package clock

import (
	"tinykernel/internal/hal"
	"tinykernel/internal/kconfig"
	"tinykernel/internal/klog"
)

// Clock drives a hal.Timer at a fixed interval, reprogramming the
// deadline on every tick and catching up if one or more intervals were
// missed before the handler ran.
type Clock struct {
	timer  hal.Timer
	logger *klog.Logger

	ticks        uint64
	nextDeadline uint64
	tickLogCount int
}

// New returns a Clock driving timer and logging through logger.
func New(timer hal.Timer, logger *klog.Logger) *Clock {
	return &Clock{timer: timer, logger: logger}
}

// Init programs the first deadline one interval from now and resets the
// tick counter.
func (c *Clock) Init() {
	c.ticks = 0
	c.tickLogCount = 0
	c.nextDeadline = c.timer.Now() + kconfig.ClockInterval
	c.timer.SetDeadline(c.nextDeadline)
}

// HandleTick advances the tick counter, reprograms the deadline, and
// logs the tick (bounded by kconfig.ClockTickLogLimit). Implements
// trapframe.TickSource.
func (c *Clock) HandleTick() {
	c.ticks++

	c.nextDeadline += kconfig.ClockInterval
	if now := c.timer.Now(); c.nextDeadline <= now {
		missed := (now-c.nextDeadline)/kconfig.ClockInterval + 1
		c.nextDeadline += missed * kconfig.ClockInterval
	}
	c.timer.SetDeadline(c.nextDeadline)

	if c.tickLogCount < kconfig.ClockTickLogLimit {
		c.logger.Linef("TICK", "%d", c.ticks)
		c.tickLogCount++
	}
}

// Ticks returns the number of ticks handled since Init.
func (c *Clock) Ticks() uint64 { return c.ticks }

// NextDeadline returns the currently programmed deadline.
func (c *Clock) NextDeadline() uint64 { return c.nextDeadline }
