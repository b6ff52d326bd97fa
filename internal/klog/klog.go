// Package klog is the kernel's line logger. Bare-metal Go has no stdlib
// `log` package worth pulling in (there is nowhere to flush to until the
// UART is live), so the reference tree hand-rolls "TAG: message" lines
// straight to the UART (uartPuts, print). This package keeps that line
// shape but routes it through a Sink interface so every subsystem stays
// unit-testable: tests and cmd/kernel alike pass a *hal.BufferConsole,
// whose WriteLine appends each line to its captured output.
package klog

import "fmt"

// Sink receives fully formatted log lines, one per call, without a
// trailing newline.
type Sink interface {
	WriteLine(line string)
}

// Logger writes "TAG: message" lines to a Sink.
type Logger struct {
	sink Sink
}

// New returns a Logger writing to sink. A nil sink makes every call a no-op,
// matching how the reference kernel drops output before uartInit has run.
func New(sink Sink) *Logger {
	return &Logger{sink: sink}
}

// Linef formats message with args and writes "tag: message" to the sink.
func (l *Logger) Linef(tag, format string, args ...any) {
	if l == nil || l.sink == nil {
		return
	}
	l.sink.WriteLine(tag + ": " + fmt.Sprintf(format, args...))
}

// Line writes "tag: message" verbatim, with no formatting.
func (l *Logger) Line(tag, message string) {
	if l == nil || l.sink == nil {
		return
	}
	l.sink.WriteLine(tag + ": " + message)
}
