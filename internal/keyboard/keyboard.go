// Package keyboard decodes a PS/2-style make/break scancode stream into
// Text and Control events, the hosted counterpart of a bare-metal PS/2
// ISR: no registers here, just the state machine over a byte stream.
package keyboard

// ControlCode names the non-printable keys the decoder recognizes.
type ControlCode int

const (
	Enter ControlCode = iota
	Backspace
	Tab
	Escape
)

// EventKind discriminates the two event shapes a make event can produce.
type EventKind int

const (
	KindText EventKind = iota
	KindControl
)

// Event is what the decoder emits for a recognized make event. Zero value
// events (no Kind set) are never produced; ignored scancodes simply
// don't emit.
type Event struct {
	Kind EventKind
	Text rune
	Code ControlCode
}

const (
	scancodeExtended0 = 0xE0
	scancodeExtended1 = 0xE1
	scancodeBreakBit  = 0x80

	scancodeLeftShift  = 0x2A
	scancodeRightShift = 0x36
	scancodeCapsLock   = 0x3A

	scancodeEnter     = 0x1C
	scancodeBackspace = 0x0E
	scancodeTab       = 0x0F
	scancodeEscape    = 0x01
)

// printable maps unshifted make-scancodes to their base rune. Only the
// standard alphanumeric row plus a handful of punctuation keys are
// modeled; everything else is dropped silently per §4.4.
var printable = map[byte]rune{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0',
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1E: 'a', 0x1F: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l',
	0x2C: 'z', 0x2D: 'x', 0x2E: 'c', 0x2F: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm',
	0x39: ' ',
	0x0C: '-', 0x0D: '=',
	0x27: ';', 0x28: '\'', 0x33: ',', 0x34: '.', 0x35: '/',
}

// shifted gives the shifted glyph for keys whose shifted form is not a
// simple case change (the printable punctuation row).
var shifted = map[byte]rune{
	0x02: '!', 0x03: '@', 0x04: '#', 0x05: '$', 0x06: '%',
	0x07: '^', 0x08: '&', 0x09: '*', 0x0A: '(', 0x0B: ')',
	0x0C: '_', 0x0D: '+',
	0x27: ':', 0x28: '"', 0x33: '<', 0x34: '>', 0x35: '?',
}

// Decoder tracks modifier state across calls to Feed.
type Decoder struct {
	leftShift      bool
	rightShift     bool
	capsLock       bool
	extendedPrefix bool
}

// New returns a decoder with no modifiers held.
func New() *Decoder {
	return &Decoder{}
}

// Feed processes one scancode byte and returns the event it produced, if
// any.
func (d *Decoder) Feed(code byte) (Event, bool) {
	if d.extendedPrefix {
		d.extendedPrefix = false
		return Event{}, false
	}
	if code == scancodeExtended0 || code == scancodeExtended1 {
		d.extendedPrefix = true
		return Event{}, false
	}

	isBreak := code&scancodeBreakBit != 0
	base := code &^ scancodeBreakBit

	if isBreak {
		switch base {
		case scancodeLeftShift:
			d.leftShift = false
		case scancodeRightShift:
			d.rightShift = false
		}
		return Event{}, false
	}

	switch base {
	case scancodeLeftShift:
		d.leftShift = true
		return Event{}, false
	case scancodeRightShift:
		d.rightShift = true
		return Event{}, false
	case scancodeCapsLock:
		d.capsLock = !d.capsLock
		return Event{}, false
	case scancodeEnter:
		return Event{Kind: KindControl, Code: Enter}, true
	case scancodeBackspace:
		return Event{Kind: KindControl, Code: Backspace}, true
	case scancodeTab:
		return Event{Kind: KindControl, Code: Tab}, true
	case scancodeEscape:
		return Event{Kind: KindControl, Code: Escape}, true
	}

	if r, ok := d.applyShift(base); ok {
		return Event{Kind: KindText, Text: r}, true
	}
	return Event{}, false
}

// applyShift resolves base to its printable rune under the current
// shift/caps-lock state: letters uppercase iff shift XOR caps lock,
// punctuation through the fixed shifted lookup table.
func (d *Decoder) applyShift(base byte) (rune, bool) {
	r, ok := printable[base]
	if !ok {
		return 0, false
	}
	shiftHeld := d.leftShift || d.rightShift

	if r >= 'a' && r <= 'z' {
		if shiftHeld != d.capsLock {
			return r - ('a' - 'A'), true
		}
		return r, true
	}

	if shiftHeld {
		if sr, ok := shifted[base]; ok {
			return sr, true
		}
	}
	return r, true
}
