package wm

import "tinykernel/internal/keyboard"

// KeySink receives a keyboard event addressed to endpointID.
type KeySink interface {
	HandleKey(endpointID uint32, ev keyboard.Event)
}

// KeySinkFunc adapts a plain function to KeySink.
type KeySinkFunc func(endpointID uint32, ev keyboard.Event)

func (f KeySinkFunc) HandleKey(endpointID uint32, ev keyboard.Event) {
	f(endpointID, ev)
}

// KeyboardRouter is the single-sink variant: one registered sink receives
// every keyboard event, addressed by the active window's endpoint id.
// Events are dropped when there is no active window or its endpoint id is
// zero (unbound).
type KeyboardRouter struct {
	stack *LayerStack
	queue *keyboard.Decoder
	sink  KeySink

	pending []keyboard.Event
}

// NewKeyboardRouter returns a router over stack that will drain events
// pushed via Push and dispatch them to sink.
func NewKeyboardRouter(stack *LayerStack, sink KeySink) *KeyboardRouter {
	return &KeyboardRouter{stack: stack, sink: sink}
}

// Push enqueues a decoded keyboard event for the next DispatchPending.
func (r *KeyboardRouter) Push(ev keyboard.Event) {
	r.pending = append(r.pending, ev)
}

// DispatchPending drains the queued keyboard events, routing each to the
// active window's endpoint id.
func (r *KeyboardRouter) DispatchPending() {
	active := r.stack.Active()
	events := r.pending
	r.pending = nil
	if active == nil || active.EndpointID == 0 || r.sink == nil {
		return
	}
	for _, ev := range events {
		r.sink.HandleKey(active.EndpointID, ev)
	}
}

// TextHandler receives printable-character keyboard events.
type TextHandler interface {
	HandleText(ch rune)
}

// TextHandlerFunc adapts a plain function to TextHandler.
type TextHandlerFunc func(ch rune)

func (f TextHandlerFunc) HandleText(ch rune) { f(ch) }

// ControlHandler receives control-key keyboard events.
type ControlHandler interface {
	HandleControl(code keyboard.ControlCode)
}

// ControlHandlerFunc adapts a plain function to ControlHandler.
type ControlHandlerFunc func(code keyboard.ControlCode)

func (f ControlHandlerFunc) HandleControl(code keyboard.ControlCode) { f(code) }

// endpointHandlers is one window's registered (text, control) callback
// pair in the endpoint variant.
type endpointHandlers struct {
	text    TextHandler
	control ControlHandler
}

// EndpointKeyboardRouter is the endpoint variant: each window registers
// its own (text_handler, control_handler) pair, invoked directly instead
// of through a shared sink. The focus rule is identical to
// KeyboardRouter's: only the active window's handlers ever fire.
type EndpointKeyboardRouter struct {
	stack    *LayerStack
	handlers map[*Window]endpointHandlers
	pending  []keyboard.Event
}

// NewEndpointKeyboardRouter returns a router over stack.
func NewEndpointKeyboardRouter(stack *LayerStack) *EndpointKeyboardRouter {
	return &EndpointKeyboardRouter{stack: stack, handlers: make(map[*Window]endpointHandlers)}
}

// Register binds w's text and control handlers. Either may be nil.
func (r *EndpointKeyboardRouter) Register(w *Window, text TextHandler, control ControlHandler) {
	r.handlers[w] = endpointHandlers{text: text, control: control}
}

// Push enqueues a decoded keyboard event for the next DispatchPending.
func (r *EndpointKeyboardRouter) Push(ev keyboard.Event) {
	r.pending = append(r.pending, ev)
}

// DispatchPending drains the queued events, invoking the active window's
// registered handlers directly.
func (r *EndpointKeyboardRouter) DispatchPending() {
	active := r.stack.Active()
	events := r.pending
	r.pending = nil
	if active == nil {
		return
	}
	h, ok := r.handlers[active]
	if !ok {
		return
	}
	for _, ev := range events {
		switch ev.Kind {
		case keyboard.KindText:
			if h.text != nil {
				h.text.HandleText(ev.Text)
			}
		case keyboard.KindControl:
			if h.control != nil {
				h.control.HandleControl(ev.Code)
			}
		}
	}
}
