package wm

// LayerStack is an ordered back-to-front list of windows: index 0 is the
// back, the last index is the front. Insertion appends; move_to_front
// reshuffles in place without disturbing the relative order of the rest.
type LayerStack struct {
	windows []*Window
	active  *Window
}

// NewLayerStack returns an empty stack.
func NewLayerStack() *LayerStack {
	return &LayerStack{windows: make([]*Window, 0, maxLayerStack)}
}

// Add appends w to the front of the stack and activates it, matching the
// spec's "active window = last added or last activated".
func (s *LayerStack) Add(w *Window) bool {
	if len(s.windows) >= maxLayerStack {
		return false
	}
	s.windows = append(s.windows, w)
	s.active = w
	return true
}

// Windows returns the stack in back-to-front order. Callers must not
// mutate the returned slice.
func (s *LayerStack) Windows() []*Window {
	return s.windows
}

// Active is the last window added or activated, or nil if the stack is
// empty.
func (s *LayerStack) Active() *Window {
	return s.active
}

func (s *LayerStack) indexOf(w *Window) int {
	for i, cur := range s.windows {
		if cur == w {
			return i
		}
	}
	return -1
}

// MoveToFront shifts every window above w's current position down by one
// and places w at the top, leaving everything below it in the same
// relative order. A window not in the stack is a no-op.
func (s *LayerStack) MoveToFront(w *Window) {
	i := s.indexOf(w)
	if i < 0 || i == len(s.windows)-1 {
		return
	}
	copy(s.windows[i:], s.windows[i+1:])
	s.windows[len(s.windows)-1] = w
}

// Activate moves w to the front and marks it active.
func (s *LayerStack) Activate(w *Window) {
	if s.indexOf(w) < 0 {
		return
	}
	s.MoveToFront(w)
	s.active = w
}

// HitTest walks the stack from front to back and returns the first window
// whose frame contains (x, y), along with its z-index. ok is false when no
// window contains the point.
func (s *LayerStack) HitTest(x, y int) (w *Window, zIndex int, ok bool) {
	for i := len(s.windows) - 1; i >= 0; i-- {
		if s.windows[i].Frame.Contains(x, y) {
			return s.windows[i], i, true
		}
	}
	return nil, -1, false
}
