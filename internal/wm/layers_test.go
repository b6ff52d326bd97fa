package wm

import "testing"

func newTestWindow(title string, x, y, w, h int) *Window {
	return NewWindow(title, Rect{X: x, Y: y, W: w, H: h}, DefaultStyle(0, 0, 0), 1)
}

func TestAddAppendsBackToFrontAndActivates(t *testing.T) {
	s := NewLayerStack()
	a := newTestWindow("a", 0, 0, 10, 10)
	b := newTestWindow("b", 0, 0, 10, 10)
	s.Add(a)
	s.Add(b)

	windows := s.Windows()
	if len(windows) != 2 || windows[0] != a || windows[1] != b {
		t.Fatalf("Windows() = %v, want [a, b]", windows)
	}
	if s.Active() != b {
		t.Fatalf("Active() = %v, want b (last added)", s.Active())
	}
}

func TestMoveToFrontPreservesRelativeOrder(t *testing.T) {
	s := NewLayerStack()
	a := newTestWindow("a", 0, 0, 10, 10)
	b := newTestWindow("b", 0, 0, 10, 10)
	c := newTestWindow("c", 0, 0, 10, 10)
	s.Add(a)
	s.Add(b)
	s.Add(c)

	s.MoveToFront(a)
	windows := s.Windows()
	if windows[0] != b || windows[1] != c || windows[2] != a {
		t.Fatalf("Windows() after MoveToFront(a) = %v, want [b, c, a]", windows)
	}
}

func TestActivateMovesToFrontAndSetsActive(t *testing.T) {
	s := NewLayerStack()
	a := newTestWindow("a", 0, 0, 10, 10)
	b := newTestWindow("b", 0, 0, 10, 10)
	s.Add(a)
	s.Add(b)

	s.Activate(a)
	if s.Active() != a {
		t.Fatalf("Active() = %v, want a", s.Active())
	}
	if s.Windows()[len(s.Windows())-1] != a {
		t.Fatal("Activate(a) did not move a to the front")
	}
}

func TestHitTestPrefersTopmostOverlap(t *testing.T) {
	s := NewLayerStack()
	back := newTestWindow("back", 0, 0, 50, 50)
	front := newTestWindow("front", 10, 10, 50, 50)
	s.Add(back)
	s.Add(front)

	w, z, ok := s.HitTest(20, 20)
	if !ok || w != front || z != 1 {
		t.Fatalf("HitTest(20,20) = %v, %d, %v, want front, 1, true", w, z, ok)
	}

	w, z, ok = s.HitTest(5, 5)
	if !ok || w != back || z != 0 {
		t.Fatalf("HitTest(5,5) = %v, %d, %v, want back, 0, true", w, z, ok)
	}

	_, _, ok = s.HitTest(1000, 1000)
	if ok {
		t.Fatal("HitTest outside every frame should report ok=false")
	}
}

func TestActivateBackWindowFlipsHitTest(t *testing.T) {
	s := NewLayerStack()
	back := newTestWindow("back", 0, 0, 50, 50)
	front := newTestWindow("front", 10, 10, 50, 50)
	s.Add(back)
	s.Add(front)

	s.Activate(back)
	w, _, ok := s.HitTest(20, 20)
	if !ok || w != back {
		t.Fatalf("after activating back, HitTest(20,20) = %v, want back", w)
	}
	if s.Active() != back {
		t.Fatalf("Active() = %v, want back", s.Active())
	}
}
