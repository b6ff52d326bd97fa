package wm

import "testing"

func TestDerivedRectsStayInsideFrame(t *testing.T) {
	style := DefaultStyle(0x000000, 0x3366FF, 0xFFFFFF)
	w := NewWindow("term", Rect{X: 10, Y: 10, W: 100, H: 60}, style, 1)

	bar := w.TitleBarRect()
	content := w.ContentRect()

	if bar.X < w.Frame.X || bar.Y < w.Frame.Y || bar.X+bar.W > w.Frame.X+w.Frame.W {
		t.Fatalf("title bar %+v escapes frame %+v", bar, w.Frame)
	}
	if content.Y+content.H > w.Frame.Y+w.Frame.H {
		t.Fatalf("content %+v escapes frame %+v", content, w.Frame)
	}
	if bar.H != style.TitleBarHeight {
		t.Fatalf("title bar height = %d, want %d", bar.H, style.TitleBarHeight)
	}
	if content.Y != bar.Y+bar.H {
		t.Fatalf("content.Y = %d, want directly below title bar at %d", content.Y, bar.Y+bar.H)
	}
}

func TestDegenerateFrameNeverEscapes(t *testing.T) {
	style := DefaultStyle(0, 0, 0)
	style.BorderThickness = 3
	// w,h < 2*border on both axes.
	w := NewWindow("tiny", Rect{X: 5, Y: 5, W: 4, H: 2}, style, 1)

	bar := w.TitleBarRect()
	content := w.ContentRect()

	if bar.W < 0 || bar.H < 0 || content.W < 0 || content.H < 0 {
		t.Fatalf("negative derived rect: bar=%+v content=%+v", bar, content)
	}
	if bar.X+bar.W > w.Frame.X+w.Frame.W || bar.Y+bar.H > w.Frame.Y+w.Frame.H {
		t.Fatalf("title bar escapes degenerate frame: %+v in %+v", bar, w.Frame)
	}
	if content.X+content.W > w.Frame.X+w.Frame.W || content.Y+content.H > w.Frame.Y+w.Frame.H {
		t.Fatalf("content escapes degenerate frame: %+v in %+v", content, w.Frame)
	}
}

func TestTitleBarCappedByInnerHeight(t *testing.T) {
	style := DefaultStyle(0, 0, 0)
	style.BorderThickness = 1
	style.TitleBarHeight = 18
	// inner height = 10 - 2 = 8, well under title_bar_height.
	w := NewWindow("short", Rect{X: 0, Y: 0, W: 40, H: 10}, style, 1)

	bar := w.TitleBarRect()
	if bar.H != 8 {
		t.Fatalf("title bar height = %d, want 8 (clamped to inner height)", bar.H)
	}
	if w.ContentRect().H != 0 {
		t.Fatalf("content height = %d, want 0 when title bar consumes the whole inner frame", w.ContentRect().H)
	}
}
