// Package wm is the window manager core: a z-ordered layer stack, hit
// testing, focus activation, a mouse drag state machine, keyboard routing
// (both the single-sink and per-window-endpoint variants), and a pure
// compositor that renders a scene to an RGBA pixel buffer and fingerprints
// it with FNV-1a. The compositor is grounded on the teacher tree's
// gg_circle_qemu.go ("build a gg.Context sized to the framebuffer, draw
// shapes into it, read back pixels"), generalized from one hardcoded
// startup circle into a data-driven render of an arbitrary layer stack.
package wm

import "tinykernel/internal/kconfig"

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) falls within r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Color is a packed 0xRRGGBB color, matching the spec's plain integer
// color fields.
type Color uint32

func (c Color) RGB() (r, g, b float64) {
	return float64((c>>16)&0xFF) / 255, float64((c>>8)&0xFF) / 255, float64(c&0xFF) / 255
}

// Style carries a window's border, title bar, and content colors, plus
// the two geometric constants the derived rectangles are built from.
type Style struct {
	BorderColor    Color
	TitleBarColor  Color
	ContentColor   Color
	BorderThickness int
	TitleBarHeight  int
}

// DefaultStyle mirrors the spec's style defaults: border_thickness=1,
// title_bar_height=18.
func DefaultStyle(border, titleBar, content Color) Style {
	return Style{
		BorderColor:     border,
		TitleBarColor:   titleBar,
		ContentColor:    content,
		BorderThickness: 1,
		TitleBarHeight:  18,
	}
}

// Window is one managed surface: a title, a screen-space frame, a style,
// and the routable endpoint its keyboard events are addressed to.
type Window struct {
	Title      string
	Frame      Rect
	Style      Style
	EndpointID uint32
}

// NewWindow constructs a window at frame with style, bound to endpointID.
func NewWindow(title string, frame Rect, style Style, endpointID uint32) *Window {
	return &Window{Title: title, Frame: frame, Style: style, EndpointID: endpointID}
}

// innerRect is the frame inset by the border thickness on every side,
// clamped so it never goes negative even when the frame is smaller than
// 2*border.
func (w *Window) innerRect() Rect {
	b := w.Style.BorderThickness
	iw := w.Frame.W - 2*b
	ih := w.Frame.H - 2*b
	if iw < 0 {
		iw = 0
	}
	if ih < 0 {
		ih = 0
	}
	return Rect{X: w.Frame.X + b, Y: w.Frame.Y + b, W: iw, H: ih}
}

// TitleBarRect is the inset frame's top strip, at most TitleBarHeight
// tall and never taller than the inset frame itself — the invariant the
// spec calls out explicitly for degenerate w,h < 2*border frames.
func (w *Window) TitleBarRect() Rect {
	inner := w.innerRect()
	h := w.Style.TitleBarHeight
	if h > inner.H {
		h = inner.H
	}
	return Rect{X: inner.X, Y: inner.Y, W: inner.W, H: h}
}

// ContentRect is the inset frame below the title bar.
func (w *Window) ContentRect() Rect {
	inner := w.innerRect()
	bar := w.TitleBarRect()
	y := inner.Y + bar.H
	h := inner.H - bar.H
	if h < 0 {
		h = 0
	}
	return Rect{X: inner.X, Y: y, W: inner.W, H: h}
}

// maxLayerStack restates kconfig.LayerStackMax as the package-local bound
// LayerStack uses.
const maxLayerStack = kconfig.LayerStackMax
