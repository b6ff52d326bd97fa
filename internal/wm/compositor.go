package wm

import (
	"hash/fnv"
	"image"

	"github.com/fogleman/gg"
)

// Scene is everything the compositor needs to produce one frame: a
// background fill, the layer stack to paint back-to-front, and (for
// callers, not the render itself) which window is currently active.
type Scene struct {
	Background  Color
	Layers      *LayerStack
	ActiveWindow *Window
}

// Render is a pure function of (scene, framebuffer size): it always
// produces the same pixels for the same inputs, which is what lets the
// fingerprint stand in for a full pixel comparison in tests. It draws
// with a gg.Context sized to the framebuffer, the same shape the teacher
// tree's gg_circle_qemu.go used for a single hardcoded circle, here
// generalized to an arbitrary back-to-front window list.
func Render(scene Scene, width, height int) (*image.RGBA, uint32) {
	ctx := gg.NewContext(width, height)

	r, g, b := scene.Background.RGB()
	ctx.SetRGB(r, g, b)
	ctx.DrawRectangle(0, 0, float64(width), float64(height))
	ctx.Fill()

	if scene.Layers != nil {
		for _, w := range scene.Layers.Windows() {
			drawWindow(ctx, w)
		}
	}

	img := ctx.Image().(*image.RGBA)
	return img, fingerprint(img)
}

func drawWindow(ctx *gg.Context, w *Window) {
	fillRect(ctx, w.Frame, w.Style.BorderColor)

	content := w.ContentRect()
	fillRect(ctx, content, w.Style.ContentColor)

	bar := w.TitleBarRect()
	accent := titleAccent(w.Title, w.Style.TitleBarColor)
	fillRect(ctx, bar, accent)
}

func fillRect(ctx *gg.Context, r Rect, c Color) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	red, green, blue := c.RGB()
	ctx.SetRGB(red, green, blue)
	ctx.DrawRectangle(float64(r.X), float64(r.Y), float64(r.W), float64(r.H))
	ctx.Fill()
}

// titleAccent derives the title bar's fill color by XOR-ing the low six
// bits of each channel of the base title-bar color with the matching bits
// of a 32-bit FNV-1a hash of the title, giving every distinctly named
// window a slightly different, fully deterministic bar.
func titleAccent(title string, base Color) Color {
	h := fnv.New32a()
	h.Write([]byte(title))
	sum := h.Sum32()
	mix := Color(sum & 0x3F3F3F)
	return base ^ mix
}

// fingerprint is the 32-bit FNV-1a over the rendered pixel buffer's raw
// bytes, in the pixel order image.RGBA already stores them (row-major,
// R,G,B,A per pixel) — the spec's scene fingerprint.
func fingerprint(img *image.RGBA) uint32 {
	h := fnv.New32a()
	h.Write(img.Pix)
	return h.Sum32()
}
