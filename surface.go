package engy

import (
	"image"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Filter selects how resources are sampled when scaled or rotated.
type Filter uint8

const (
	FilterNearest Filter = iota // blocky, exact for pixel art
	FilterLinear                // smooth
)

// DrawOptions controls a single resource blit.
type DrawOptions struct {
	FlipH, FlipV bool
	Opacity      float64 // 0 (invisible) to 1 (opaque)
	Filter       Filter
}

// Surface is the drawing boundary of the engine. Node render phases draw
// through it; the App supplies a ScreenSurface while running under
// Ebitengine and tests use an ImageSurface.
type Surface interface {
	Bounds() image.Rectangle
	Fill(c color.Color)
	// DrawResource draws the src rectangle of res. m maps the rectangle's
	// top-left corner (as the origin) to surface coordinates.
	DrawResource(res *Resource, src image.Rectangle, m Affine, opts DrawOptions)
}

// DebugPrinter is implemented by surfaces that can draw debug text.
type DebugPrinter interface {
	DebugPrint(msg string, x, y int)
}

// Snapshotter is implemented by surfaces whose pixels can be read back.
type Snapshotter interface {
	Snapshot() *image.NRGBA
}

func opacityByte(o float64) uint8 {
	switch {
	case o <= 0:
		return 0
	case o >= 1:
		return 255
	default:
		return uint8(o*255 + 0.5)
	}
}

// --- ImageSurface ---

// ImageSurface is a software surface backed by an *image.RGBA. It needs no
// GPU or window, which makes it the surface of choice for tests and offline
// rendering.
type ImageSurface struct {
	img *image.RGBA
}

// NewImageSurface creates a transparent w×h surface.
func NewImageSurface(w, h int) *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Image returns the backing image.
func (s *ImageSurface) Image() *image.RGBA { return s.img }

func (s *ImageSurface) Bounds() image.Rectangle { return s.img.Rect }

func (s *ImageSurface) Fill(c color.Color) {
	draw.Draw(s.img, s.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *ImageSurface) DrawResource(res *Resource, src image.Rectangle, m Affine, opts DrawOptions) {
	alpha := opacityByte(opts.Opacity)
	if alpha == 0 {
		return
	}
	v := res.variant(src, opts.FlipH, opts.FlipV, alpha)
	var interp draw.Interpolator = draw.NearestNeighbor
	if opts.Filter == FilterLinear {
		interp = draw.ApproxBiLinear
	}
	interp.Transform(s.img, m.aff3(), v, v.Bounds(), draw.Over, nil)
}

// DebugPrint draws msg in white with a 7x13 bitmap font, one line per "\n".
func (s *ImageSurface) DebugPrint(msg string, x, y int) {
	face := basicfont.Face7x13
	d := font.Drawer{Dst: s.img, Src: image.White, Face: face}
	for i, line := range strings.Split(msg, "\n") {
		d.Dot = fixed.P(x, y+face.Ascent+i*face.Height)
		d.DrawString(line)
	}
}

func (s *ImageSurface) Snapshot() *image.NRGBA {
	out := image.NewNRGBA(s.img.Rect)
	draw.Draw(out, out.Rect, s.img, s.img.Rect.Min, draw.Src)
	return out
}

func (s *ImageSurface) String() string {
	return "ImageSurface" + s.img.Rect.String()
}

// --- ScreenSurface ---

// ScreenSurface draws onto an Ebitengine image, normally the screen handed
// to Game.Draw. The target is swapped every frame while the surface value
// itself stays registered in the context.
type ScreenSurface struct {
	target *ebiten.Image
	op     ebiten.DrawImageOptions
}

// NewScreenSurface wraps target, which may be nil until the first frame.
func NewScreenSurface(target *ebiten.Image) *ScreenSurface {
	return &ScreenSurface{target: target}
}

// SetTarget replaces the image drawn to.
func (s *ScreenSurface) SetTarget(target *ebiten.Image) { s.target = target }

// Target returns the image drawn to.
func (s *ScreenSurface) Target() *ebiten.Image { return s.target }

func (s *ScreenSurface) Bounds() image.Rectangle {
	if s.target == nil {
		return image.Rectangle{}
	}
	return s.target.Bounds()
}

func (s *ScreenSurface) Fill(c color.Color) {
	if s.target != nil {
		s.target.Fill(c)
	}
}

func (s *ScreenSurface) DrawResource(res *Resource, src image.Rectangle, m Affine, opts DrawOptions) {
	if s.target == nil || opts.Opacity <= 0 {
		return
	}
	src = src.Intersect(res.Bounds())
	if src.Empty() {
		return
	}
	sub := res.gpuImage().SubImage(src).(*ebiten.Image)

	op := &s.op
	op.GeoM.Reset()
	w, h := float64(src.Dx()), float64(src.Dy())
	if opts.FlipH {
		op.GeoM.Scale(-1, 1)
		op.GeoM.Translate(w, 0)
	}
	if opts.FlipV {
		op.GeoM.Scale(1, -1)
		op.GeoM.Translate(0, h)
	}
	op.GeoM.Concat(m.GeoM())

	op.ColorScale.Reset()
	if opts.Opacity < 1 {
		op.ColorScale.ScaleAlpha(float32(opts.Opacity))
	}
	op.Filter = ebiten.FilterNearest
	if opts.Filter == FilterLinear {
		op.Filter = ebiten.FilterLinear
	}
	op.Blend = ebiten.BlendSourceOver
	s.target.DrawImage(sub, op)
}

func (s *ScreenSurface) DebugPrint(msg string, x, y int) {
	if s.target != nil {
		ebitenutil.DebugPrintAt(s.target, msg, x, y)
	}
}

// Snapshot reads the target back. Only valid inside Game.Draw.
func (s *ScreenSurface) Snapshot() *image.NRGBA {
	if s.target == nil {
		return nil
	}
	bounds := s.target.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, 4*w*h)
	s.target.ReadPixels(pixels)

	// Convert premultiplied RGBA to straight-alpha NRGBA.
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(pixels); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}
