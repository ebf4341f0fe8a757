package engy

import (
	"fmt"
	"image"
	_ "image/gif" // register decoders
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"path"

	"github.com/hajimehoshi/ebiten/v2"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultImagesDir is the sub-directory of the resource root that holds images.
const DefaultImagesDir = "images"

// ResourceOption configures a ResourceManager.
type ResourceOption func(*ResourceManager)

// WithImagesDir sets the sub-directory images are loaded from.
func WithImagesDir(dir string) ResourceOption {
	return func(m *ResourceManager) { m.imagesDir = dir }
}

// WithResourceLogger sets the logger load events go to. Without it the
// manager logs through the package logger.
func WithResourceLogger(l *slog.Logger) ResourceOption {
	return func(m *ResourceManager) { m.logger = l }
}

// ResourceManager loads each asset once and hands out the same *Resource on
// every later request for the same path. The cache is unbounded; Unload
// drops an entry explicitly.
type ResourceManager struct {
	fsys      fs.FS
	imagesDir string
	images    map[string]*Resource
	atlases   map[string]*Atlas
	logger    *slog.Logger
}

// NewResourceManager creates a manager reading from fsys.
func NewResourceManager(fsys fs.FS, opts ...ResourceOption) *ResourceManager {
	m := &ResourceManager{
		fsys:      fsys,
		imagesDir: DefaultImagesDir,
		images:    make(map[string]*Resource),
		atlases:   make(map[string]*Atlas),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the image resource at p, relative to the images directory.
// The first call reads and decodes the file; later calls return the cached
// instance. Callers must not modify the returned image.
func (m *ResourceManager) Load(p string) (*Resource, error) {
	if r, ok := m.images[p]; ok {
		return r, nil
	}
	full := path.Join(m.imagesDir, p)
	f, err := m.fsys.Open(full)
	if err != nil {
		return nil, &ResourceError{Kind: "image", Path: full, Err: err}
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, &ResourceError{Kind: "image", Path: full, Err: err}
	}
	r := newResource(p, format, img)
	m.images[p] = r
	m.log().Debug("resource loaded", "path", full, "format", format,
		"width", r.img.Rect.Dx(), "height", r.img.Rect.Dy())
	return r, nil
}

func (m *ResourceManager) log() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return Logger()
}

// Unload drops the cached resource at p. Nodes still holding it keep a
// valid reference; the next Load reads the file again.
func (m *ResourceManager) Unload(p string) {
	r, ok := m.images[p]
	if !ok {
		return
	}
	delete(m.images, p)
	if r.gpu != nil {
		r.gpu.Deallocate()
		r.gpu = nil
	}
}

// Len returns the number of cached images.
func (m *ResourceManager) Len() int {
	return len(m.images)
}

func (m *ResourceManager) String() string {
	return fmt.Sprintf("ResourceManager(%d images, %d atlases)", len(m.images), len(m.atlases))
}

// Resource is a decoded image owned by a ResourceManager. The pixel data is
// never modified after loading; transformed variants are derived and cached
// per resource.
type Resource struct {
	Path   string
	Format string // decoder name: "png", "jpeg", ...

	img      *image.NRGBA
	variants map[variantKey]*image.NRGBA
	gpu      *ebiten.Image // uploaded on first draw to a ScreenSurface
}

type variantKey struct {
	rect         image.Rectangle
	flipH, flipV bool
	alpha        uint8
}

func newResource(p, format string, src image.Image) *Resource {
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return &Resource{
		Path:     p,
		Format:   format,
		img:      img,
		variants: make(map[variantKey]*image.NRGBA),
	}
}

// Image returns the decoded pixels. The image must be treated as read-only.
func (r *Resource) Image() image.Image {
	return r.img
}

// Bounds returns the image bounds; the origin is always (0, 0).
func (r *Resource) Bounds() image.Rectangle {
	return r.img.Rect
}

// Size returns the image width and height in pixels.
func (r *Resource) Size() (w, h int) {
	return r.img.Rect.Dx(), r.img.Rect.Dy()
}

// variant returns the pixels of rect, mirrored and faded as requested, with
// the origin moved to (0, 0).
func (r *Resource) variant(rect image.Rectangle, flipH, flipV bool, alpha uint8) *image.NRGBA {
	rect = rect.Intersect(r.img.Rect)
	if rect == r.img.Rect && !flipH && !flipV && alpha == 255 {
		return r.img
	}
	key := variantKey{rect: rect, flipH: flipH, flipV: flipV, alpha: alpha}
	if v, ok := r.variants[key]; ok {
		return v
	}

	w, h := rect.Dx(), rect.Dy()
	v := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := rect.Min.Y + y
		if flipV {
			sy = rect.Max.Y - 1 - y
		}
		for x := 0; x < w; x++ {
			sx := rect.Min.X + x
			if flipH {
				sx = rect.Max.X - 1 - x
			}
			c := r.img.NRGBAAt(sx, sy)
			if alpha != 255 {
				c.A = uint8(uint16(c.A) * uint16(alpha) / 255)
			}
			v.SetNRGBA(x, y, c)
		}
	}
	r.variants[key] = v
	return v
}

// gpuImage returns the Ebitengine copy of the resource, uploading it once.
func (r *Resource) gpuImage() *ebiten.Image {
	if r.gpu == nil {
		r.gpu = ebiten.NewImageFromImage(r.img)
	}
	return r.gpu
}
