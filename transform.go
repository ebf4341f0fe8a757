package engy

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/math/f64"
)

// Affine is a 2D affine matrix stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
//
// The coordinate system has its origin at the top-left with Y increasing
// downward, so a positive rotation turns clockwise on screen.
type Affine [6]float64

// IdentityAffine is the identity matrix.
var IdentityAffine = Affine{1, 0, 0, 1, 0, 0}

// Mul returns m * c, i.e. c applied first and m second.
func (m Affine) Mul(c Affine) Affine {
	return Affine{
		m[0]*c[0] + m[2]*c[1],
		m[1]*c[0] + m[3]*c[1],
		m[0]*c[2] + m[2]*c[3],
		m[1]*c[2] + m[3]*c[3],
		m[0]*c[4] + m[2]*c[5] + m[4],
		m[1]*c[4] + m[3]*c[5] + m[5],
	}
}

// Invert returns the inverse of m. Singular matrices yield the identity.
func (m Affine) Invert() Affine {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return IdentityAffine
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Affine{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply maps the point (x, y) through m.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// GeoM converts m into an Ebitengine geometry matrix.
func (m Affine) GeoM() ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

// aff3 converts m into the row-major layout used by golang.org/x/image/draw.
func (m Affine) aff3() f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// Transform is a position, rotation and scale in a 2D plane. Shearing is not
// representable; compose through Matrix when shear can arise.
type Transform struct {
	X, Y     float64
	Rotation float64 // radians, clockwise on screen
	ScaleX   float64
	ScaleY   float64
}

// Identity returns the transform with no translation or rotation and unit scale.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// Matrix builds the affine matrix for t. Composition order is
// Scale -> Rotate -> Translate.
func (t Transform) Matrix() Affine {
	sin, cos := math.Sincos(t.Rotation)
	return Affine{
		t.ScaleX * cos,
		t.ScaleX * sin,
		-t.ScaleY * sin,
		t.ScaleY * cos,
		t.X,
		t.Y,
	}
}

// Apply composes t with other, applying other in t's space. This is how a
// child's local transform becomes global under its parent.
func (t Transform) Apply(other Transform) Transform {
	return TransformFromMatrix(t.Matrix().Mul(other.Matrix()))
}

// Move translates t by (tx, ty) in parent space.
func (t Transform) Move(tx, ty float64) Transform {
	return TransformFromMatrix(Affine{1, 0, 0, 1, tx, ty}.Mul(t.Matrix()))
}

// Rotate rotates t by theta radians in its own space.
func (t Transform) Rotate(theta float64) Transform {
	sin, cos := math.Sincos(theta)
	return TransformFromMatrix(t.Matrix().Mul(Affine{cos, sin, -sin, cos, 0, 0}))
}

// Scale scales t by (sx, sy) in its own space.
func (t Transform) Scale(sx, sy float64) Transform {
	return TransformFromMatrix(t.Matrix().Mul(Affine{sx, 0, 0, sy, 0, 0}))
}

// TransformFromMatrix decomposes m into position, rotation and scale.
// The result is canonical: ScaleX is never negative and Rotation lies in
// [0, 2π). A mirrored X axis shows up as a half turn with a negative ScaleY.
func TransformFromMatrix(m Affine) Transform {
	theta := math.Atan2(m[1], m[0])
	sin, cos := math.Sincos(theta)
	t := Transform{
		X:        m[4],
		Y:        m[5],
		Rotation: theta,
		ScaleX:   math.Hypot(m[0], m[1]),
		ScaleY:   -m[2]*sin + m[3]*cos,
	}
	t.normalize()
	return t
}

// normalize folds a double negative scale into a half turn and wraps the
// rotation into [0, 2π).
func (t *Transform) normalize() {
	if t.ScaleX < 0 && t.ScaleY < 0 {
		t.ScaleX, t.ScaleY = -t.ScaleX, -t.ScaleY
		t.Rotation += math.Pi
	}
	t.Rotation = math.Mod(t.Rotation, 2*math.Pi)
	if t.Rotation < 0 {
		t.Rotation += 2 * math.Pi
	}
	if t.Rotation >= 2*math.Pi {
		t.Rotation = 0
	}
}

const degreesToRadians = math.Pi / 180

// DegToRad converts an angle in degrees to radians.
func DegToRad(deg float64) float64 { return deg * degreesToRadians }

// RadToDeg converts an angle in radians to degrees.
func RadToDeg(rad float64) float64 { return rad / degreesToRadians }
