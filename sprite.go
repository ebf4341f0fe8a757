package engy

import (
	"image"
)

// --- 2D transform ---

// SetPosition sets the local position.
func (n *Node) SetPosition(x, y float64) {
	n.X, n.Y = x, y
}

// SetRotation sets the local rotation in radians.
func (n *Node) SetRotation(rad float64) {
	n.Rotation = rad
}

// SetRotationDegrees sets the local rotation in degrees.
func (n *Node) SetRotationDegrees(deg float64) {
	n.Rotation = DegToRad(deg)
}

// RotationDegrees returns the local rotation in degrees.
func (n *Node) RotationDegrees() float64 {
	return RadToDeg(n.Rotation)
}

// SetScale sets the local scale.
func (n *Node) SetScale(sx, sy float64) {
	n.ScaleX, n.ScaleY = sx, sy
}

// LocalTransform returns the transform relative to the parent.
func (n *Node) LocalTransform() Transform {
	return Transform{X: n.X, Y: n.Y, Rotation: n.Rotation, ScaleX: n.ScaleX, ScaleY: n.ScaleY}
}

// SetTransform replaces the local transform.
func (n *Node) SetTransform(t Transform) {
	n.X, n.Y = t.X, t.Y
	n.Rotation = t.Rotation
	n.ScaleX, n.ScaleY = t.ScaleX, t.ScaleY
}

// GlobalMatrix composes the local transforms of this node and its 2D
// ancestors. The chain ends at the first ancestor without a transform.
// Nothing is cached; each call walks the ancestors again. Nodes without a
// transform return the identity.
func (n *Node) GlobalMatrix() Affine {
	if !n.Is2D() {
		return IdentityAffine
	}
	m := n.LocalTransform().Matrix()
	for p := n.Parent; p != nil && p.Is2D(); p = p.Parent {
		m = p.LocalTransform().Matrix().Mul(m)
	}
	return m
}

// GlobalTransform returns GlobalMatrix decomposed into position, rotation
// and scale.
func (n *Node) GlobalTransform() Transform {
	return TransformFromMatrix(n.GlobalMatrix())
}

// ToGlobal maps a point from this node's local space to screen space.
func (n *Node) ToGlobal(x, y float64) (float64, float64) {
	return n.GlobalMatrix().Apply(x, y)
}

// ToLocal maps a screen-space point into this node's local space.
func (n *Node) ToLocal(x, y float64) (float64, float64) {
	return n.GlobalMatrix().Invert().Apply(x, y)
}

// --- Sprite texture ---

// Texture returns the resource bound to the sprite, or nil before build.
func (n *Node) Texture() *Resource {
	return n.texture
}

// SetTexture binds res directly, bypassing the resource manager.
func (n *Node) SetTexture(res *Resource) {
	n.texture = res
	if res != nil {
		n.TexturePath = res.Path
	} else {
		n.TexturePath = ""
	}
}

// SetRegion points the sprite at an atlas region. The page image is loaded
// on the next build or render.
func (n *Node) SetRegion(r Region) {
	n.TexturePath = r.Image
	n.TextureOffset = r.Rect.Min
	n.TextureSize = r.Rect.Size()
}

// TextureRect returns the part of the texture the sprite draws, or an empty
// rectangle when no texture is bound.
func (n *Node) TextureRect() image.Rectangle {
	if n.texture == nil {
		return image.Rectangle{}
	}
	b := n.texture.Bounds()
	min := b.Min.Add(n.TextureOffset)
	size := n.TextureSize
	if size.X <= 0 {
		size.X = b.Max.X - min.X
	}
	if size.Y <= 0 {
		size.Y = b.Max.Y - min.Y
	}
	return image.Rectangle{Min: min, Max: min.Add(size)}.Intersect(b)
}

// Size returns the drawn width and height before scaling.
func (n *Node) Size() (w, h int) {
	r := n.TextureRect()
	return r.Dx(), r.Dy()
}

// syncTexture loads TexturePath through the context's resource manager when
// the bound texture does not match it.
func (n *Node) syncTexture(ctx *Context) error {
	if n.TexturePath == "" {
		n.texture = nil
		return nil
	}
	if n.texture != nil && n.texture.Path == n.TexturePath {
		return nil
	}
	rm, err := ContextValue[*ResourceManager](ctx, KeyResources)
	if err != nil {
		return err
	}
	res, err := rm.Load(n.TexturePath)
	if err != nil {
		return err
	}
	n.texture = res
	return nil
}

func (n *Node) drawSprite(ctx *Context, s Surface) error {
	if err := n.syncTexture(ctx); err != nil {
		return err
	}
	if n.texture == nil {
		return nil
	}
	src := n.TextureRect()
	if src.Empty() {
		return nil
	}
	s.DrawResource(n.texture, src, n.GlobalMatrix(), DrawOptions{
		FlipH:   n.FlipH,
		FlipV:   n.FlipV,
		Opacity: n.Opacity,
		Filter:  n.Filter,
	})
	return nil
}
