package engy

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 2 float64 fields on a Node simultaneously.
// Create one via the convenience constructors (TweenPosition, TweenScale,
// TweenRotation, TweenOpacity) and either call Update(dt) each frame or hand
// it to an Animator node. If the target node is destroyed, the group stops
// immediately.
type TweenGroup struct {
	tweens [2]*gween.Tween
	count  int
	fields [2]*float64
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds and writes the values to the
// target fields. If the target node has been destroyed, Done is set to true
// and no writes occur.
func (g *TweenGroup) Update(dt float64) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDestroyed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(float32(dt))
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// Reset rewinds the group to its start values.
func (g *TweenGroup) Reset() {
	for i := 0; i < g.count; i++ {
		g.tweens[i].Reset()
	}
	g.Done = false
}

// TweenPosition creates a TweenGroup that animates node.X and node.Y to the
// given target coordinates over duration seconds using the easing function.
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(node.X), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(node.Y), float32(toY), duration, fn)
	g.fields[0] = &node.X
	g.fields[1] = &node.Y
	return g
}

// TweenScale creates a TweenGroup that animates node.ScaleX and node.ScaleY.
func TweenScale(node *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(node.ScaleX), float32(toSX), duration, fn)
	g.tweens[1] = gween.New(float32(node.ScaleY), float32(toSY), duration, fn)
	g.fields[0] = &node.ScaleX
	g.fields[1] = &node.ScaleY
	return g
}

// TweenRotation creates a TweenGroup that animates node.Rotation (radians).
func TweenRotation(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.Rotation), float32(to), duration, fn)
	g.fields[0] = &node.Rotation
	return g
}

// TweenOpacity creates a TweenGroup that animates a sprite's Opacity.
func TweenOpacity(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.Opacity), float32(to), duration, fn)
	g.fields[0] = &node.Opacity
	return g
}

// --- Animator ---

// Animator advances tween groups from the update phase. Finished groups are
// dropped; looping groups are rewound instead.
type Animator struct {
	groups []animEntry
}

type animEntry struct {
	group *TweenGroup
	loop  bool
}

// NewAnimator creates a node named name that drives the given groups, and
// returns it with its Animator.
func NewAnimator(name string, groups ...*TweenGroup) (*Node, *Animator) {
	an := &Animator{}
	for _, g := range groups {
		an.Add(g)
	}
	n := NewNode(name)
	n.OnUpdate = an.Update
	return n, an
}

// Add schedules g until it finishes.
func (an *Animator) Add(g *TweenGroup) {
	an.groups = append(an.groups, animEntry{group: g})
}

// AddLoop schedules g forever, rewinding it each time it finishes. A loop
// still ends when its target node is destroyed.
func (an *Animator) AddLoop(g *TweenGroup) {
	an.groups = append(an.groups, animEntry{group: g, loop: true})
}

// Len returns the number of running groups.
func (an *Animator) Len() int {
	return len(an.groups)
}

// Update advances every group by dt seconds.
func (an *Animator) Update(_ *Node, _ *Context, dt float64) error {
	kept := an.groups[:0]
	for _, e := range an.groups {
		e.group.Update(dt)
		if e.group.Done {
			if !e.loop || (e.group.target != nil && e.group.target.IsDestroyed()) {
				continue
			}
			e.group.Reset()
		}
		kept = append(kept, e)
	}
	clear(an.groups[len(kept):])
	an.groups = kept
	return nil
}
