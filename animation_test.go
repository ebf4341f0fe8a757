package engy

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func TestTweenPositionReachesTarget(t *testing.T) {
	node := NewNode2D("pos")
	node.SetPosition(10, 20)

	g := TweenPosition(node, 100, 200, 1.0, ease.Linear)

	// Run for full duration using exact halves to avoid float32 accumulation drift.
	g.Update(0.5)
	g.Update(0.5)

	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	if math.Abs(node.X-100) > 0.5 {
		t.Errorf("X = %f, want ~100", node.X)
	}
	if math.Abs(node.Y-200) > 0.5 {
		t.Errorf("Y = %f, want ~200", node.Y)
	}
}

func TestTweenScaleReachesTarget(t *testing.T) {
	node := NewNode2D("scale")

	g := TweenScale(node, 2.0, 3.0, 0.5, ease.Linear)

	g.Update(0.25)
	g.Update(0.25)

	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	if math.Abs(node.ScaleX-2.0) > 0.01 {
		t.Errorf("ScaleX = %f, want ~2.0", node.ScaleX)
	}
	if math.Abs(node.ScaleY-3.0) > 0.01 {
		t.Errorf("ScaleY = %f, want ~3.0", node.ScaleY)
	}
}

func TestTweenOpacityInterpolates(t *testing.T) {
	node := NewSprite("fade", "")

	g := TweenOpacity(node, 0, 1.0, ease.Linear)
	g.Update(0.5)
	if math.Abs(node.Opacity-0.5) > 0.01 {
		t.Errorf("Opacity at midpoint = %f, want ~0.5", node.Opacity)
	}
	g.Update(0.5)
	if !g.Done || math.Abs(node.Opacity) > 0.01 {
		t.Errorf("Opacity = %f, Done = %v, want ~0 and done", node.Opacity, g.Done)
	}
}

func TestTweenRotationReachesTarget(t *testing.T) {
	node := NewNode2D("rot")

	g := TweenRotation(node, math.Pi, 1.0, ease.Linear)
	g.Update(0.5)
	g.Update(0.5)

	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	if math.Abs(node.Rotation-math.Pi) > 0.01 {
		t.Errorf("Rotation = %f, want ~π", node.Rotation)
	}
}

func TestTweenGroupReset(t *testing.T) {
	node := NewNode2D("reset")

	g := TweenPosition(node, 100, 0, 1.0, ease.Linear)
	g.Update(1.0)
	if !g.Done {
		t.Fatal("expected Done")
	}
	g.Reset()
	if g.Done {
		t.Error("Reset should clear Done")
	}
	g.Update(0.5)
	if math.Abs(node.X-50) > 0.5 {
		t.Errorf("X after reset = %f, want ~50", node.X)
	}
}

func TestTweenGroupDestroyedNode(t *testing.T) {
	node := NewNode2D("destroyed")
	node.SetPosition(10, 20)

	g := TweenPosition(node, 100, 200, 1.0, ease.Linear)

	node.Destroy()
	g.Update(0.1)

	if !g.Done {
		t.Fatal("expected Done after destroyed node detected")
	}
	if node.X != 10 || node.Y != 20 {
		t.Errorf("position changed to (%f, %f) on destroyed node", node.X, node.Y)
	}
}

func TestTweenGroupDestroyedMidAnimation(t *testing.T) {
	node := NewNode2D("mid-destroy")

	g := TweenPosition(node, 100, 100, 1.0, ease.Linear)

	g.Update(0.1)
	g.Update(0.1)
	if g.Done {
		t.Fatal("should not be Done yet")
	}

	node.Destroy()
	savedX, savedY := node.X, node.Y

	g.Update(0.1)
	if !g.Done {
		t.Fatal("expected Done after node destroyed mid-animation")
	}
	if node.X != savedX || node.Y != savedY {
		t.Error("node fields should not change after destruction")
	}
}

func TestTweenEasingFunctionsProduceDifferentCurves(t *testing.T) {
	nodeL := NewNode2D("linear")
	nodeC := NewNode2D("cubic")

	gL := TweenPosition(nodeL, 100, 0, 1.0, ease.Linear)
	gC := TweenPosition(nodeC, 100, 0, 1.0, ease.OutCubic)

	gL.Update(0.5)
	gC.Update(0.5)

	// OutCubic should be ahead of linear at midpoint.
	if math.Abs(nodeL.X-nodeC.X) < 1.0 {
		t.Errorf("easing curves should produce different values at midpoint: linear=%f cubic=%f", nodeL.X, nodeC.X)
	}
}

func TestTweenGroupUpdateZeroAlloc(t *testing.T) {
	node := NewNode2D("alloc")
	g := TweenPosition(node, 100, 100, 1.0, ease.Linear)

	g.Update(0.01)

	result := testing.AllocsPerRun(100, func() {
		g.Update(0.001)
	})
	if result > 0 {
		t.Errorf("TweenGroup.Update allocated %f times per run, want 0", result)
	}
}

// --- Animator ---

func TestAnimatorDropsFinishedGroups(t *testing.T) {
	a := NewNode2D("a")
	b := NewNode2D("b")
	node, an := NewAnimator("anim",
		TweenPosition(a, 10, 0, 0.5, ease.Linear),
		TweenPosition(b, 10, 0, 1.0, ease.Linear),
	)
	if an.Len() != 2 {
		t.Fatalf("Len = %d, want 2", an.Len())
	}

	ctx := NewContext()
	if err := node.Update(ctx, 0.5); err != nil {
		t.Fatal(err)
	}
	if an.Len() != 1 {
		t.Errorf("Len after 0.5s = %d, want 1", an.Len())
	}
	if err := node.Update(ctx, 0.5); err != nil {
		t.Fatal(err)
	}
	if an.Len() != 0 {
		t.Errorf("Len after 1s = %d, want 0", an.Len())
	}
	if math.Abs(a.X-10) > 0.01 || math.Abs(b.X-10) > 0.01 {
		t.Errorf("X = %f, %f, want 10, 10", a.X, b.X)
	}
}

func TestAnimatorLoop(t *testing.T) {
	n := NewNode2D("spin")
	node, an := NewAnimator("anim")
	an.AddLoop(TweenRotation(n, 1, 0.5, ease.Linear))

	ctx := NewContext()
	for i := 0; i < 5; i++ {
		if err := node.Update(ctx, 0.5); err != nil {
			t.Fatal(err)
		}
	}
	if an.Len() != 1 {
		t.Errorf("Len = %d, want 1 for a looping group", an.Len())
	}
	_ = node.Update(ctx, 0.25)
	if math.Abs(n.Rotation-0.5) > 0.01 {
		t.Errorf("Rotation = %f, want ~0.5 a quarter into a loop", n.Rotation)
	}

	n.Destroy()
	_ = node.Update(ctx, 0.1)
	if an.Len() != 0 {
		t.Errorf("Len = %d, want 0 once the target is destroyed", an.Len())
	}
}
