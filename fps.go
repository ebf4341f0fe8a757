package engy

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// fpsRefreshInterval is how often, in seconds, the monitor text is refreshed.
const fpsRefreshInterval = 0.5

// NewFPSMonitor creates a 2D node that shows the current FPS and TPS at its
// position. The text is drawn on surfaces that implement DebugPrinter and
// refreshed about twice a second; with Config.Debug set the numbers are also
// logged at debug level on each refresh.
func NewFPSMonitor(name string) *Node {
	n := NewNode2D(name)

	var text string
	var sinceRefresh float64

	n.OnUpdate = func(n *Node, ctx *Context, dt float64) error {
		sinceRefresh += dt
		if text != "" && sinceRefresh < fpsRefreshInterval {
			return nil
		}
		sinceRefresh = 0
		fps, tps := ebiten.ActualFPS(), ebiten.ActualTPS()
		text = fmt.Sprintf("FPS: %.1f\nTPS: %.1f", fps, tps)
		if ctx.Config().Debug {
			n.Logger(ctx).Debug("frame rate", "fps", fps, "tps", tps)
		}
		return nil
	}

	n.OnRender = func(n *Node, _ *Context, s Surface) error {
		dp, ok := s.(DebugPrinter)
		if !ok || text == "" {
			return nil
		}
		x, y := n.ToGlobal(0, 0)
		dp.DebugPrint(text, int(x), int(y))
		return nil
	}
	return n
}
