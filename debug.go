package engy

import (
	"log/slog"
	"time"
)

// globalDebug enables tree-shape checks on every mutation, reported through
// the package logger. An App in debug mode checks its own tree once per
// frame instead and never touches this flag.
var globalDebug bool

// SetDebug toggles tree-shape checks for every node mutation.
func SetDebug(on bool) { globalDebug = on }

// frameStats holds per-frame timing. Only populated when the App runs in
// debug mode.
type frameStats struct {
	eventTime  time.Duration
	updateTime time.Duration
	renderTime time.Duration
	events     int
	nodes      int
}

// debugLog reports frame timing at debug level.
func (a *App) debugLog(stats frameStats) {
	if !a.cfg.Debug {
		return
	}
	a.logger.Debug("frame",
		"events", stats.events,
		"event_time", stats.eventTime,
		"update_time", stats.updateTime,
		"render_time", stats.renderTime,
		"nodes", stats.nodes,
	)
}

// debugMaxTreeDepth is the depth past which debugCheckTreeDepth warns.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(l *slog.Logger, n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		l.Warn("tree depth exceeds threshold",
			"depth", depth, "threshold", debugMaxTreeDepth, "node", n.Path())
	}
}

// debugMaxChildCount is the child count past which debugCheckChildCount warns.
const debugMaxChildCount = 1000

func debugCheckChildCount(l *slog.Logger, n *Node) {
	if len(n.children) > debugMaxChildCount {
		l.Warn("child count exceeds threshold",
			"children", len(n.children), "threshold", debugMaxChildCount, "node", n.Path())
	}
}

// debugCheckTree runs the tree-shape checks over the active part of the
// tree. It only walks when the node count changed since the last check.
func (a *App) debugCheckTree(nodes int) {
	if nodes == a.checkedNodes {
		return
	}
	a.checkedNodes = nodes
	a.root.Walk(func(c *Node) bool {
		if !c.Active {
			return false
		}
		debugCheckChildCount(a.logger, c)
		if len(c.children) == 0 {
			debugCheckTreeDepth(a.logger, c)
		}
		return true
	})
}

// countNodes returns the number of active nodes in the subtree.
func countNodes(n *Node) int {
	count := 0
	n.Walk(func(c *Node) bool {
		if !c.Active {
			return false
		}
		count++
		return true
	})
	return count
}
