package engy

import "github.com/hajimehoshi/ebiten/v2"

// InjectEvent queues a synthetic event. Injected events are dispatched one
// per frame, ahead of polled input, so a press and its release land on
// different frames as they would with real input.
func (a *App) InjectEvent(e Event) {
	a.injectQueue = append(a.injectQueue, e)
}

// InjectKey queues a key press followed by its release. Consumes two frames.
func (a *App) InjectKey(key ebiten.Key) {
	a.InjectEvent(KeyEvent(EventKeyDown, key))
	a.InjectEvent(KeyEvent(EventKeyUp, key))
}

// InjectClick queues a left-button press followed by a release at the same
// screen coordinates. Consumes two frames.
func (a *App) InjectClick(x, y int) {
	a.InjectEvent(MouseEvent(EventMouseDown, MouseButtonLeft, x, y))
	a.InjectEvent(MouseEvent(EventMouseUp, MouseButtonLeft, x, y))
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate frames, and
// release at (toX, toY). The total sequence consumes `frames` frames.
// Minimum frames is 2 (press + release).
func (a *App) InjectDrag(fromX, fromY, toX, toY, frames int) {
	if frames < 2 {
		frames = 2
	}
	a.InjectEvent(MouseEvent(EventMouseDown, MouseButtonLeft, fromX, fromY))
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		x := fromX + int(float64(toX-fromX)*t)
		y := fromY + int(float64(toY-fromY)*t)
		a.InjectEvent(Event{Type: EventMouseMove, X: x, Y: y})
	}
	a.InjectEvent(MouseEvent(EventMouseUp, MouseButtonLeft, toX, toY))
}

// PendingInjected returns the number of queued synthetic events.
func (a *App) PendingInjected() int {
	return len(a.injectQueue)
}

// popInjected removes and returns the oldest queued event.
func (a *App) popInjected() (Event, bool) {
	if len(a.injectQueue) == 0 {
		return Event{}, false
	}
	e := a.injectQueue[0]
	copy(a.injectQueue, a.injectQueue[1:])
	a.injectQueue = a.injectQueue[:len(a.injectQueue)-1]
	return e, true
}
