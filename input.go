package engy

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EventType identifies a kind of input event.
type EventType uint8

const (
	EventQuit      EventType = iota // window closed or quit requested
	EventKeyDown                    // a key was pressed
	EventKeyUp                      // a key was released
	EventMouseDown                  // a mouse button was pressed
	EventMouseUp                    // a mouse button was released
	EventMouseMove                  // the cursor moved
	EventWheel                      // the wheel scrolled
)

func (t EventType) String() string {
	switch t {
	case EventQuit:
		return "quit"
	case EventKeyDown:
		return "key_down"
	case EventKeyUp:
		return "key_up"
	case EventMouseDown:
		return "mouse_down"
	case EventMouseUp:
		return "mouse_up"
	case EventMouseMove:
		return "mouse_move"
	case EventWheel:
		return "wheel"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

var ebitenButtons = [...]ebiten.MouseButton{
	MouseButtonLeft:   ebiten.MouseButtonLeft,
	MouseButtonRight:  ebiten.MouseButtonRight,
	MouseButtonMiddle: ebiten.MouseButtonMiddle,
}

// KeyModifiers is a bitmask of keyboard modifier keys.
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt key
	ModMeta                           // Meta / Command key
)

// Event is the engine's representation of a platform input event. Fields
// that do not apply to Type are zero.
type Event struct {
	Type      EventType
	Key       ebiten.Key // EventKeyDown, EventKeyUp
	Button    MouseButton
	X, Y      int     // cursor position in screen pixels
	WheelX    float64 // EventWheel
	WheelY    float64
	Modifiers KeyModifiers
}

func (e Event) String() string {
	switch e.Type {
	case EventKeyDown, EventKeyUp:
		return fmt.Sprintf("%s(%s)", e.Type, e.Key)
	case EventMouseDown, EventMouseUp:
		return fmt.Sprintf("%s(%d @ %d,%d)", e.Type, e.Button, e.X, e.Y)
	case EventMouseMove:
		return fmt.Sprintf("%s(%d,%d)", e.Type, e.X, e.Y)
	case EventWheel:
		return fmt.Sprintf("%s(%g,%g)", e.Type, e.WheelX, e.WheelY)
	default:
		return e.Type.String()
	}
}

// KeyEvent returns a key event of type t (EventKeyDown or EventKeyUp).
func KeyEvent(t EventType, key ebiten.Key) Event {
	return Event{Type: t, Key: key}
}

// MouseEvent returns a mouse button event of type t at (x, y).
func MouseEvent(t EventType, button MouseButton, x, y int) Event {
	return Event{Type: t, Button: button, X: x, Y: y}
}

// --- Polling ---

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}

// inputPoller translates Ebitengine's polled input state into events. It
// must only be used from Game.Update.
type inputPoller struct {
	keys       []ebiten.Key
	cursorX    int
	cursorY    int
	seenCursor bool
}

// poll appends the events of the current tick to buf.
func (p *inputPoller) poll(buf []Event) []Event {
	if ebiten.IsWindowBeingClosed() {
		buf = append(buf, Event{Type: EventQuit})
	}
	mods := readModifiers()

	p.keys = inpututil.AppendJustPressedKeys(p.keys[:0])
	for _, k := range p.keys {
		buf = append(buf, Event{Type: EventKeyDown, Key: k, Modifiers: mods})
	}
	p.keys = inpututil.AppendJustReleasedKeys(p.keys[:0])
	for _, k := range p.keys {
		buf = append(buf, Event{Type: EventKeyUp, Key: k, Modifiers: mods})
	}

	x, y := ebiten.CursorPosition()
	if p.seenCursor && (x != p.cursorX || y != p.cursorY) {
		buf = append(buf, Event{Type: EventMouseMove, X: x, Y: y, Modifiers: mods})
	}
	p.cursorX, p.cursorY, p.seenCursor = x, y, true

	for b, eb := range ebitenButtons {
		if inpututil.IsMouseButtonJustPressed(eb) {
			buf = append(buf, Event{Type: EventMouseDown, Button: MouseButton(b), X: x, Y: y, Modifiers: mods})
		}
		if inpututil.IsMouseButtonJustReleased(eb) {
			buf = append(buf, Event{Type: EventMouseUp, Button: MouseButton(b), X: x, Y: y, Modifiers: mods})
		}
	}

	if wx, wy := ebiten.Wheel(); wx != 0 || wy != 0 {
		buf = append(buf, Event{Type: EventWheel, X: x, Y: y, WheelX: wx, WheelY: wy, Modifiers: mods})
	}
	return buf
}
