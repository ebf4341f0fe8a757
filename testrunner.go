package engy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
)

// scriptStep represents a single action in an input script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	Key    string  `json:"key,omitempty"`
	X      int     `json:"x,omitempty"`
	Y      int     `json:"y,omitempty"`
	FromX  int     `json:"fromX,omitempty"`
	FromY  int     `json:"fromY,omitempty"`
	ToX    int     `json:"toX,omitempty"`
	ToY    int     `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	WheelY float64 `json:"wheelY,omitempty"`

	key ebiten.Key
}

// scriptFile is the top-level JSON structure of an input script.
type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

// InputScript sequences injected input, screenshots and a final quit across
// frames, for automated runs without a human at the keyboard. Attach it to an
// App with SetInputScript.
//
// Recognised actions: key, click, drag, wheel, wait, screenshot, quit.
type InputScript struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// ParseInputScript parses a JSON input script.
func ParseInputScript(data []byte) (*InputScript, error) {
	var file scriptFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse input script: %w", err)
	}
	if len(file.Steps) == 0 {
		return nil, errors.New("parse input script: no steps")
	}
	for i := range file.Steps {
		st := &file.Steps[i]
		switch st.Action {
		case "key":
			if err := st.key.UnmarshalText([]byte(st.Key)); err != nil {
				return nil, fmt.Errorf("parse input script: step %d: key %q: %w", i, st.Key, err)
			}
		case "click", "drag", "wheel", "wait", "screenshot", "quit":
		default:
			return nil, fmt.Errorf("parse input script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &InputScript{steps: file.Steps}, nil
}

// LoadInputScript reads and parses the input script at path.
func LoadInputScript(path string) (*InputScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load input script: %w", err)
	}
	return ParseInputScript(data)
}

// SetInputScript attaches an input script to the app. The script advances
// once per frame, before input is dispatched.
func (a *App) SetInputScript(script *InputScript) {
	a.script = script
}

// Done reports whether all steps in the script have been executed.
func (r *InputScript) Done() bool {
	return r.done
}

// step advances the script by one frame. Called from App.Step.
func (r *InputScript) step(a *App) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(a.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		a.Screenshot(st.Label)
	case "key":
		a.InjectKey(st.key)
	case "click":
		a.InjectClick(st.X, st.Y)
	case "drag":
		a.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	case "wheel":
		a.InjectEvent(Event{Type: EventWheel, X: st.X, Y: st.Y, WheelY: st.WheelY})
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "quit":
		a.InjectEvent(Event{Type: EventQuit})
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(a.injectQueue) == 0 {
		r.done = true
	}
}
