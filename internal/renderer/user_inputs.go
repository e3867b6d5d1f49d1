package renderer

import (
	"sync"
	"time"

	"nnpong/internal/pong"
)

type UiAction rune

const (
	Unknown    UiAction = iota
	Quit       UiAction = 81 // 'Q'
	Up         UiAction = 87 // 'W'
	Down       UiAction = 83 // 'S'
	UpArrow    UiAction = 8593
	DownArrow  UiAction = 8595
	ReleaseKey UiAction = 32 // ' '
	ResetScore UiAction = 82 // 'R'
	Swap1      UiAction = 49 // '1'
	Swap2      UiAction = 50 // '2'
)

func ProcessInput(rawInput rune) (action UiAction) {
	inputVal := int(rawInput)
	// Convert to UpperCase
	if inputVal >= 97 && inputVal <= 122 {
		inputVal = inputVal - 32
	}
	return UiAction(inputVal)
}

// Decode turns one read from a raw terminal into a UiAction. Arrow keys
// arrive as ESC [ A / ESC [ B.
func Decode(buf []byte) UiAction {
	if len(buf) == 0 {
		return Unknown
	}
	if buf[0] == 27 {
		if len(buf) < 3 || buf[1] != '[' {
			return Unknown
		}
		switch buf[2] {
		case 'A':
			return UpArrow
		case 'B':
			return DownArrow
		}
		return Unknown
	}
	return ProcessInput(rune(buf[0]))
}

// HoldFor is how long a key press keeps a paddle moving. Terminals report
// presses but no releases, so a press acts as a short hold.
const HoldFor = 150 * time.Millisecond

// Keyboard collects key presses for both sides: W/S drive the left paddle,
// the arrows drive the right one. It is safe to press from one goroutine
// while the match reads from another. Match commands (R, 1, 2) are queued
// on Commands.
type Keyboard struct {
	mu       sync.Mutex
	held     [2]pong.Action
	pressed  [2]time.Time
	now      func() time.Time
	commands chan UiAction
}

func NewKeyboard() *Keyboard {
	return &Keyboard{
		held:     [2]pong.Action{pong.Hold, pong.Hold},
		now:      time.Now,
		commands: make(chan UiAction, 8),
	}
}

// Commands delivers ResetScore, Swap1 and Swap2 presses. Presses are
// dropped while the queue is full.
func (k *Keyboard) Commands() <-chan UiAction {
	return k.commands
}

// Press records a key and reports whether it asked to quit.
func (k *Keyboard) Press(a UiAction) bool {
	side, action := 0, pong.Hold
	switch a {
	case Quit:
		return true
	case Up:
		side, action = 1, pong.Down
	case Down:
		side, action = 1, pong.Up
	case UpArrow:
		side, action = 2, pong.Down
	case DownArrow:
		side, action = 2, pong.Up
	case ResetScore, Swap1, Swap2:
		select {
		case k.commands <- a:
		default:
		}
		return false
	case ReleaseKey:
		k.mu.Lock()
		k.held = [2]pong.Action{pong.Hold, pong.Hold}
		k.mu.Unlock()
		return false
	default:
		return false
	}

	k.mu.Lock()
	k.held[side-1] = action
	k.pressed[side-1] = k.now()
	k.mu.Unlock()
	return false
}

func (k *Keyboard) Held(side int) pong.Action {
	if side != 1 && side != 2 {
		return pong.Hold
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.now().Sub(k.pressed[side-1]) > HoldFor {
		return pong.Hold
	}
	return k.held[side-1]
}
