package input

import "github.com/cbodonnell/netmove/pkg/messages"

// Key is a logical movement key.
type Key int

const (
	KeyForward Key = iota
	KeyBack
	KeyLeft
	KeyRight
)

func (k Key) String() string {
	switch k {
	case KeyForward:
		return "forward"
	case KeyBack:
		return "back"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	default:
		return "unknown"
	}
}

// KeyState reports which logical keys are held this frame.
type KeyState interface {
	IsPressed(key Key) bool
}

// ReadMove maps held keys to a movement intent. Opposite keys do not cancel:
// back overrides forward and right overrides left. It returns false when no
// direction key is held.
func ReadMove(keys KeyState) (*messages.ClientMove, bool) {
	move := &messages.ClientMove{}
	pressed := false

	if keys.IsPressed(KeyForward) {
		move.Forward = 1
		pressed = true
	}
	if keys.IsPressed(KeyBack) {
		move.Forward = -1
		pressed = true
	}
	if keys.IsPressed(KeyLeft) {
		move.Right = -1
		pressed = true
	}
	if keys.IsPressed(KeyRight) {
		move.Right = 1
		pressed = true
	}

	if !pressed {
		return nil, false
	}
	return move, true
}

// KeySet is a KeyState backed by a set, used by scripted clients.
type KeySet map[Key]bool

func (s KeySet) IsPressed(key Key) bool {
	return s[key]
}
