package input

import (
	clientinput "github.com/cbodonnell/netmove/pkg/client/input"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Keyboard reads movement keys from ebiten. W/A/S/D and the arrow keys are
// equivalent.
type Keyboard struct{}

var _ clientinput.KeyState = Keyboard{}

var keyBindings = map[clientinput.Key][]ebiten.Key{
	clientinput.KeyForward: {ebiten.KeyW, ebiten.KeyUp},
	clientinput.KeyBack:    {ebiten.KeyS, ebiten.KeyDown},
	clientinput.KeyLeft:    {ebiten.KeyA, ebiten.KeyLeft},
	clientinput.KeyRight:   {ebiten.KeyD, ebiten.KeyRight},
}

func (Keyboard) IsPressed(key clientinput.Key) bool {
	for _, k := range keyBindings[key] {
		if ebiten.IsKeyPressed(k) {
			return true
		}
	}
	return false
}

// IsPositiveJustPressed returns a boolean value indicating whether the generic positive input is just pressed.
// This is used to handle both keyboard and mouse inputs.
func IsPositiveJustPressed() bool {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return true
	}
	return inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeySpace)
}

// IsNegativeJustPressed returns a boolean value indicating whether the generic negative input is just pressed.
func IsNegativeJustPressed() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyEscape)
}

func IsDebugJustPressed() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyF3)
}
