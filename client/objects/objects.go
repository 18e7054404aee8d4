package objects

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// GameObject is the highest level interface for game related types.
type GameObject interface {
	GetID() string
	GetZIndex() int
	Update() error
	Draw(screen *ebiten.Image)
}

// Camera maps Y-up world coordinates onto the screen.
type Camera struct {
	// Scale is the number of pixels per world unit.
	Scale float64
	// CenterX and CenterY are the world coordinates shown at the screen centre.
	CenterX float64
	CenterY float64
}

// ToScreen converts a world position to screen pixels.
func (c Camera) ToScreen(screen *ebiten.Image, x, y float64) (float64, float64) {
	sx := float64(screen.Bounds().Dx())/2 + (x-c.CenterX)*c.Scale
	sy := float64(screen.Bounds().Dy())/2 - (y-c.CenterY)*c.Scale
	return sx, sy
}
