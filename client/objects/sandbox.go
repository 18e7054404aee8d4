package objects

import (
	"image/color"

	"github.com/cbodonnell/netmove/pkg/game/constants"
	"github.com/cbodonnell/netmove/pkg/sandbox"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	groundColor = color.RGBA{110, 90, 70, 255}
	ballColor   = color.RGBA{230, 80, 60, 255}
)

// Ground draws the sandbox platform.
type Ground struct {
	world  *sandbox.World
	camera *Camera
}

func NewGround(world *sandbox.World, camera *Camera) *Ground {
	return &Ground{world: world, camera: camera}
}

func (o *Ground) GetID() string {
	return "ground"
}

func (o *Ground) GetZIndex() int {
	return 0
}

func (o *Ground) Update() error {
	return nil
}

func (o *Ground) Draw(screen *ebiten.Image) {
	x, y := o.camera.ToScreen(screen, -constants.GroundWidth/2, o.world.GroundTop())
	w := float32(constants.GroundWidth * o.camera.Scale)
	h := float32(constants.GroundHeight * o.camera.Scale)
	vector.DrawFilledRect(screen, float32(x), float32(y), w, h, groundColor, false)
}

// Ball draws the sandbox ball. The world is stepped by the owner, not here.
type Ball struct {
	world  *sandbox.World
	camera *Camera
}

func NewBall(world *sandbox.World, camera *Camera) *Ball {
	return &Ball{world: world, camera: camera}
}

func (o *Ball) GetID() string {
	return "ball"
}

func (o *Ball) GetZIndex() int {
	return 10
}

func (o *Ball) Update() error {
	return nil
}

func (o *Ball) Draw(screen *ebiten.Image) {
	x, y := o.camera.ToScreen(screen, constants.BallStartingX, o.world.Altitude())
	r := float32(constants.BallRadius * o.camera.Scale)
	vector.DrawFilledCircle(screen, float32(x), float32(y), r, ballColor, true)
}
