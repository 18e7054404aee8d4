package game

import (
	"fmt"
	"image/color"

	"github.com/cbodonnell/netmove/client/input"
	"github.com/cbodonnell/netmove/client/objects"
	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/sandbox"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// SandboxGame draws the physics sandbox and steps it once per ebiten tick.
type SandboxGame struct {
	world    *sandbox.World
	root     *objects.SortedZIndexObject
	altitude float64
}

var _ ebiten.Game = &SandboxGame{}

var skyColor = color.RGBA{150, 190, 230, 255}

func NewSandboxGame(world *sandbox.World) (*SandboxGame, error) {
	// frame the whole drop: from below the platform up to the starting height
	camera := &objects.Camera{
		Scale:   float64(DefaultScreenHeight) / 120,
		CenterY: 50,
	}

	root := objects.NewSortedZIndexObject("root")
	if err := root.AddChild(objects.NewGround(world, camera)); err != nil {
		return nil, fmt.Errorf("failed to add ground: %v", err)
	}
	if err := root.AddChild(objects.NewBall(world, camera)); err != nil {
		return nil, fmt.Errorf("failed to add ball: %v", err)
	}

	return &SandboxGame{
		world:    world,
		root:     root,
		altitude: world.Altitude(),
	}, nil
}

func (g *SandboxGame) Update() error {
	if input.IsNegativeJustPressed() {
		return ebiten.Termination
	}

	g.altitude = g.world.Step(1.0 / float64(ebiten.TPS()))
	log.Info("Ball altitude: %f", g.altitude)

	return g.root.Update()
}

func (g *SandboxGame) Draw(screen *ebiten.Image) {
	screen.Fill(skyColor)
	g.root.Draw(screen)
	ebitenutil.DebugPrint(screen, fmt.Sprintf("\n   Altitude: %0.2f", g.altitude))
}

func (g *SandboxGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return DefaultScreenWidth, DefaultScreenHeight
}
