package sandbox

import (
	"github.com/cbodonnell/netmove/pkg/game/constants"
	"github.com/cbodonnell/netmove/pkg/kinematic"
	"github.com/solarlune/resolv"
)

const (
	TagGround = "ground"
	TagBall   = "ball"
)

// Space layout. The world is Y-up and centred on x = 0; resolv cells start at
// zero, so world coordinates are shifted by (spaceOffsetX, spaceOffsetY).
// spaceOffsetY puts the top of the ground on a cell boundary.
const (
	spaceWidth   = 240
	spaceHeight  = 140
	spaceCell    = 4
	spaceOffsetX = 120.0
	spaceOffsetY = 22.0
)

// Ball is the dynamic body of the sandbox.
type Ball struct {
	Object   *resolv.Object
	Velocity kinematic.Vector
	AtRest   bool
}

// World is a ball dropped onto a fixed platform.
type World struct {
	space  *resolv.Space
	ground *resolv.Object
	ball   *Ball
	steps  int
}

func NewWorld() *World {
	space := resolv.NewSpace(spaceWidth, spaceHeight, spaceCell, spaceCell)

	ground := resolv.NewObject(
		-constants.GroundWidth/2+spaceOffsetX,
		-constants.GroundHeight/2+spaceOffsetY,
		constants.GroundWidth,
		constants.GroundHeight,
		TagGround,
	)
	space.Add(ground)

	size := constants.BallRadius * 2
	ballObject := resolv.NewObject(
		constants.BallStartingX-constants.BallRadius+spaceOffsetX,
		constants.BallStartingY-constants.BallRadius+spaceOffsetY,
		size,
		size,
		TagBall,
	)
	space.Add(ballObject)

	return &World{
		space:  space,
		ground: ground,
		ball: &Ball{
			Object: ballObject,
		},
	}
}

// Step advances the world by deltaTime seconds and returns the ball altitude.
func (w *World) Step(deltaTime float64) float64 {
	w.steps++
	b := w.ball
	if b.AtRest || deltaTime <= 0 {
		return w.Altitude()
	}

	gravity := kinematic.Gravity * constants.BallGravityMultiplier
	dy := kinematic.Displacement(b.Velocity.Y, deltaTime, gravity)
	b.Velocity.Y = kinematic.FinalVelocity(b.Velocity.Y, deltaTime, gravity)

	// Check looks at least one unit ahead, so a contact further away than dy
	// is not reached during this step.
	y := b.Object.Position.Y + dy
	if collision := b.Object.Check(0, dy, TagGround); collision != nil {
		ground := collision.Objects[0]
		contact := collision.ContactWithObject(ground).Y
		if dy <= contact && contact <= 0 {
			// snap exactly onto the surface
			y = ground.Position.Y + ground.Size.Y
			b.Velocity.Y = -b.Velocity.Y * constants.BallRestitution
			if b.Velocity.Y < constants.BallRestVelocity {
				b.Velocity.Y = 0
				b.AtRest = true
			}
		}
	}

	b.Object.Position.Y = y
	b.Object.Update()

	return w.Altitude()
}

// Altitude is the world-space height of the ball's centre.
func (w *World) Altitude() float64 {
	return w.ball.Object.Position.Y + constants.BallRadius - spaceOffsetY
}

// GroundTop is the world-space height of the platform surface.
func (w *World) GroundTop() float64 {
	return w.ground.Position.Y + w.ground.Size.Y - spaceOffsetY
}

func (w *World) Ball() *Ball {
	return w.ball
}

func (w *World) Steps() int {
	return w.steps
}

// ToWorld converts a space position to world coordinates.
func ToWorld(x, y float64) (float64, float64) {
	return x - spaceOffsetX, y - spaceOffsetY
}
