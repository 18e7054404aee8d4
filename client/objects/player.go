package objects

import (
	"fmt"
	"image/color"

	"github.com/cbodonnell/netmove/client/fonts"
	"github.com/cbodonnell/netmove/pkg/client/replica"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
)

const (
	// PlayerRadius is the drawn radius of a player in world units
	PlayerRadius = 1.0
)

var (
	localPlayerColor  = color.RGBA{80, 200, 120, 255}
	remotePlayerColor = color.RGBA{90, 140, 230, 255}
)

// Player draws one replicated player, viewed from above: world X is drawn
// to the right and world Z upwards.
type Player struct {
	id            string
	clientID      uint32
	isLocalPlayer bool
	mirror        *replica.Mirror
	camera        *Camera
}

var _ GameObject = &Player{}

func PlayerObjectID(clientID uint32) string {
	return fmt.Sprintf("player-%d", clientID)
}

func NewPlayer(clientID uint32, isLocalPlayer bool, mirror *replica.Mirror, camera *Camera) *Player {
	return &Player{
		id:            PlayerObjectID(clientID),
		clientID:      clientID,
		isLocalPlayer: isLocalPlayer,
		mirror:        mirror,
		camera:        camera,
	}
}

func (o *Player) GetID() string {
	return o.id
}

func (o *Player) GetZIndex() int {
	if o.isLocalPlayer {
		return 30
	}
	return 20
}

func (o *Player) Update() error {
	return nil
}

func (o *Player) Draw(screen *ebiten.Image) {
	state, ok := o.mirror.Player(o.clientID)
	if !ok {
		return
	}

	x, y := o.camera.ToScreen(screen, state.Position.X, state.Position.Z)
	r := float32(PlayerRadius * o.camera.Scale)
	c := remotePlayerColor
	if o.isLocalPlayer {
		c = localPlayerColor
	}
	vector.DrawFilledCircle(screen, float32(x), float32(y), r, c, true)

	// Draw Name
	t := state.Name
	if t == "" {
		t = o.id
	}
	f := fonts.TTFSmallFont
	bounds, _ := font.BoundString(f, t)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(x-float64(bounds.Max.X>>6)/2, y-float64(r)-6)
	op.ColorScale.ScaleWithColor(color.White)
	text.DrawWithOptions(screen, t, f, op)
}
