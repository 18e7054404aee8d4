package objects

import (
	"image/color"
	"strings"

	"github.com/cbodonnell/netmove/client/fonts"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"
)

// TextOverlayObject draws centred text over everything else.
type TextOverlayObject struct {
	id   string
	text string
}

func NewTextOverlayObject(id string, text string) *TextOverlayObject {
	return &TextOverlayObject{
		id:   id,
		text: text,
	}
}

func (o *TextOverlayObject) GetID() string {
	return o.id
}

func (o *TextOverlayObject) GetZIndex() int {
	return 100
}

func (o *TextOverlayObject) SetText(text string) {
	o.text = text
}

func (o *TextOverlayObject) Update() error {
	return nil
}

func (o *TextOverlayObject) Draw(screen *ebiten.Image) {
	if o.text == "" {
		return
	}
	t := strings.ToUpper(o.text)
	f := fonts.MPlusNormalFont
	bounds, _ := font.BoundString(f, t)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(screen.Bounds().Dx())/2-float64(bounds.Max.X>>6)/2, float64(screen.Bounds().Dy())/2-float64(bounds.Max.Y>>6)/2)
	op.ColorScale.ScaleWithColor(color.White)
	text.DrawWithOptions(screen, t, f, op)
}
