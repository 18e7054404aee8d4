package objects

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// SortedZIndexObject is a GameObject that maintains a sorted list of child objects by z-index.
type SortedZIndexObject struct {
	id     string
	zIndex int

	children map[string]GameObject
	// sorted is a list of child objects sorted by z-index.
	sorted []GameObject
}

var _ GameObject = &SortedZIndexObject{}

func NewSortedZIndexObject(id string) *SortedZIndexObject {
	return &SortedZIndexObject{
		id:       id,
		children: make(map[string]GameObject),
		sorted:   make([]GameObject, 0),
	}
}

func (o *SortedZIndexObject) GetID() string {
	return o.id
}

func (o *SortedZIndexObject) GetZIndex() int {
	return o.zIndex
}

func (o *SortedZIndexObject) AddChild(child GameObject) error {
	id := child.GetID()
	if _, ok := o.children[id]; ok {
		return fmt.Errorf("child object with id %s already exists", id)
	}
	o.children[id] = child
	for i, obj := range o.sorted {
		if obj.GetZIndex() > child.GetZIndex() {
			o.sorted = append(o.sorted[:i], append([]GameObject{child}, o.sorted[i:]...)...)
			return nil
		}
	}
	o.sorted = append(o.sorted, child)
	return nil
}

func (o *SortedZIndexObject) RemoveChild(id string) error {
	if _, ok := o.children[id]; !ok {
		return fmt.Errorf("child object with id %s does not exist", id)
	}
	delete(o.children, id)
	for i, obj := range o.sorted {
		if obj.GetID() == id {
			o.sorted = append(o.sorted[:i], o.sorted[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("child not found in sorted list")
}

func (o *SortedZIndexObject) GetChild(id string) (GameObject, bool) {
	child, ok := o.children[id]
	return child, ok
}

func (o *SortedZIndexObject) GetChildren() []GameObject {
	return o.sorted
}

func (o *SortedZIndexObject) Update() error {
	for _, child := range o.sorted {
		if err := child.Update(); err != nil {
			return fmt.Errorf("failed to update %s: %v", child.GetID(), err)
		}
	}
	return nil
}

func (o *SortedZIndexObject) Draw(screen *ebiten.Image) {
	for _, child := range o.sorted {
		child.Draw(screen)
	}
}
