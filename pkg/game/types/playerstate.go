package types

import "github.com/cbodonnell/netmove/pkg/kinematic"

// PlayerState is the authoritative record of one connected player.
type PlayerState struct {
	// ClientID is the connection id of the owning client
	ClientID   uint32            `json:"clientID"`
	Position   kinematic.Vector3 `json:"position"`
	Name       string            `json:"name"`
	PowerLevel uint8             `json:"powerLevel"`
}

// NewPlayerState returns a player at the origin with an empty name.
func NewPlayerState(clientID uint32) *PlayerState {
	return &PlayerState{
		ClientID: clientID,
	}
}

// Equal returns true if the player state is equal to the other player state
func (p *PlayerState) Equal(other *PlayerState) bool {
	return p.ClientID == other.ClientID &&
		p.Position == other.Position &&
		p.Name == other.Name &&
		p.PowerLevel == other.PowerLevel
}

// Copy returns a copy of the player state
func (p *PlayerState) Copy() *PlayerState {
	return &PlayerState{
		ClientID:   p.ClientID,
		Position:   p.Position,
		Name:       p.Name,
		PowerLevel: p.PowerLevel,
	}
}

// ApplyMove moves the player by speed * deltaTime along (right, 0, forward).
func (p *PlayerState) ApplyMove(forward, right, speed, deltaTime float64) {
	velocity := kinematic.Vector3{X: right, Y: 0, Z: forward}.Scale(speed)
	p.Position = p.Position.Add(velocity.Displacement(deltaTime))
}
