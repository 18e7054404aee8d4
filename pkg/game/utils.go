package game

import (
	"github.com/cbodonnell/netmove/pkg/game/types"
	"github.com/cbodonnell/netmove/pkg/messages"
)

// ServerSnapshotFromState builds the replicated view of the state, players ordered by id.
func ServerSnapshotFromState(state *types.GameState) *messages.ServerSnapshot {
	players := make([]*messages.PlayerStateUpdate, 0, len(state.Players))
	for _, playerState := range state.SortedPlayers() {
		players = append(players, PlayerStateUpdateFromState(playerState))
	}

	return &messages.ServerSnapshot{
		Tick:      state.Tick,
		Timestamp: state.Timestamp,
		Players:   players,
	}
}

func PlayerStateUpdateFromState(playerState *types.PlayerState) *messages.PlayerStateUpdate {
	return &messages.PlayerStateUpdate{
		ClientID:   playerState.ClientID,
		Position:   playerState.Position,
		Name:       playerState.Name,
		PowerLevel: playerState.PowerLevel,
	}
}
