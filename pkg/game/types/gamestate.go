package types

import "sort"

type GameState struct {
	// Tick is the number of the server tick that produced the state
	Tick uint64
	// Timestamp is the time at which the game state was generated
	Timestamp int64
	// Players maps client IDs to player states
	Players map[uint32]*PlayerState
}

func NewGameState() *GameState {
	return &GameState{
		Players: make(map[uint32]*PlayerState),
	}
}

func (g *GameState) Copy() *GameState {
	newGameState := &GameState{
		Tick:      g.Tick,
		Timestamp: g.Timestamp,
		Players:   make(map[uint32]*PlayerState, len(g.Players)),
	}
	for id, player := range g.Players {
		newGameState.Players[id] = player.Copy()
	}
	return newGameState
}

func (g *GameState) AddPlayer(id uint32, state *PlayerState) {
	g.Players[id] = state
}

func (g *GameState) RemovePlayer(id uint32) {
	delete(g.Players, id)
}

// SortedPlayers returns the players ordered by client ID.
func (g *GameState) SortedPlayers() []*PlayerState {
	players := make([]*PlayerState, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].ClientID < players[j].ClientID
	})
	return players
}
