package replica

import (
	"sort"
	"sync"

	"github.com/cbodonnell/netmove/pkg/kinematic"
	"github.com/cbodonnell/netmove/pkg/messages"
)

// Player is the client-side copy of a replicated player.
type Player struct {
	ClientID   uint32
	Position   kinematic.Vector3
	Name       string
	PowerLevel uint8
}

// Mirror holds the last applied snapshot. Records seen for the first time
// fire OnSpawn once; records that vanish fire OnDespawn.
type Mirror struct {
	mu       sync.RWMutex
	players  map[uint32]*Player
	lastTick uint64
	applied  bool

	OnSpawn   func(p *Player)
	OnDespawn func(clientID uint32)
}

func NewMirror() *Mirror {
	return &Mirror{
		players: make(map[uint32]*Player),
	}
}

// Apply updates the mirror from a snapshot and reports whether it was applied.
// Snapshots not newer than the last applied one are ignored.
func (m *Mirror) Apply(snapshot *messages.ServerSnapshot) bool {
	m.mu.Lock()
	if m.applied && snapshot.Tick <= m.lastTick {
		m.mu.Unlock()
		return false
	}
	m.applied = true
	m.lastTick = snapshot.Tick

	var spawned []*Player
	present := make(map[uint32]struct{}, len(snapshot.Players))
	for _, update := range snapshot.Players {
		present[update.ClientID] = struct{}{}
		player, ok := m.players[update.ClientID]
		if !ok {
			player = &Player{ClientID: update.ClientID}
			m.players[update.ClientID] = player
			spawned = append(spawned, player)
		}
		player.Position = update.Position
		player.Name = update.Name
		player.PowerLevel = update.PowerLevel
	}

	var despawned []uint32
	for clientID := range m.players {
		if _, ok := present[clientID]; !ok {
			delete(m.players, clientID)
			despawned = append(despawned, clientID)
		}
	}
	sort.Slice(despawned, func(i, j int) bool { return despawned[i] < despawned[j] })

	spawnedCopies := make([]*Player, 0, len(spawned))
	for _, p := range spawned {
		cp := *p
		spawnedCopies = append(spawnedCopies, &cp)
	}
	m.mu.Unlock()

	// callbacks run without the lock so they may read the mirror
	if m.OnSpawn != nil {
		for _, p := range spawnedCopies {
			m.OnSpawn(p)
		}
	}
	if m.OnDespawn != nil {
		for _, clientID := range despawned {
			m.OnDespawn(clientID)
		}
	}
	return true
}

// Player returns a copy of one record.
func (m *Mirror) Player(clientID uint32) (Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[clientID]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Players returns copies of all records ordered by client ID.
func (m *Mirror) Players() []Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	players := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, *p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].ClientID < players[j].ClientID
	})
	return players
}

// LastTick returns the tick of the last applied snapshot.
func (m *Mirror) LastTick() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastTick
}

// Reset forgets every record without firing callbacks.
func (m *Mirror) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players = make(map[uint32]*Player)
	m.lastTick = 0
	m.applied = false
}
