package game

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	mocks "github.com/cbodonnell/netmove/mocks/github.com/cbodonnell/netmove/pkg/queue"
	"github.com/cbodonnell/netmove/pkg/game/types"
	"github.com/cbodonnell/netmove/pkg/kinematic"
	"github.com/cbodonnell/netmove/pkg/messages"
	"github.com/cbodonnell/netmove/pkg/state"
	"github.com/cbodonnell/netmove/pkg/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moveMessage(t *testing.T, clientID uint32, forward, right float64) *messages.Message {
	t.Helper()
	msg, err := messages.NewClientMoveMessage(&messages.ClientMove{Forward: forward, Right: right})
	require.NoError(t, err)
	msg.ClientID = clientID
	return msg
}

func gameStateWithPlayers(ids ...uint32) *types.GameState {
	gameState := types.NewGameState()
	for _, id := range ids {
		gameState.AddPlayer(id, types.NewPlayerState(id))
	}
	return gameState
}

func TestGameManager_processClientMessages(t *testing.T) {
	tests := []struct {
		name      string
		gameState *types.GameState
		messages  func(t *testing.T) []interface{}
		deltaTime float64
		want      map[uint32]kinematic.Vector3
	}{
		{
			name:      "forward intent",
			gameState: gameStateWithPlayers(7),
			messages: func(t *testing.T) []interface{} {
				return []interface{}{moveMessage(t, 7, 1, 0)}
			},
			deltaTime: 0.1,
			want:      map[uint32]kinematic.Vector3{7: {X: 0, Y: 0, Z: 2.5}},
		},
		{
			name:      "strafe back left",
			gameState: gameStateWithPlayers(7),
			messages: func(t *testing.T) []interface{} {
				return []interface{}{moveMessage(t, 7, -1, -1)}
			},
			deltaTime: 0.1,
			want:      map[uint32]kinematic.Vector3{7: {X: -2.5, Y: 0, Z: -2.5}},
		},
		{
			name:      "intents for one player add up",
			gameState: gameStateWithPlayers(7, 8),
			messages: func(t *testing.T) []interface{} {
				return []interface{}{
					moveMessage(t, 7, 1, 0),
					moveMessage(t, 8, 0, 1),
					moveMessage(t, 7, 1, 0),
				}
			},
			deltaTime: 0.1,
			want: map[uint32]kinematic.Vector3{
				7: {Z: 5},
				8: {X: 2.5},
			},
		},
		{
			name:      "unknown client is dropped",
			gameState: gameStateWithPlayers(7),
			messages: func(t *testing.T) []interface{} {
				return []interface{}{moveMessage(t, 99, 1, 0)}
			},
			deltaTime: 0.1,
			want:      map[uint32]kinematic.Vector3{7: {}},
		},
		{
			name:      "input is clamped",
			gameState: gameStateWithPlayers(7),
			messages: func(t *testing.T) []interface{} {
				return []interface{}{moveMessage(t, 7, 10, -0.5)}
			},
			deltaTime: 0.1,
			want:      map[uint32]kinematic.Vector3{7: {X: -1.25, Z: 2.5}},
		},
		{
			name:      "non-finite input is dropped",
			gameState: gameStateWithPlayers(7),
			messages: func(t *testing.T) []interface{} {
				return []interface{}{
					moveMessage(t, 7, math.NaN(), 0),
					moveMessage(t, 7, 0, math.Inf(1)),
				}
			},
			deltaTime: 0.1,
			want:      map[uint32]kinematic.Vector3{7: {}},
		},
		{
			name:      "other messages are skipped",
			gameState: gameStateWithPlayers(7),
			messages: func(t *testing.T) []interface{} {
				return []interface{}{
					&messages.Message{ClientID: 7, Type: messages.MessageTypeClientPing},
					&messages.Message{ClientID: 7, Type: messages.MessageTypeClientMove, Payload: []byte{1}},
					"not a message",
				}
			},
			deltaTime: 0.1,
			want:      map[uint32]kinematic.Vector3{7: {}},
		},
		{
			name:      "no messages",
			gameState: gameStateWithPlayers(7),
			messages: func(t *testing.T) []interface{} {
				return []interface{}{}
			},
			deltaTime: 0.1,
			want:      map[uint32]kinematic.Vector3{7: {}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockQueue := mocks.NewQueue(t)
			mockQueue.EXPECT().ReadAllMessages().Return(tt.messages(t), nil).Once()

			gm := &GameManager{
				clientMessageQueue: mockQueue,
				gameState:          tt.gameState,
			}
			gm.processClientMessages(tt.deltaTime)

			require.Len(t, gm.gameState.Players, len(tt.want))
			for id, want := range tt.want {
				got := gm.gameState.Players[id]
				require.NotNil(t, got, "player %d", id)
				assert.InDelta(t, want.X, got.Position.X, 1e-9, "player %d x", id)
				assert.InDelta(t, want.Y, got.Position.Y, 1e-9, "player %d y", id)
				assert.InDelta(t, want.Z, got.Position.Z, 1e-9, "player %d z", id)
			}
		})
	}
}

func TestGameManager_processConnectionEvents(t *testing.T) {
	tests := []struct {
		name      string
		gameState *types.GameState
		events    []interface{}
		want      []uint32
	}{
		{
			name:      "connect spawns at origin",
			gameState: types.NewGameState(),
			events:    []interface{}{&types.ConnectPlayerEvent{ClientID: 7}},
			want:      []uint32{7},
		},
		{
			name:      "disconnect despawns",
			gameState: gameStateWithPlayers(7, 8),
			events:    []interface{}{&types.DisconnectPlayerEvent{ClientID: 7}},
			want:      []uint32{8},
		},
		{
			name:      "duplicate connect is ignored",
			gameState: gameStateWithPlayers(7),
			events:    []interface{}{&types.ConnectPlayerEvent{ClientID: 7}},
			want:      []uint32{7},
		},
		{
			name:      "unknown disconnect is a no-op",
			gameState: gameStateWithPlayers(7),
			events:    []interface{}{&types.DisconnectPlayerEvent{ClientID: 9}},
			want:      []uint32{7},
		},
		{
			name:      "events apply in arrival order",
			gameState: types.NewGameState(),
			events: []interface{}{
				&types.ConnectPlayerEvent{ClientID: 7},
				&types.DisconnectPlayerEvent{ClientID: 7},
				&types.ConnectPlayerEvent{ClientID: 8},
				"unknown event",
			},
			want: []uint32{8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockQueue := mocks.NewQueue(t)
			mockQueue.EXPECT().ReadAllMessages().Return(tt.events, nil).Once()

			gm := &GameManager{
				serverEventQueue: mockQueue,
				gameState:        tt.gameState,
			}
			gm.processConnectionEvents()

			got := make([]uint32, 0, len(gm.gameState.Players))
			for _, p := range gm.gameState.SortedPlayers() {
				got = append(got, p.ClientID)
				assert.Equal(t, p.ClientID, gm.gameState.Players[p.ClientID].ClientID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGameManager_processConnectionEventsKeepsOneRecordPerClient(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	mockQueue := mocks.NewQueue(t)
	gm := &GameManager{
		serverEventQueue: mockQueue,
		gameState:        types.NewGameState(),
	}

	connected := make(map[uint32]bool)
	for batch := 0; batch < 50; batch++ {
		events := make([]interface{}, 0, 8)
		n := rng.Intn(8)
		for i := 0; i < n; i++ {
			id := uint32(rng.Intn(6) + 1)
			if connected[id] {
				events = append(events, &types.DisconnectPlayerEvent{ClientID: id})
				delete(connected, id)
			} else {
				events = append(events, &types.ConnectPlayerEvent{ClientID: id})
				connected[id] = true
			}
		}
		mockQueue.EXPECT().ReadAllMessages().Return(events, nil).Once()
		gm.processConnectionEvents()

		require.Len(t, gm.gameState.Players, len(connected), "batch %d", batch)
		for id := range connected {
			assert.Contains(t, gm.gameState.Players, id, "batch %d", batch)
		}
	}
}

func TestGameManager_Tick(t *testing.T) {
	const ticks = 5
	const playerID = 7

	serverEventQueue := mocks.NewQueue(t)
	clientMessageQueue := mocks.NewQueue(t)
	serverMessages := make(chan workers.ServerMessage, ticks)
	stateManager := state.NewInMemoryStateManager()

	gm := NewGameManager(NewGameManagerOptions{
		ClientMessageQueue: clientMessageQueue,
		ServerEventQueue:   serverEventQueue,
		StateManager:       stateManager,
		ServerMessageChan:  serverMessages,
		TickRate:           10,
	})

	serverEventQueue.EXPECT().ReadAllMessages().Return([]interface{}{&types.ConnectPlayerEvent{ClientID: playerID}}, nil).Once()
	serverEventQueue.EXPECT().ReadAllMessages().Return([]interface{}{}, nil).Times(ticks - 1)
	clientMessageQueue.EXPECT().ReadAllMessages().RunAndReturn(func() ([]interface{}, error) {
		return []interface{}{moveMessage(t, playerID, 1, 0)}, nil
	}).Times(ticks)

	start := time.UnixMilli(1700000000000)
	for i := 0; i < ticks; i++ {
		gm.Tick(context.Background(), start.Add(time.Duration(i)*100*time.Millisecond))
	}

	player := gm.gameState.Players[playerID]
	require.NotNil(t, player)
	assert.InDelta(t, ticks*25*0.1, player.Position.Z, 1e-9)
	assert.Zero(t, player.Position.X)
	assert.Zero(t, player.Position.Y)
	assert.Equal(t, uint64(ticks), gm.gameState.Tick)

	published, err := stateManager.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(ticks), published.Tick)
	assert.True(t, published.Players[playerID].Equal(player))

	require.Len(t, serverMessages, ticks)
	var last workers.ServerMessage
	for i := 0; i < ticks; i++ {
		last = <-serverMessages
	}
	snapshot, ok := last.Message.(*messages.ServerSnapshot)
	require.True(t, ok)
	assert.Equal(t, uint64(ticks), snapshot.Tick)
	assert.Equal(t, start.Add(400*time.Millisecond).UnixMilli(), snapshot.Timestamp)
	require.Len(t, snapshot.Players, 1)
	assert.InDelta(t, player.Position.Z, snapshot.Players[0].Position.Z, 1e-9)
}

func TestGameManager_TickDropsSnapshotWhenChannelFull(t *testing.T) {
	serverEventQueue := mocks.NewQueue(t)
	clientMessageQueue := mocks.NewQueue(t)
	serverMessages := make(chan workers.ServerMessage, 1)

	gm := NewGameManager(NewGameManagerOptions{
		ClientMessageQueue: clientMessageQueue,
		ServerEventQueue:   serverEventQueue,
		ServerMessageChan:  serverMessages,
	})
	serverEventQueue.EXPECT().ReadAllMessages().Return(nil, nil).Times(2)
	clientMessageQueue.EXPECT().ReadAllMessages().Return(nil, nil).Times(2)

	done := make(chan struct{})
	go func() {
		gm.Tick(context.Background(), time.Now())
		gm.Tick(context.Background(), time.Now())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tick blocked on a full server message channel")
	}
	assert.Len(t, serverMessages, 1)
}

func TestServerSnapshotFromState(t *testing.T) {
	gameState := gameStateWithPlayers(9, 3, 5)
	gameState.Tick = 12
	gameState.Players[5].Position = kinematic.Vector3{X: 1, Z: 2}

	snapshot := ServerSnapshotFromState(gameState)
	assert.Equal(t, uint64(12), snapshot.Tick)
	require.Len(t, snapshot.Players, 3)
	assert.Equal(t, uint32(3), snapshot.Players[0].ClientID)
	assert.Equal(t, uint32(5), snapshot.Players[1].ClientID)
	assert.Equal(t, kinematic.Vector3{X: 1, Z: 2}, snapshot.Players[1].Position)
	assert.Equal(t, uint32(9), snapshot.Players[2].ClientID)
}

func TestGameManager_TickIntegratesElapsedTime(t *testing.T) {
	const playerID = 7

	tests := []struct {
		name string
		// offsets of each tick from the first one
		offsets []time.Duration
		wantZ   float64
	}{
		{name: "steady", offsets: []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}, wantZ: 3 * 25 * 0.1},
		{name: "skipped tick", offsets: []time.Duration{0, 100 * time.Millisecond, 300 * time.Millisecond}, wantZ: 25 * (0.1 + 0.1 + 0.2)},
		{name: "stall is capped", offsets: []time.Duration{0, 10 * time.Second}, wantZ: 25 * (0.1 + 0.4)},
		{name: "clock going backwards", offsets: []time.Duration{0, -time.Second}, wantZ: 25 * (0.1 + 0.1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serverEventQueue := mocks.NewQueue(t)
			clientMessageQueue := mocks.NewQueue(t)
			serverMessages := make(chan workers.ServerMessage, len(tt.offsets))

			gm := NewGameManager(NewGameManagerOptions{
				ClientMessageQueue: clientMessageQueue,
				ServerEventQueue:   serverEventQueue,
				ServerMessageChan:  serverMessages,
				GameState:          gameStateWithPlayers(playerID),
				TickRate:           10,
			})
			serverEventQueue.EXPECT().ReadAllMessages().Return(nil, nil).Times(len(tt.offsets))
			clientMessageQueue.EXPECT().ReadAllMessages().RunAndReturn(func() ([]interface{}, error) {
				return []interface{}{moveMessage(t, playerID, 1, 0)}, nil
			}).Times(len(tt.offsets))

			start := time.UnixMilli(1700000000000)
			for _, offset := range tt.offsets {
				gm.Tick(context.Background(), start.Add(offset))
			}

			assert.InDelta(t, tt.wantZ, gm.gameState.Players[playerID].Position.Z, 1e-9)
		})
	}
}
