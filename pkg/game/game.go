package game

import (
	"context"
	"math"
	"time"

	"github.com/cbodonnell/netmove/pkg/game/constants"
	"github.com/cbodonnell/netmove/pkg/game/types"
	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/messages"
	"github.com/cbodonnell/netmove/pkg/queue"
	"github.com/cbodonnell/netmove/pkg/state"
	"github.com/cbodonnell/netmove/pkg/workers"
)

type GameManager struct {
	clientMessageQueue queue.Queue
	serverEventQueue   queue.Queue
	stateManager       state.StateManager
	serverMessageChan  chan<- workers.ServerMessage
	gameState          *types.GameState
	gameLoopInterval   time.Duration
	lastTickTime       time.Time
}

// maxTickDeltaIntervals caps the integration step after a stall at this many
// tick intervals.
const maxTickDeltaIntervals = 4

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	ClientMessageQueue queue.Queue
	ServerEventQueue   queue.Queue
	// StateManager is optional and receives a copy of the state after every tick
	StateManager      state.StateManager
	ServerMessageChan chan<- workers.ServerMessage
	GameState         *types.GameState
	TickRate          int
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	tickRate := opts.TickRate
	if tickRate <= 0 {
		tickRate = constants.DefaultTickRate
	}
	gameState := opts.GameState
	if gameState == nil {
		gameState = types.NewGameState()
	}
	return &GameManager{
		clientMessageQueue: opts.ClientMessageQueue,
		serverEventQueue:   opts.ServerEventQueue,
		stateManager:       opts.StateManager,
		serverMessageChan:  opts.ServerMessageChan,
		gameState:          gameState,
		gameLoopInterval:   time.Second / time.Duration(tickRate),
	}
}

// Start runs the game loop until ctx is cancelled.
func (gm *GameManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(gm.gameLoopInterval)
	defer ticker.Stop()

	log.Info("Game loop running every %s", gm.gameLoopInterval)
	for {
		select {
		case <-ctx.Done():
			log.Info("Game loop stopped after %d ticks", gm.gameState.Tick)
			return nil
		case t := <-ticker.C:
			gm.Tick(ctx, t)
		}
	}
}

// Tick runs one iteration of the game loop. It never performs network I/O.
func (gm *GameManager) Tick(ctx context.Context, t time.Time) {
	gm.gameState.Tick++
	gm.gameState.Timestamp = t.UnixMilli()
	gm.processConnectionEvents()
	gm.processClientMessages(gm.tickDelta(t).Seconds())
	gm.publishGameState(ctx)
	gm.broadcastGameState()
}

// tickDelta returns the time since the previous tick, which every intent of
// this tick is integrated over. The first tick uses the nominal interval.
func (gm *GameManager) tickDelta(t time.Time) time.Duration {
	last := gm.lastTickTime
	gm.lastTickTime = t
	if last.IsZero() || !t.After(last) {
		return gm.gameLoopInterval
	}
	elapsed := t.Sub(last)
	if limit := maxTickDeltaIntervals * gm.gameLoopInterval; elapsed > limit {
		return limit
	}
	return elapsed
}

// processConnectionEvents processes all pending connection events in arrival order.
func (gm *GameManager) processConnectionEvents() {
	pendingEvents, err := gm.serverEventQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read connection events: %v", err)
		return
	}
	for _, item := range pendingEvents {
		switch event := item.(type) {
		case *types.ConnectPlayerEvent:
			if _, ok := gm.gameState.Players[event.ClientID]; ok {
				log.Warn("Client %d is already in the game state", event.ClientID)
				continue
			}
			gm.gameState.AddPlayer(event.ClientID, types.NewPlayerState(event.ClientID))
			log.Debug("Player %d spawned", event.ClientID)
		case *types.DisconnectPlayerEvent:
			if _, ok := gm.gameState.Players[event.ClientID]; !ok {
				log.Debug("Client %d is not in the game state", event.ClientID)
				continue
			}
			gm.gameState.RemovePlayer(event.ClientID)
			log.Debug("Player %d despawned", event.ClientID)
		default:
			log.Error("Unhandled connection event type: %T", event)
		}
	}
}

// processClientMessages processes all pending client messages in the queue
// and integrates movement intents over deltaTime.
func (gm *GameManager) processClientMessages(deltaTime float64) {
	pendingMessages, err := gm.clientMessageQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read client messages: %v", err)
		return
	}
	for _, item := range pendingMessages {
		message, ok := item.(*messages.Message)
		if !ok {
			log.Error("Failed to cast message to messages.Message")
			continue
		}

		switch message.Type {
		case messages.MessageTypeClientMove:
			move, err := messages.DeserializeClientMove(message.Payload)
			if err != nil {
				log.Warn("Failed to deserialize move from client %d: %v", message.ClientID, err)
				continue
			}
			playerState, ok := gm.gameState.Players[message.ClientID]
			if !ok {
				log.Trace("Client %d is not in the game state", message.ClientID)
				continue
			}
			forward, okForward := clampInput(move.Forward)
			right, okRight := clampInput(move.Right)
			if !okForward || !okRight {
				log.Warn("Client %d sent a non-finite move", message.ClientID)
				continue
			}
			playerState.ApplyMove(forward, right, constants.PlayerSpeed, deltaTime)
		default:
			log.Error("Unhandled message type: %s", message.Type)
		}
	}
}

// clampInput bounds an input axis to [-PlayerMaxInput, PlayerMaxInput].
// It reports false for NaN and infinities.
func clampInput(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return math.Max(-constants.PlayerMaxInput, math.Min(constants.PlayerMaxInput, v)), true
}

// publishGameState hands a copy of the game state to the state manager.
func (gm *GameManager) publishGameState(ctx context.Context) {
	if gm.stateManager == nil {
		return
	}
	if err := gm.stateManager.Set(ctx, gm.gameState.Copy()); err != nil {
		log.Error("Failed to publish game state: %v", err)
	}
}

// broadcastGameState queues a snapshot for every connected client.
func (gm *GameManager) broadcastGameState() {
	if gm.serverMessageChan == nil {
		return
	}
	msg := workers.ServerMessage{
		Type:    messages.MessageTypeServerSnapshot,
		Message: ServerSnapshotFromState(gm.gameState),
	}
	select {
	case gm.serverMessageChan <- msg:
	default:
		log.Warn("Server message channel full, dropping snapshot for tick %d", gm.gameState.Tick)
	}
}
