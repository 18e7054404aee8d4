package state

import (
	"context"
	"fmt"
	"sync"

	gametypes "github.com/cbodonnell/netmove/pkg/game/types"
)

type InMemoryStateManager struct {
	lock      sync.RWMutex
	gameState *gametypes.GameState
}

func NewInMemoryStateManager() *InMemoryStateManager {
	return &InMemoryStateManager{
		gameState: gametypes.NewGameState(),
	}
}

func (m *InMemoryStateManager) Get(ctx context.Context) (*gametypes.GameState, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.gameState.Copy(), nil
}

func (m *InMemoryStateManager) Set(ctx context.Context, gameState *gametypes.GameState) error {
	if gameState == nil {
		return fmt.Errorf("game state is nil")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.gameState = gameState
	return nil
}
