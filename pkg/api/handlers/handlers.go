package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	gametypes "github.com/cbodonnell/netmove/pkg/game/types"
	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/state"
	"github.com/gorilla/mux"
)

// ServerStatus describes the running server process.
type ServerStatus struct {
	ServerID  string `json:"serverID"`
	Version   string `json:"version"`
	Tick      uint64 `json:"tick"`
	Timestamp int64  `json:"timestamp"`
	Players   int    `json:"players"`
}

func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}
}

func HandleStatus(stateManager state.StateManager, serverID, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameState, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get game state: %v", err)
			http.Error(w, "Failed to get game state", http.StatusInternalServerError)
			return
		}

		writeJSON(w, &ServerStatus{
			ServerID:  serverID,
			Version:   version,
			Tick:      gameState.Tick,
			Timestamp: gameState.Timestamp,
			Players:   len(gameState.Players),
		})
	}
}

func HandleListPlayers(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameState, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get game state: %v", err)
			http.Error(w, "Failed to get game state", http.StatusInternalServerError)
			return
		}

		players := gameState.SortedPlayers()
		if players == nil {
			players = []*gametypes.PlayerState{}
		}
		writeJSON(w, players)
	}
}

func HandleGetPlayer(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := strconv.ParseUint(mux.Vars(r)["clientID"], 10, 32)
		if err != nil {
			http.Error(w, "Invalid client ID", http.StatusBadRequest)
			return
		}

		gameState, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get game state: %v", err)
			http.Error(w, "Failed to get game state", http.StatusInternalServerError)
			return
		}

		player, ok := gameState.Players[uint32(clientID)]
		if !ok {
			http.Error(w, "Player not found", http.StatusNotFound)
			return
		}
		writeJSON(w, player)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
