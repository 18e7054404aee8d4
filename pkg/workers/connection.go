package workers

import (
	"context"
	"time"

	gametypes "github.com/cbodonnell/netmove/pkg/game/types"
	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/network"
	"github.com/cbodonnell/netmove/pkg/queue"
)

// EnqueueRetryInterval is how long the worker waits before retrying a full
// server event queue.
const EnqueueRetryInterval = 10 * time.Millisecond

type ConnectionEventWorker struct {
	connectionEventChan <-chan network.ConnectionEvent
	serverEventQueue    queue.Queue
}

type NewConnectionEventWorkerOptions struct {
	ConnectionEventChan <-chan network.ConnectionEvent
	ServerEventQueue    queue.Queue
}

// NewConnectionEventWorker creates a new ConnectionEventWorker.
// The worker processes client events like connect and disconnect
// and writes server events to a queue for the game loop to process.
func NewConnectionEventWorker(opts NewConnectionEventWorkerOptions) *ConnectionEventWorker {
	return &ConnectionEventWorker{
		connectionEventChan: opts.ConnectionEventChan,
		serverEventQueue:    opts.ServerEventQueue,
	}
}

func (w *ConnectionEventWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.connectionEventChan:
			w.handleConnectionEvent(ctx, event)
		}
	}
}

// handleConnectionEvent blocks until the event is enqueued or ctx is done.
// Dropping a disconnect would leave a player behind in the game state.
func (w *ConnectionEventWorker) handleConnectionEvent(ctx context.Context, event network.ConnectionEvent) {
	var serverEvent interface{}
	switch event.Type {
	case network.ConnectionEventTypeConnect:
		serverEvent = &gametypes.ConnectPlayerEvent{ClientID: event.ClientID}
	case network.ConnectionEventTypeDisconnect:
		serverEvent = &gametypes.DisconnectPlayerEvent{ClientID: event.ClientID}
	default:
		log.Error("Unknown connection event type: %v", event.Type)
		return
	}

	for {
		err := w.serverEventQueue.Enqueue(serverEvent)
		if err == nil {
			return
		}
		log.Warn("Failed to enqueue %s event for client %d, retrying: %v", event.Type, event.ClientID, err)

		select {
		case <-ctx.Done():
			log.Error("Dropped %s event for client %d: %v", event.Type, event.ClientID, ctx.Err())
			return
		case <-time.After(EnqueueRetryInterval):
		}
	}
}
