package replica

import (
	"fmt"

	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/messages"
	"github.com/cbodonnell/netmove/pkg/queue"
)

// ProcessPendingServerMessages drains q and applies every snapshot in it.
// It returns the number of snapshots applied.
func (m *Mirror) ProcessPendingServerMessages(q queue.Queue) (int, error) {
	serverMessages, err := q.ReadAllMessages()
	if err != nil {
		return 0, fmt.Errorf("failed to read server messages: %v", err)
	}

	applied := 0
	for _, item := range serverMessages {
		message, ok := item.(*messages.Message)
		if !ok {
			log.Error("Failed to cast message to messages.Message")
			continue
		}

		switch message.Type {
		case messages.MessageTypeServerSnapshot:
			snapshot, err := messages.DeserializeServerSnapshot(message.Payload)
			if err != nil {
				log.Error("Failed to deserialize server snapshot: %v", err)
				continue
			}
			if m.Apply(snapshot) {
				applied++
			} else {
				log.Trace("Ignoring stale snapshot for tick %d", snapshot.Tick)
			}
		default:
			log.Warn("Unhandled server message type: %s", message.Type)
		}
	}

	return applied, nil
}
