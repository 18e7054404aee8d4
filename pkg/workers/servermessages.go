package workers

import (
	"context"
	"fmt"

	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/messages"
)

// MessageSender delivers envelopes to connected clients.
type MessageSender interface {
	SendMessageToAll(ctx context.Context, msg *messages.Message)
	SendMessageToClient(ctx context.Context, clientID uint32, msg *messages.Message) error
}

type ServerMessageWorker struct {
	sender            MessageSender
	serverMessageChan <-chan ServerMessage
}

// ServerMessage is an outbound message produced by the game loop.
// A ClientID of 0 addresses every connected client.
type ServerMessage struct {
	ClientID uint32
	Type     messages.MessageType
	Message  interface{}
}

type NewServerMessageWorkerOptions struct {
	Sender            MessageSender
	ServerMessageChan <-chan ServerMessage
}

func NewServerMessageWorker(opts NewServerMessageWorkerOptions) *ServerMessageWorker {
	return &ServerMessageWorker{
		sender:            opts.Sender,
		serverMessageChan: opts.ServerMessageChan,
	}
}

func (w *ServerMessageWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.serverMessageChan:
			switch msg.Type {
			case messages.MessageTypeServerSnapshot:
				if err := w.handleServerSnapshot(ctx, msg); err != nil {
					log.Error("Failed to handle server snapshot message: %v", err)
				}
			default:
				log.Error("Unknown server message type: %v", msg.Type)
			}
		}
	}
}

func (w *ServerMessageWorker) handleServerSnapshot(ctx context.Context, msg ServerMessage) error {
	snapshot, ok := msg.Message.(*messages.ServerSnapshot)
	if !ok {
		return fmt.Errorf("failed to cast server snapshot message")
	}

	message, err := messages.NewServerSnapshotMessage(snapshot)
	if err != nil {
		return fmt.Errorf("failed to build snapshot message: %v", err)
	}

	return w.send(ctx, msg.ClientID, message)
}

func (w *ServerMessageWorker) send(ctx context.Context, clientID uint32, message *messages.Message) error {
	if clientID == 0 {
		w.sender.SendMessageToAll(ctx, message)
		return nil
	}
	if err := w.sender.SendMessageToClient(ctx, clientID, message); err != nil {
		return fmt.Errorf("failed to send %s to client %d: %v", message.Type, clientID, err)
	}
	return nil
}
