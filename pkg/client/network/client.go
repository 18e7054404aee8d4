package network

import (
	"context"

	"github.com/cbodonnell/netmove/pkg/messages"
)

type MessageHandler func(msg *messages.Message)

// Client is one transport to the server.
type Client interface {
	Connect(ctx context.Context) error
	// HandleMessages blocks, passing every decoded message to handler, until
	// ctx is cancelled or the transport is closed.
	HandleMessages(ctx context.Context, handler MessageHandler) error
	SendMessage(ctx context.Context, msg *messages.Message) error
	Close() error
}
