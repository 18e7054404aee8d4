package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/messages"
	servernetwork "github.com/cbodonnell/netmove/pkg/network"
	"nhooyr.io/websocket"
)

// WSClient represents a WebSocket client.
type WSClient struct {
	serverURL string
	conn      *websocket.Conn
	closeOnce sync.Once
}

// NewWSClient creates a new WebSocket client for a server at host:port.
func NewWSClient(serverAddr string) *WSClient {
	return &WSClient{
		serverURL: fmt.Sprintf("ws://%s/ws", serverAddr),
	}
}

// Connect establishes a connection to the WebSocket server.
func (c *WSClient) Connect(ctx context.Context) error {
	log.Info("Connecting to WebSocket server at %s", c.serverURL)
	conn, _, err := websocket.Dial(ctx, c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %v", err)
	}
	c.conn = conn
	return nil
}

// HandleMessages handles incoming messages from the WebSocket server.
func (c *WSClient) HandleMessages(ctx context.Context, handler MessageHandler) error {
	for {
		_, b, err := c.conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || servernetwork.IsWSClosed(err) {
				return nil
			}
			return fmt.Errorf("failed to read WebSocket message: %v", err)
		}

		msg, err := messages.DeserializeMessage(b)
		if err != nil {
			log.Debug("Dropping WebSocket message: %v", err)
			continue
		}
		log.Trace("Received message from WebSocket server of type %s", msg.Type)
		handler(msg)
	}
}

// SendMessage sends a message to the WebSocket server.
func (c *WSClient) SendMessage(ctx context.Context, msg *messages.Message) error {
	if c.conn == nil {
		return fmt.Errorf("WebSocket client is not connected")
	}
	return servernetwork.WriteMessageToWS(ctx, c.conn, msg)
}

// Close closes the WebSocket connection.
func (c *WSClient) Close() error {
	if c.conn == nil {
		return nil
	}
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close(websocket.StatusNormalClosure, "")
	})
	return err
}
