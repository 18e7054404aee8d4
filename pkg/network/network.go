package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/messages"
	"github.com/cbodonnell/netmove/pkg/queue"
	"nhooyr.io/websocket"
)

const (
	// DefaultClientTimeout is how long a silent client stays connected
	DefaultClientTimeout = 5 * time.Second
	// wsWriteTimeout bounds a single WebSocket write
	wsWriteTimeout = time.Second
)

type NetworkManager struct {
	ClientManager *ClientManager
	MessageQueue  queue.Queue
	UDPServer     *UDPServer
	WSServer      *WSServer

	serverID      string
	protocolID    uint64
	tickRate      int
	clientTimeout time.Duration
}

type NewNetworkManagerOptions struct {
	ClientManager *ClientManager
	MessageQueue  queue.Queue
	ServerID      string
	ProtocolID    uint64
	TickRate      int
	ClientTimeout time.Duration
	UDPPort       int
	// WSPort of 0 disables the WebSocket transport
	WSPort int
}

func NewNetworkManager(options NewNetworkManagerOptions) *NetworkManager {
	clientTimeout := options.ClientTimeout
	if clientTimeout <= 0 {
		clientTimeout = DefaultClientTimeout
	}

	n := &NetworkManager{
		ClientManager: options.ClientManager,
		MessageQueue:  options.MessageQueue,
		UDPServer: NewUDPServer(NewUDPServerOptions{
			Port: options.UDPPort,
		}),
		serverID:      options.ServerID,
		protocolID:    options.ProtocolID,
		tickRate:      options.TickRate,
		clientTimeout: clientTimeout,
	}
	if options.WSPort != 0 {
		n.WSServer = NewWSServer(NewWSServerOptions{
			Port: options.WSPort,
		})
	}
	return n
}

// Start binds every transport and serves them in the background until ctx is cancelled.
func (n *NetworkManager) Start(ctx context.Context) error {
	if err := n.UDPServer.Listen(); err != nil {
		return fmt.Errorf("failed to start UDP server: %v", err)
	}
	if n.WSServer != nil {
		if err := n.WSServer.Listen(); err != nil {
			return fmt.Errorf("failed to start WebSocket server: %v", err)
		}
		go n.WSServer.Start(ctx, n.handleWSConnection)
	}
	go n.UDPServer.Start(ctx, n.handleUDPMessage)
	go n.reapIdleClients(ctx)
	return nil
}

func (n *NetworkManager) reapIdleClients(ctx context.Context) {
	ticker := time.NewTicker(n.clientTimeout / 5)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, client := range n.ClientManager.ReapIdleClients(now, n.clientTimeout) {
				log.Info("Client %d timed out", client.ID)
				if client.WSConn != nil {
					client.WSConn.Close(websocket.StatusPolicyViolation, "timed out")
				}
			}
		}
	}
}

func (n *NetworkManager) handleUDPMessage(ctx context.Context, addr *net.UDPAddr, message *messages.Message) {
	if message.Type == messages.MessageTypeClientHello {
		reply := n.handleClientHello(message, func() (uint32, error) {
			return n.ClientManager.ConnectUDPClient(addr, time.Now())
		})
		if err := WriteMessageToUDP(n.UDPServer.GetUDPConn(), addr, reply); err != nil {
			log.Error("Failed to answer hello from %s: %v", addr.String(), err)
		}
		return
	}

	clientID := n.ClientManager.GetClientIDByUDPAddress(addr)
	if clientID == 0 {
		log.Trace("Received %s from unknown address %s, ignoring", message.Type, addr.String())
		return
	}

	n.handleClientMessage(ctx, clientID, message)
}

func (n *NetworkManager) handleWSConnection(ctx context.Context, conn *websocket.Conn) {
	var clientID uint32 // set after hello
	defer func() {
		if clientID != 0 {
			if err := n.ClientManager.DisconnectClient(clientID); err == nil {
				log.Info("Client %d disconnected", clientID)
			}
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, b, err := conn.Read(ctx)
		if err != nil {
			if !IsWSClosed(err) {
				log.Error("Error reading WebSocket message: %v", err)
			}
			return
		}

		message, err := messages.DeserializeMessage(b)
		if err != nil {
			log.Debug("Dropping WebSocket message: %v", err)
			continue
		}

		if message.Type == messages.MessageTypeClientHello {
			reply := n.handleClientHello(message, func() (uint32, error) {
				return n.ClientManager.ConnectWSClient(conn, time.Now())
			})
			if reply.Type == messages.MessageTypeServerAccept {
				accept := &messages.ServerAccept{}
				if err := json.Unmarshal(reply.Payload, accept); err == nil {
					clientID = accept.ClientID
				}
			}
			if err := n.writeWS(ctx, conn, reply); err != nil {
				log.Error("Failed to answer WebSocket hello: %v", err)
				return
			}
			continue
		}

		if clientID == 0 {
			log.Trace("Received %s before hello on WebSocket, ignoring", message.Type)
			continue
		}

		n.handleClientMessage(ctx, clientID, message)
		if message.Type == messages.MessageTypeClientGoodbye {
			clientID = 0
			return
		}
	}
}

// handleClientHello admits or rejects a hello and returns the reply.
func (n *NetworkManager) handleClientHello(message *messages.Message, connect func() (uint32, error)) *messages.Message {
	clientID, err := n.admit(message, connect)
	if err != nil {
		log.Warn("Rejected client: %v", err)
		reply, merr := messages.NewJSONMessage(messages.MessageTypeServerReject, &messages.ServerReject{
			Reason: err.Error(),
		})
		if merr != nil {
			log.Error("Failed to build server reject: %v", merr)
			return &messages.Message{Type: messages.MessageTypeServerReject}
		}
		return reply
	}

	log.Info("Client %d connected", clientID)
	reply, err := messages.NewJSONMessage(messages.MessageTypeServerAccept, &messages.ServerAccept{
		ClientID: clientID,
		ServerID: n.serverID,
		TickRate: n.tickRate,
	})
	if err != nil {
		log.Error("Failed to build server accept: %v", err)
		return &messages.Message{Type: messages.MessageTypeServerReject}
	}
	return reply
}

func (n *NetworkManager) admit(message *messages.Message, connect func() (uint32, error)) (uint32, error) {
	hello := &messages.ClientHello{}
	if err := json.Unmarshal(message.Payload, hello); err != nil {
		return 0, fmt.Errorf("failed to unmarshal client hello: %v", err)
	}
	if hello.ProtocolID != n.protocolID {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrInvalidProtocol, hello.ProtocolID, n.protocolID)
	}
	return connect()
}

// handleClientMessage handles a message from a connected client on any transport.
func (n *NetworkManager) handleClientMessage(ctx context.Context, clientID uint32, message *messages.Message) {
	n.ClientManager.Touch(clientID, time.Now())
	message.ClientID = clientID

	switch message.Type {
	case messages.MessageTypeClientGoodbye:
		if err := n.ClientManager.DisconnectClient(clientID); err != nil {
			if !errors.Is(err, ErrClientNotFound) {
				log.Error("Failed to disconnect client %d: %v", clientID, err)
			}
			return
		}
		log.Info("Client %d disconnected", clientID)
	case messages.MessageTypeClientPing:
		pong := &messages.Message{
			Type: messages.MessageTypeServerPong,
		}
		if err := n.SendMessageToClient(ctx, clientID, pong); err != nil {
			log.Error("Failed to send pong to client %d: %v", clientID, err)
		}
	default:
		if err := n.MessageQueue.Enqueue(message); err != nil {
			log.Error("Failed to enqueue message: %v", err)
		}
	}
}

// SendMessageToAll sends msg to every connected client over its own transport.
func (n *NetworkManager) SendMessageToAll(ctx context.Context, msg *messages.Message) {
	for _, client := range n.ClientManager.GetClients() {
		if err := n.sendMessageToClient(ctx, client, msg); err != nil {
			log.Error("Failed to send message to client %d: %v", client.ID, err)
		}
	}
}

func (n *NetworkManager) SendMessageToClient(ctx context.Context, clientID uint32, msg *messages.Message) error {
	client, err := n.ClientManager.GetClient(clientID)
	if err != nil {
		return fmt.Errorf("failed to get client %d: %w", clientID, err)
	}

	if err := n.sendMessageToClient(ctx, client, msg); err != nil {
		return fmt.Errorf("failed to send message to client %d: %v", clientID, err)
	}

	return nil
}

func (n *NetworkManager) sendMessageToClient(ctx context.Context, client *Client, msg *messages.Message) error {
	switch client.ConnectionType {
	case ClientConnectionTypeUDP:
		if client.UDPAddress == nil {
			return fmt.Errorf("client %d does not have a UDP address", client.ID)
		}
		if err := WriteMessageToUDP(n.UDPServer.GetUDPConn(), client.UDPAddress, msg); err != nil {
			return fmt.Errorf("failed to write message to UDP connection for client %d: %v", client.ID, err)
		}
	case ClientConnectionTypeWebSocket:
		if err := n.writeWS(ctx, client.WSConn, msg); err != nil {
			return fmt.Errorf("failed to write message to WebSocket connection for client %d: %v", client.ID, err)
		}
	default:
		return fmt.Errorf("unknown connection type for client %d: %v", client.ID, client.ConnectionType)
	}

	return nil
}

func (n *NetworkManager) writeWS(ctx context.Context, conn *websocket.Conn, msg *messages.Message) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return WriteMessageToWS(ctx, conn, msg)
}
