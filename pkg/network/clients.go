package network

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

const (
	// ClientIDMaxRetries represents the maximum number of retries when generating a unique ID
	ClientIDMaxRetries = 1024
	// ConnectionEventChannelSize represents the size of the connection event channel
	ConnectionEventChannelSize = 1024
)

var (
	ErrServerFull      = errors.New("server full")
	ErrClientNotFound  = errors.New("client not found")
	ErrInvalidProtocol = errors.New("protocol id mismatch")
)

type ClientConnectionType int

const (
	ClientConnectionTypeUDP ClientConnectionType = iota
	ClientConnectionTypeWebSocket
)

func (t ClientConnectionType) String() string {
	switch t {
	case ClientConnectionTypeUDP:
		return "udp"
	case ClientConnectionTypeWebSocket:
		return "ws"
	default:
		return "unknown"
	}
}

// Client represents a connected client
type Client struct {
	ID             uint32
	ConnectionType ClientConnectionType
	UDPAddress     *net.UDPAddr
	WSConn         *websocket.Conn
	ConnectedAt    time.Time
	LastSeen       time.Time
}

func (c *Client) copy() *Client {
	cp := *c
	if c.UDPAddress != nil {
		cp.UDPAddress = &net.UDPAddr{
			IP:   append(net.IP(nil), c.UDPAddress.IP...),
			Port: c.UDPAddress.Port,
			Zone: c.UDPAddress.Zone,
		}
	}
	return &cp
}

// ConnectionEvent represents a client connecting or disconnecting
type ConnectionEvent struct {
	ClientID uint32
	Type     ConnectionEventType
}

type ConnectionEventType int

const (
	ConnectionEventTypeConnect ConnectionEventType = iota
	ConnectionEventTypeDisconnect
)

func (t ConnectionEventType) String() string {
	switch t {
	case ConnectionEventTypeConnect:
		return "connect"
	case ConnectionEventTypeDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// ClientManager manages connected clients
type ClientManager struct {
	clients             map[uint32]*Client
	clientsLock         sync.RWMutex
	maxClients          int
	connectionEventChan chan ConnectionEvent
}

// NewClientManager creates a new ClientManager admitting at most maxClients clients.
func NewClientManager(maxClients int) *ClientManager {
	return &ClientManager{
		clients:             make(map[uint32]*Client),
		maxClients:          maxClients,
		connectionEventChan: make(chan ConnectionEvent, ConnectionEventChannelSize),
	}
}

// GetConnectionEventChan returns a one-way channel for receiving connection events
func (cm *ClientManager) GetConnectionEventChan() <-chan ConnectionEvent {
	return cm.connectionEventChan
}

// GetClients returns a slice with a copy of all connected clients.
func (cm *ClientManager) GetClients() []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client.copy())
	}
	return clients
}

// GetClient returns a copy of a connected client
func (cm *ClientManager) GetClient(clientID uint32) (*Client, error) {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	client, ok := cm.clients[clientID]
	if !ok {
		return nil, ErrClientNotFound
	}
	return client.copy(), nil
}

func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}

func (cm *ClientManager) Exists(clientID uint32) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

// ConnectUDPClient connects the client at addr and returns its ID.
// A client already connected from addr keeps its ID.
func (cm *ClientManager) ConnectUDPClient(addr *net.UDPAddr, now time.Time) (uint32, error) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	if clientID := cm.clientIDByUDPAddress(addr); clientID != 0 {
		cm.clients[clientID].LastSeen = now
		return clientID, nil
	}

	return cm.connect(&Client{
		ConnectionType: ClientConnectionTypeUDP,
		UDPAddress:     addr,
		ConnectedAt:    now,
		LastSeen:       now,
	})
}

// ConnectWSClient connects the client behind a WebSocket connection and returns its ID.
func (cm *ClientManager) ConnectWSClient(conn *websocket.Conn, now time.Time) (uint32, error) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	for _, client := range cm.clients {
		if client.WSConn != nil && client.WSConn == conn {
			client.LastSeen = now
			return client.ID, nil
		}
	}

	return cm.connect(&Client{
		ConnectionType: ClientConnectionTypeWebSocket,
		WSConn:         conn,
		ConnectedAt:    now,
		LastSeen:       now,
	})
}

// connect registers a client and emits a connect event. Callers hold the write lock.
func (cm *ClientManager) connect(client *Client) (uint32, error) {
	if len(cm.clients) >= cm.maxClients {
		return 0, ErrServerFull
	}

	clientID, err := cm.generateUniqueID(ClientIDMaxRetries)
	if err != nil {
		return 0, fmt.Errorf("failed to generate a unique ID: %v", err)
	}
	client.ID = clientID
	cm.clients[clientID] = client

	cm.connectionEventChan <- ConnectionEvent{
		ClientID: clientID,
		Type:     ConnectionEventTypeConnect,
	}

	return clientID, nil
}

// GetClientIDByUDPAddress returns the ID of a client by its UDP address.
// Returns 0 if the client is not found
func (cm *ClientManager) GetClientIDByUDPAddress(addr *net.UDPAddr) uint32 {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return cm.clientIDByUDPAddress(addr)
}

func (cm *ClientManager) clientIDByUDPAddress(addr *net.UDPAddr) uint32 {
	if addr == nil {
		return 0
	}
	key := addr.String()
	for _, client := range cm.clients {
		if client.UDPAddress != nil && client.UDPAddress.String() == key {
			return client.ID
		}
	}
	return 0
}

// Touch records activity from a client
func (cm *ClientManager) Touch(clientID uint32, now time.Time) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	if client, ok := cm.clients[clientID]; ok {
		client.LastSeen = now
	}
}

// DisconnectClient removes a client from the manager and emits a disconnect event.
func (cm *ClientManager) DisconnectClient(clientID uint32) error {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	if _, ok := cm.clients[clientID]; !ok {
		return ErrClientNotFound
	}
	cm.disconnect(clientID)
	return nil
}

func (cm *ClientManager) disconnect(clientID uint32) {
	delete(cm.clients, clientID)
	cm.connectionEventChan <- ConnectionEvent{
		ClientID: clientID,
		Type:     ConnectionEventTypeDisconnect,
	}
}

// ReapIdleClients disconnects every client silent for longer than timeout
// and returns copies of the removed clients.
func (cm *ClientManager) ReapIdleClients(now time.Time, timeout time.Duration) []*Client {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	var reaped []*Client
	for clientID, client := range cm.clients {
		if now.Sub(client.LastSeen) > timeout {
			reaped = append(reaped, client.copy())
			cm.disconnect(clientID)
		}
	}
	return reaped
}

// generateUniqueID generates a unique client ID with a maximum number of retries
// it reads from the clients, so it needs to be locked before calling
func (cm *ClientManager) generateUniqueID(maxRetries int) (uint32, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := rand.Uint32()
		if id == 0 {
			continue
		}
		if _, ok := cm.clients[id]; !ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}
