package network

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/messages"
	"github.com/cbodonnell/netmove/pkg/queue"
)

const (
	TransportUDP       = "udp"
	TransportWebSocket = "ws"

	DefaultConnectTimeout = 5 * time.Second
	DefaultPingInterval   = time.Second
	// DefaultServerTimeout should exceed the server's client timeout
	DefaultServerTimeout = 5 * time.Second
	// goodbyeTimeout bounds the best-effort goodbye on Stop
	goodbyeTimeout = 500 * time.Millisecond
)

// NetworkManager owns the connection to the server.
type NetworkManager struct {
	serverMessageQueue queue.Queue
	client             Client
	clientErrChan      chan error
	handshakeChan      chan *messages.Message
	cancelClientCtx    context.CancelFunc
	clientWaitGroup    *sync.WaitGroup
	protocolID         uint64
	connectTimeout     time.Duration
	pingInterval       time.Duration
	serverTimeout      time.Duration

	sessionMutex sync.Mutex
	clientID     uint32
	serverID     string
	tickRate     int

	pingMutex    sync.Mutex
	lastPingSent time.Time
	ping         float64
	rtts         rttWindow
	lastHeard    time.Time
}

type NewNetworkManagerOptions struct {
	ServerMessageQueue queue.Queue
	ServerAddress      string
	// Transport is TransportUDP or TransportWebSocket
	Transport      string
	ProtocolID     uint64
	ConnectTimeout time.Duration
	PingInterval   time.Duration
	// ServerTimeout is how long the session may go without any message from
	// the server before ClientErrChan reports ErrServerTimeout.
	ServerTimeout time.Duration
}

// NewNetworkManager creates a new network manager.
func NewNetworkManager(opts NewNetworkManagerOptions) (*NetworkManager, error) {
	var client Client
	switch opts.Transport {
	case TransportUDP, "":
		udpClient, err := NewUDPClient(opts.ServerAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to create UDP client: %v", err)
		}
		client = udpClient
	case TransportWebSocket:
		client = NewWSClient(opts.ServerAddress)
	default:
		return nil, fmt.Errorf("unknown transport: %s", opts.Transport)
	}

	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	pingInterval := opts.PingInterval
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	serverTimeout := opts.ServerTimeout
	if serverTimeout <= 0 {
		serverTimeout = DefaultServerTimeout
	}

	return &NetworkManager{
		serverMessageQueue: opts.ServerMessageQueue,
		client:             client,
		clientErrChan:      make(chan error, 1),
		handshakeChan:      make(chan *messages.Message, 1),
		clientWaitGroup:    &sync.WaitGroup{},
		protocolID:         opts.ProtocolID,
		connectTimeout:     connectTimeout,
		pingInterval:       pingInterval,
		serverTimeout:      serverTimeout,
	}, nil
}

// Start connects to the server and waits for it to accept the hello.
func (m *NetworkManager) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancelClientCtx = cancel

	if err := m.client.Connect(ctx); err != nil {
		m.cancelClientCtx = nil
		cancel()
		return fmt.Errorf("failed to connect: %v", err)
	}

	m.clientWaitGroup.Add(1)
	go func(ctx context.Context) {
		defer m.clientWaitGroup.Done()
		if err := m.client.HandleMessages(ctx, m.handleMessage); err != nil {
			select {
			case m.clientErrChan <- err:
			default:
			}
		}
	}(ctx)

	if err := m.handshake(ctx); err != nil {
		m.shutdown()
		return err
	}

	m.clientWaitGroup.Add(1)
	go func(ctx context.Context) {
		defer m.clientWaitGroup.Done()
		m.keepAlive(ctx)
	}(ctx)

	return nil
}

func (m *NetworkManager) handshake(ctx context.Context) error {
	hello, err := messages.NewJSONMessage(messages.MessageTypeClientHello, &messages.ClientHello{
		ProtocolID: m.protocolID,
	})
	if err != nil {
		return fmt.Errorf("failed to build client hello: %v", err)
	}

	timeout := time.NewTimer(m.connectTimeout)
	defer timeout.Stop()
	// datagrams can be lost, so the hello is repeated until answered
	resend := time.NewTicker(m.connectTimeout / 5)
	defer resend.Stop()

	if err := m.client.SendMessage(ctx, hello); err != nil {
		return fmt.Errorf("failed to send client hello: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-m.clientErrChan:
			return fmt.Errorf("connection failed during handshake: %v", err)
		case <-timeout.C:
			return &ErrConnectTimeout{}
		case <-resend.C:
			if err := m.client.SendMessage(ctx, hello); err != nil {
				log.Warn("Failed to resend client hello: %v", err)
			}
		case reply := <-m.handshakeChan:
			switch reply.Type {
			case messages.MessageTypeServerAccept:
				accept := &messages.ServerAccept{}
				if err := json.Unmarshal(reply.Payload, accept); err != nil {
					return fmt.Errorf("failed to unmarshal server accept: %v", err)
				}
				m.setSession(accept)
				log.Info("Connected to server %s with client ID %d", accept.ServerID, accept.ClientID)
				return nil
			default:
				reject := &messages.ServerReject{}
				if err := json.Unmarshal(reply.Payload, reject); err != nil {
					return fmt.Errorf("failed to unmarshal server reject: %v", err)
				}
				return &ErrConnectionRejected{Reason: reject.Reason}
			}
		}
	}
}

func (m *NetworkManager) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.pingMutex.Lock()
			silence := now.Sub(m.lastHeard)
			m.lastPingSent = now
			m.pingMutex.Unlock()
			if silence > m.serverTimeout {
				log.Warn("No message from server for %v", silence)
				select {
				case m.clientErrChan <- &ErrServerTimeout{Silence: silence}:
				default:
				}
				return
			}
			if err := m.client.SendMessage(ctx, &messages.Message{Type: messages.MessageTypeClientPing}); err != nil {
				log.Error("Failed to send ping: %v", err)
			}
		}
	}
}

func (m *NetworkManager) handleMessage(msg *messages.Message) {
	m.heard(time.Now())
	switch msg.Type {
	case messages.MessageTypeServerAccept, messages.MessageTypeServerReject:
		select {
		case m.handshakeChan <- msg:
		default:
			log.Trace("Ignoring repeated %s", msg.Type)
		}
	case messages.MessageTypeServerPong:
		m.recordPong(time.Now())
	case messages.MessageTypeServerSnapshot:
		if err := m.serverMessageQueue.Enqueue(msg); err != nil {
			log.Error("Failed to enqueue message: %v", err)
		}
	default:
		log.Warn("Received unexpected message type from server: %s", msg.Type)
	}
}

func (m *NetworkManager) recordPong(now time.Time) {
	m.pingMutex.Lock()
	defer m.pingMutex.Unlock()
	if m.lastPingSent.IsZero() {
		return
	}
	m.rtts.Add(now.Sub(m.lastPingSent).Milliseconds())
	m.ping = m.rtts.Ping()
	log.Trace("Ping: %.1fms", m.ping)
}

func (m *NetworkManager) heard(now time.Time) {
	m.pingMutex.Lock()
	m.lastHeard = now
	m.pingMutex.Unlock()
}

func (m *NetworkManager) setSession(accept *messages.ServerAccept) {
	m.sessionMutex.Lock()
	defer m.sessionMutex.Unlock()
	m.clientID = accept.ClientID
	m.serverID = accept.ServerID
	m.tickRate = accept.TickRate
}

// SendMove sends a movement intent. Delivery is not guaranteed.
func (m *NetworkManager) SendMove(ctx context.Context, move *messages.ClientMove) error {
	msg, err := messages.NewClientMoveMessage(move)
	if err != nil {
		return fmt.Errorf("failed to build client move: %v", err)
	}
	if err := m.client.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to send client move: %v", err)
	}
	return nil
}

// Stop says goodbye, closes the transport and clears the server message queue.
func (m *NetworkManager) Stop() error {
	if m.cancelClientCtx == nil {
		log.Warn("Network manager already stopped")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), goodbyeTimeout)
	defer cancel()
	if err := m.client.SendMessage(ctx, &messages.Message{Type: messages.MessageTypeClientGoodbye}); err != nil {
		log.Warn("Failed to send goodbye: %v", err)
	}

	m.shutdown()
	if err := m.serverMessageQueue.ClearQueue(); err != nil {
		return fmt.Errorf("failed to clear server message queue: %v", err)
	}

	log.Info("Network manager stopped")
	return nil
}

func (m *NetworkManager) shutdown() {
	m.cancelClientCtx()
	if err := m.client.Close(); err != nil {
		log.Warn("Failed to close client: %v", err)
	}

	log.Debug("Waiting for clients to stop")
	m.clientWaitGroup.Wait()

	m.sessionMutex.Lock()
	m.clientID = 0
	m.sessionMutex.Unlock()
	m.cancelClientCtx = nil
}

func (m *NetworkManager) ServerMessageQueue() queue.Queue {
	return m.serverMessageQueue
}

// ClientErrChan reports a transport that stopped with an error.
func (m *NetworkManager) ClientErrChan() <-chan error {
	return m.clientErrChan
}

func (m *NetworkManager) ClientID() uint32 {
	m.sessionMutex.Lock()
	defer m.sessionMutex.Unlock()
	return m.clientID
}

func (m *NetworkManager) ServerID() string {
	m.sessionMutex.Lock()
	defer m.sessionMutex.Unlock()
	return m.serverID
}

func (m *NetworkManager) TickRate() int {
	m.sessionMutex.Lock()
	defer m.sessionMutex.Unlock()
	return m.tickRate
}

// Ping returns the smoothed round trip time in milliseconds.
func (m *NetworkManager) Ping() float64 {
	m.pingMutex.Lock()
	defer m.pingMutex.Unlock()
	return m.ping
}
