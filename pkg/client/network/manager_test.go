package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/cbodonnell/netmove/pkg/kinematic"
	"github.com/cbodonnell/netmove/pkg/messages"
	servernetwork "github.com/cbodonnell/netmove/pkg/network"
	"github.com/cbodonnell/netmove/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	manager      *servernetwork.NetworkManager
	messageQueue *queue.InMemoryQueue
}

func startTestServer(t *testing.T, protocolID uint64, withWS bool) *testServer {
	t.Helper()
	messageQueue := queue.NewInMemoryQueue(16)
	manager := servernetwork.NewNetworkManager(servernetwork.NewNetworkManagerOptions{
		ClientManager: servernetwork.NewClientManager(4),
		MessageQueue:  messageQueue,
		ServerID:      "test-server",
		ProtocolID:    protocolID,
		TickRate:      60,
		ClientTimeout: time.Minute,
	})
	if withWS {
		manager.WSServer = servernetwork.NewWSServer(servernetwork.NewWSServerOptions{Port: 0})
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, manager.Start(ctx))
	return &testServer{manager: manager, messageQueue: messageQueue}
}

func (s *testServer) udpAddress() string {
	return fmt.Sprintf("127.0.0.1:%d", s.manager.UDPServer.Addr().Port)
}

func (s *testServer) wsAddress() string {
	return fmt.Sprintf("127.0.0.1:%d", s.manager.WSServer.Addr().(*net.TCPAddr).Port)
}

func (s *testServer) nextEvent(t *testing.T) servernetwork.ConnectionEvent {
	t.Helper()
	select {
	case event := <-s.manager.ClientManager.GetConnectionEventChan():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection event")
		return servernetwork.ConnectionEvent{}
	}
}

func newTestNetworkManager(t *testing.T, transport, address string, protocolID uint64) (*NetworkManager, *queue.InMemoryQueue) {
	t.Helper()
	serverMessageQueue := queue.NewInMemoryQueue(16)
	m, err := NewNetworkManager(NewNetworkManagerOptions{
		ServerMessageQueue: serverMessageQueue,
		ServerAddress:      address,
		Transport:          transport,
		ProtocolID:         protocolID,
		ConnectTimeout:     time.Second,
		PingInterval:       20 * time.Millisecond,
	})
	require.NoError(t, err)
	return m, serverMessageQueue
}

func TestNetworkManagerSession(t *testing.T) {
	tests := []struct {
		name      string
		transport string
	}{
		{name: "udp", transport: TransportUDP},
		{name: "websocket", transport: TransportWebSocket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startTestServer(t, 0, tt.transport == TransportWebSocket)
			address := server.udpAddress()
			if tt.transport == TransportWebSocket {
				address = server.wsAddress()
			}

			m, serverMessageQueue := newTestNetworkManager(t, tt.transport, address, 0)
			require.NoError(t, m.Start(context.Background()))
			assert.NotZero(t, m.ClientID())
			assert.Equal(t, "test-server", m.ServerID())
			assert.Equal(t, 60, m.TickRate())

			connect := server.nextEvent(t)
			assert.Equal(t, servernetwork.ConnectionEventTypeConnect, connect.Type)
			assert.Equal(t, m.ClientID(), connect.ClientID)

			// intents arrive stamped with the session id
			require.NoError(t, m.SendMove(context.Background(), &messages.ClientMove{Forward: 1}))
			require.Eventually(t, func() bool {
				size, _ := server.messageQueue.Size()
				return size == 1
			}, 2*time.Second, 10*time.Millisecond)
			item, err := server.messageQueue.Dequeue()
			require.NoError(t, err)
			assert.Equal(t, m.ClientID(), item.(*messages.Message).ClientID)

			// snapshots land on the server message queue
			snapshot, err := messages.NewServerSnapshotMessage(&messages.ServerSnapshot{
				Tick:    1,
				Players: []*messages.PlayerStateUpdate{{ClientID: m.ClientID(), Position: kinematic.Vector3{Z: 2.5}}},
			})
			require.NoError(t, err)
			server.manager.SendMessageToAll(context.Background(), snapshot)
			require.Eventually(t, func() bool {
				size, _ := serverMessageQueue.Size()
				return size == 1
			}, 2*time.Second, 10*time.Millisecond)

			// keepalive pongs produce a ping estimate
			require.Eventually(t, func() bool {
				m.pingMutex.Lock()
				defer m.pingMutex.Unlock()
				return m.rtts.Len() > 0
			}, 2*time.Second, 10*time.Millisecond)
			assert.GreaterOrEqual(t, m.Ping(), 0.0)

			clientID := m.ClientID()
			require.NoError(t, m.Stop())
			assert.Zero(t, m.ClientID())
			disconnect := server.nextEvent(t)
			assert.Equal(t, servernetwork.ConnectionEvent{ClientID: clientID, Type: servernetwork.ConnectionEventTypeDisconnect}, disconnect)

			size, err := serverMessageQueue.Size()
			require.NoError(t, err)
			assert.Zero(t, size, "stop clears the queue")
		})
	}
}

func TestNetworkManagerRejected(t *testing.T) {
	server := startTestServer(t, 1, false)
	m, _ := newTestNetworkManager(t, TransportUDP, server.udpAddress(), 0)

	err := m.Start(context.Background())
	var rejected *ErrConnectionRejected
	require.True(t, errors.As(err, &rejected), "got %v", err)
	assert.Contains(t, rejected.Reason, "protocol id mismatch")
	assert.Zero(t, m.ClientID())
}

func TestNetworkManagerConnectTimeout(t *testing.T) {
	silent, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer silent.Close()

	serverMessageQueue := queue.NewInMemoryQueue(1)
	m, err := NewNetworkManager(NewNetworkManagerOptions{
		ServerMessageQueue: serverMessageQueue,
		ServerAddress:      silent.LocalAddr().String(),
		ConnectTimeout:     200 * time.Millisecond,
	})
	require.NoError(t, err)

	err = m.Start(context.Background())
	var timeout *ErrConnectTimeout
	assert.True(t, errors.As(err, &timeout), "got %v", err)
}

func newServerTimeoutManager(t *testing.T, address string) *NetworkManager {
	t.Helper()
	m, err := NewNetworkManager(NewNetworkManagerOptions{
		ServerMessageQueue: queue.NewInMemoryQueue(16),
		ServerAddress:      address,
		ConnectTimeout:     time.Second,
		PingInterval:       20 * time.Millisecond,
		ServerTimeout:      150 * time.Millisecond,
	})
	require.NoError(t, err)
	return m
}

func TestNetworkManagerServerTimeout(t *testing.T) {
	server := startTestServer(t, 0, false)
	m := newServerTimeoutManager(t, server.udpAddress())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	connect := server.nextEvent(t)
	// the server forgets the client, so its pings go unanswered
	require.NoError(t, server.manager.ClientManager.DisconnectClient(connect.ClientID))

	select {
	case err := <-m.ClientErrChan():
		var timeout *ErrServerTimeout
		require.True(t, errors.As(err, &timeout), "got %v", err)
		assert.Greater(t, timeout.Silence, 150*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("server timeout was not reported")
	}
}

func TestNetworkManagerPongsKeepSessionAlive(t *testing.T) {
	server := startTestServer(t, 0, false)
	m := newServerTimeoutManager(t, server.udpAddress())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	select {
	case err := <-m.ClientErrChan():
		t.Fatalf("unexpected client error: %v", err)
	case <-time.After(500 * time.Millisecond):
	}
	m.pingMutex.Lock()
	assert.Positive(t, m.rtts.Len(), "pongs were recorded")
	m.pingMutex.Unlock()
}

func TestNewNetworkManagerUnknownTransport(t *testing.T) {
	_, err := NewNetworkManager(NewNetworkManagerOptions{
		ServerMessageQueue: queue.NewInMemoryQueue(1),
		ServerAddress:      "127.0.0.1:9090",
		Transport:          "carrier-pigeon",
	})
	assert.Error(t, err)
}

func TestNetworkManagerStopWithoutStart(t *testing.T) {
	m, _ := newTestNetworkManager(t, TransportUDP, "127.0.0.1:9090", 0)
	assert.NoError(t, m.Stop())
}
