package network

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func udpAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func drainEvents(cm *ClientManager) []ConnectionEvent {
	var events []ConnectionEvent
	for {
		select {
		case event := <-cm.GetConnectionEventChan():
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestClientManagerConnectUDPClient(t *testing.T) {
	cm := NewClientManager(2)
	now := time.Now()

	first, err := cm.ConnectUDPClient(udpAddr(5000), now)
	require.NoError(t, err)
	assert.NotZero(t, first)

	again, err := cm.ConnectUDPClient(udpAddr(5000), now)
	require.NoError(t, err)
	assert.Equal(t, first, again, "same address keeps its id")

	second, err := cm.ConnectUDPClient(udpAddr(5001), now)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = cm.ConnectUDPClient(udpAddr(5002), now)
	assert.ErrorIs(t, err, ErrServerFull)

	assert.Equal(t, 2, cm.Count())
	assert.Equal(t, []ConnectionEvent{
		{ClientID: first, Type: ConnectionEventTypeConnect},
		{ClientID: second, Type: ConnectionEventTypeConnect},
	}, drainEvents(cm))
}

func TestClientManagerDisconnectClient(t *testing.T) {
	cm := NewClientManager(4)
	clientID, err := cm.ConnectUDPClient(udpAddr(5000), time.Now())
	require.NoError(t, err)
	drainEvents(cm)

	require.NoError(t, cm.DisconnectClient(clientID))
	assert.False(t, cm.Exists(clientID))
	assert.Equal(t, []ConnectionEvent{{ClientID: clientID, Type: ConnectionEventTypeDisconnect}}, drainEvents(cm))

	assert.ErrorIs(t, cm.DisconnectClient(clientID), ErrClientNotFound)
	assert.Empty(t, drainEvents(cm), "unknown disconnect emits nothing")

	_, err = cm.GetClient(clientID)
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestClientManagerGetClientIDByUDPAddress(t *testing.T) {
	cm := NewClientManager(4)
	clientID, err := cm.ConnectUDPClient(udpAddr(5000), time.Now())
	require.NoError(t, err)

	assert.Equal(t, clientID, cm.GetClientIDByUDPAddress(udpAddr(5000)))
	assert.Zero(t, cm.GetClientIDByUDPAddress(udpAddr(5001)))
	assert.Zero(t, cm.GetClientIDByUDPAddress(nil))
}

func TestClientManagerReapIdleClients(t *testing.T) {
	cm := NewClientManager(4)
	start := time.Now()

	idle, err := cm.ConnectUDPClient(udpAddr(5000), start)
	require.NoError(t, err)
	active, err := cm.ConnectUDPClient(udpAddr(5001), start)
	require.NoError(t, err)
	drainEvents(cm)

	cm.Touch(active, start.Add(4*time.Second))

	reaped := cm.ReapIdleClients(start.Add(6*time.Second), 5*time.Second)
	require.Len(t, reaped, 1)
	assert.Equal(t, idle, reaped[0].ID)
	assert.True(t, cm.Exists(active))
	assert.False(t, cm.Exists(idle))
	assert.Equal(t, []ConnectionEvent{{ClientID: idle, Type: ConnectionEventTypeDisconnect}}, drainEvents(cm))

	assert.Empty(t, cm.ReapIdleClients(start.Add(6*time.Second), 5*time.Second))
}

func TestClientManagerGetClientsReturnsCopies(t *testing.T) {
	cm := NewClientManager(4)
	clientID, err := cm.ConnectUDPClient(udpAddr(5000), time.Now())
	require.NoError(t, err)

	clients := cm.GetClients()
	require.Len(t, clients, 1)
	clients[0].UDPAddress.Port = 9999

	client, err := cm.GetClient(clientID)
	require.NoError(t, err)
	assert.Equal(t, 5000, client.UDPAddress.Port)
}
