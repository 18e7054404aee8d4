package network

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/cbodonnell/netmove/pkg/messages"
	"github.com/cbodonnell/netmove/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProtocolID = 7

func startTestNetworkManager(t *testing.T, maxClients int) (*NetworkManager, *queue.InMemoryQueue) {
	t.Helper()
	messageQueue := queue.NewInMemoryQueue(16)
	n := NewNetworkManager(NewNetworkManagerOptions{
		ClientManager: NewClientManager(maxClients),
		MessageQueue:  messageQueue,
		ServerID:      "test-server",
		ProtocolID:    testProtocolID,
		TickRate:      60,
		ClientTimeout: time.Minute,
		UDPPort:       0,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, n.Start(ctx))
	return n, messageQueue
}

func dialTestServer(t *testing.T, n *NetworkManager) net.Conn {
	t.Helper()
	conn, err := net.DialUDP("udp4", nil, udpAddr(n.UDPServer.Addr().Port))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn net.Conn, msg *messages.Message) *messages.Message {
	t.Helper()
	require.NoError(t, WriteMessageToConn(conn, msg))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	reply, err := ReadMessageFromConn(conn)
	require.NoError(t, err)
	return reply
}

func hello(t *testing.T, protocolID uint64) *messages.Message {
	t.Helper()
	msg, err := messages.NewJSONMessage(messages.MessageTypeClientHello, &messages.ClientHello{ProtocolID: protocolID})
	require.NoError(t, err)
	return msg
}

func nextEvent(t *testing.T, cm *ClientManager) ConnectionEvent {
	t.Helper()
	select {
	case event := <-cm.GetConnectionEventChan():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection event")
		return ConnectionEvent{}
	}
}

func TestNetworkManagerHelloAccept(t *testing.T) {
	n, _ := startTestNetworkManager(t, 4)
	conn := dialTestServer(t, n)

	reply := roundTrip(t, conn, hello(t, testProtocolID))
	require.Equal(t, messages.MessageTypeServerAccept, reply.Type)

	accept := &messages.ServerAccept{}
	require.NoError(t, json.Unmarshal(reply.Payload, accept))
	assert.NotZero(t, accept.ClientID)
	assert.Equal(t, "test-server", accept.ServerID)
	assert.Equal(t, 60, accept.TickRate)

	assert.Equal(t, ConnectionEvent{ClientID: accept.ClientID, Type: ConnectionEventTypeConnect}, nextEvent(t, n.ClientManager))

	again := roundTrip(t, conn, hello(t, testProtocolID))
	acceptAgain := &messages.ServerAccept{}
	require.NoError(t, json.Unmarshal(again.Payload, acceptAgain))
	assert.Equal(t, accept.ClientID, acceptAgain.ClientID)
	assert.Equal(t, 1, n.ClientManager.Count())
}

func TestNetworkManagerHelloReject(t *testing.T) {
	t.Run("protocol mismatch", func(t *testing.T) {
		n, _ := startTestNetworkManager(t, 4)
		conn := dialTestServer(t, n)

		reply := roundTrip(t, conn, hello(t, testProtocolID+1))
		require.Equal(t, messages.MessageTypeServerReject, reply.Type)
		reject := &messages.ServerReject{}
		require.NoError(t, json.Unmarshal(reply.Payload, reject))
		assert.Contains(t, reject.Reason, "protocol id mismatch")
		assert.Zero(t, n.ClientManager.Count())
	})

	t.Run("server full", func(t *testing.T) {
		n, _ := startTestNetworkManager(t, 1)
		first := dialTestServer(t, n)
		second := dialTestServer(t, n)

		assert.Equal(t, messages.MessageTypeServerAccept, roundTrip(t, first, hello(t, testProtocolID)).Type)

		reply := roundTrip(t, second, hello(t, testProtocolID))
		require.Equal(t, messages.MessageTypeServerReject, reply.Type)
		reject := &messages.ServerReject{}
		require.NoError(t, json.Unmarshal(reply.Payload, reject))
		assert.Equal(t, ErrServerFull.Error(), reject.Reason)
	})
}

func TestNetworkManagerStampsClientID(t *testing.T) {
	n, messageQueue := startTestNetworkManager(t, 4)
	conn := dialTestServer(t, n)

	reply := roundTrip(t, conn, hello(t, testProtocolID))
	accept := &messages.ServerAccept{}
	require.NoError(t, json.Unmarshal(reply.Payload, accept))

	move, err := messages.NewClientMoveMessage(&messages.ClientMove{Forward: 1})
	require.NoError(t, err)
	move.ClientID = 12345
	require.NoError(t, WriteMessageToConn(conn, move))

	require.Eventually(t, func() bool {
		size, _ := messageQueue.Size()
		return size == 1
	}, 2*time.Second, 10*time.Millisecond)

	item, err := messageQueue.Dequeue()
	require.NoError(t, err)
	got := item.(*messages.Message)
	assert.Equal(t, accept.ClientID, got.ClientID)
	assert.Equal(t, messages.MessageTypeClientMove, got.Type)
}

func TestNetworkManagerPingAndGoodbye(t *testing.T) {
	n, messageQueue := startTestNetworkManager(t, 4)
	conn := dialTestServer(t, n)

	reply := roundTrip(t, conn, hello(t, testProtocolID))
	accept := &messages.ServerAccept{}
	require.NoError(t, json.Unmarshal(reply.Payload, accept))
	nextEvent(t, n.ClientManager)

	pong := roundTrip(t, conn, &messages.Message{Type: messages.MessageTypeClientPing})
	assert.Equal(t, messages.MessageTypeServerPong, pong.Type)

	require.NoError(t, WriteMessageToConn(conn, &messages.Message{Type: messages.MessageTypeClientGoodbye}))
	assert.Equal(t, ConnectionEvent{ClientID: accept.ClientID, Type: ConnectionEventTypeDisconnect}, nextEvent(t, n.ClientManager))

	size, err := messageQueue.Size()
	require.NoError(t, err)
	assert.Zero(t, size, "control messages are not enqueued")
}

func TestNetworkManagerIgnoresUnknownAddress(t *testing.T) {
	n, messageQueue := startTestNetworkManager(t, 4)
	conn := dialTestServer(t, n)

	move, err := messages.NewClientMoveMessage(&messages.ClientMove{Right: 1})
	require.NoError(t, err)
	require.NoError(t, WriteMessageToConn(conn, move))

	// garbage must not stop the read loop
	_, err = conn.Write([]byte("garbage"))
	require.NoError(t, err)

	pong := roundTrip(t, conn, hello(t, testProtocolID))
	assert.Equal(t, messages.MessageTypeServerAccept, pong.Type)

	size, err := messageQueue.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestNetworkManagerDropsUnknownMessageType(t *testing.T) {
	n, messageQueue := startTestNetworkManager(t, 4)
	conn := dialTestServer(t, n)

	reply := roundTrip(t, conn, hello(t, testProtocolID))
	require.Equal(t, messages.MessageTypeServerAccept, reply.Type)

	require.NoError(t, WriteMessageToConn(conn, &messages.Message{Type: messages.MessageType(200), Payload: []byte{1}}))

	// the read loop survives and the next datagram is still served
	pong := roundTrip(t, conn, &messages.Message{Type: messages.MessageTypeClientPing})
	assert.Equal(t, messages.MessageTypeServerPong, pong.Type)

	size, err := messageQueue.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}
