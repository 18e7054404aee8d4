package replica

import (
	"testing"

	"github.com/cbodonnell/netmove/pkg/messages"
	"github.com/cbodonnell/netmove/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessPendingServerMessages(t *testing.T) {
	m, r := newRecordingMirror()
	q := queue.NewInMemoryQueue(10)

	for _, s := range []*messages.ServerSnapshot{
		snapshot(1, at(7, 0)),
		snapshot(3, at(7, 1), at(8, 0)),
		snapshot(2, at(7, 0.5)),
	} {
		msg, err := messages.NewServerSnapshotMessage(s)
		require.NoError(t, err)
		require.NoError(t, q.Enqueue(msg))
	}
	require.NoError(t, q.Enqueue("not a message"))
	require.NoError(t, q.Enqueue(&messages.Message{Type: messages.MessageTypeServerSnapshot, Payload: []byte{1, 2}}))
	require.NoError(t, q.Enqueue(&messages.Message{Type: messages.MessageTypeServerPong}))

	applied, err := m.ProcessPendingServerMessages(q)
	require.NoError(t, err)

	assert.Equal(t, 2, applied)
	assert.Equal(t, uint64(3), m.LastTick())
	assert.Equal(t, []uint32{7, 8}, r.spawned)
	p, ok := m.Player(7)
	require.True(t, ok)
	assert.Equal(t, 1.0, p.Position.Z)

	size, err := q.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}
