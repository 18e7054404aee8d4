package messages

import (
	"encoding/json"
	"fmt"

	gamestatefb "github.com/cbodonnell/netmove/flatbuffers/gamestate"
	messagefb "github.com/cbodonnell/netmove/flatbuffers/message"
	"github.com/cbodonnell/netmove/pkg/kinematic"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
	}
	decoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0), zstd.WithDecoderMaxMemory(1<<20))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
	}
}

func SerializeMessage(m *Message) ([]byte, error) {
	b, err := SerializeMessageFlatbuffer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}

	return encoder.EncodeAll(b, make([]byte, 0, len(b))), nil
}

func DeserializeMessage(data []byte) (*Message, error) {
	b, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress message: %v", err)
	}

	message, err := DeserializeMessageFlatbuffer(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %w", err)
	}

	return message, nil
}

func SerializeMessageFlatbuffer(m *Message) ([]byte, error) {
	builder := flatbuffers.NewBuilder(len(m.Payload) + 32)

	payload := builder.CreateByteVector(m.Payload)

	messagefb.MessageStart(builder)
	messagefb.MessageAddClientId(builder, m.ClientID)
	messagefb.MessageAddType(builder, byte(m.Type))
	messagefb.MessageAddPayload(builder, payload)
	messageOffset := messagefb.MessageEnd(builder)
	builder.Finish(messageOffset)

	return builder.FinishedBytes(), nil
}

// DeserializeMessageFlatbuffer reads an envelope. Flatbuffers accessors panic on
// truncated input, so the panic is turned into an error.
func DeserializeMessageFlatbuffer(b []byte) (message *Message, err error) {
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("message too short: %d bytes", len(b))
	}
	defer func() {
		if r := recover(); r != nil {
			message = nil
			err = fmt.Errorf("corrupt message buffer: %v", r)
		}
	}()

	messageFlatbuffer := messagefb.GetRootAsMessage(b, 0)
	message = &Message{
		ClientID: messageFlatbuffer.ClientId(),
		Type:     MessageType(messageFlatbuffer.Type()),
	}
	if !message.Type.Valid() {
		return nil, &ErrUnknownMessageType{Type: message.Type}
	}
	if payload := messageFlatbuffer.PayloadBytes(); payload != nil {
		message.Payload = append([]byte(nil), payload...)
	}

	return message, nil
}

func SerializeClientMove(move *ClientMove) ([]byte, error) {
	builder := flatbuffers.NewBuilder(32)
	gamestatefb.MoveStart(builder)
	gamestatefb.MoveAddForward(builder, move.Forward)
	gamestatefb.MoveAddRight(builder, move.Right)
	builder.Finish(gamestatefb.MoveEnd(builder))
	return builder.FinishedBytes(), nil
}

func DeserializeClientMove(b []byte) (move *ClientMove, err error) {
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("client move too short: %d bytes", len(b))
	}
	defer func() {
		if r := recover(); r != nil {
			move = nil
			err = fmt.Errorf("corrupt client move: %v", r)
		}
	}()

	fb := gamestatefb.GetRootAsMove(b, 0)
	return &ClientMove{
		Forward: fb.Forward(),
		Right:   fb.Right(),
	}, nil
}

func SerializeServerSnapshot(snapshot *ServerSnapshot) ([]byte, error) {
	builder := flatbuffers.NewBuilder(256)

	players := make([]flatbuffers.UOffsetT, 0, len(snapshot.Players))
	for _, p := range snapshot.Players {
		players = append(players, SerializePlayerStateFlatbuffer(builder, p))
	}
	gamestatefb.SnapshotStartPlayersVector(builder, len(players))
	for i := len(players) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(players[i])
	}
	playersVector := builder.EndVector(len(players))

	gamestatefb.SnapshotStart(builder)
	gamestatefb.SnapshotAddTick(builder, snapshot.Tick)
	gamestatefb.SnapshotAddTimestamp(builder, snapshot.Timestamp)
	gamestatefb.SnapshotAddPlayers(builder, playersVector)
	builder.Finish(gamestatefb.SnapshotEnd(builder))

	return builder.FinishedBytes(), nil
}

func SerializePlayerStateFlatbuffer(builder *flatbuffers.Builder, state *PlayerStateUpdate) flatbuffers.UOffsetT {
	name := builder.CreateString(state.Name)

	gamestatefb.PlayerStateStart(builder)
	gamestatefb.PlayerStateAddClientId(builder, state.ClientID)
	gamestatefb.PlayerStateAddName(builder, name)
	gamestatefb.PlayerStateAddPowerLevel(builder, state.PowerLevel)
	// structs are written inline and must directly precede their slot
	position := gamestatefb.CreateVec3(builder, state.Position.X, state.Position.Y, state.Position.Z)
	gamestatefb.PlayerStateAddPosition(builder, position)

	return gamestatefb.PlayerStateEnd(builder)
}

func DeserializeServerSnapshot(b []byte) (snapshot *ServerSnapshot, err error) {
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("snapshot too short: %d bytes", len(b))
	}
	defer func() {
		if r := recover(); r != nil {
			snapshot = nil
			err = fmt.Errorf("corrupt snapshot: %v", r)
		}
	}()

	fb := gamestatefb.GetRootAsSnapshot(b, 0)
	snapshot = &ServerSnapshot{
		Tick:      fb.Tick(),
		Timestamp: fb.Timestamp(),
		Players:   make([]*PlayerStateUpdate, 0, fb.PlayersLength()),
	}
	playerState := &gamestatefb.PlayerState{}
	for i := 0; i < fb.PlayersLength(); i++ {
		if !fb.Players(playerState, i) {
			return nil, fmt.Errorf("failed to get player state at index %d", i)
		}
		snapshot.Players = append(snapshot.Players, PlayerStateFlatbufferToPlayerStateUpdate(playerState))
	}

	return snapshot, nil
}

func PlayerStateFlatbufferToPlayerStateUpdate(fb *gamestatefb.PlayerState) *PlayerStateUpdate {
	playerState := &PlayerStateUpdate{
		ClientID:   fb.ClientId(),
		Name:       string(fb.Name()),
		PowerLevel: fb.PowerLevel(),
	}
	if position := fb.Position(nil); position != nil {
		playerState.Position = kinematic.Vector3{
			X: position.X(),
			Y: position.Y(),
			Z: position.Z(),
		}
	}
	return playerState
}

// NewJSONMessage builds an envelope around a JSON control payload.
func NewJSONMessage(t MessageType, v interface{}) (*Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", t, err)
	}
	return &Message{
		Type:    t,
		Payload: payload,
	}, nil
}

// NewClientMoveMessage builds an envelope around a flatbuffers move payload.
func NewClientMoveMessage(move *ClientMove) (*Message, error) {
	payload, err := SerializeClientMove(move)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize client move: %v", err)
	}
	return &Message{
		Type:    MessageTypeClientMove,
		Payload: payload,
	}, nil
}

// NewServerSnapshotMessage builds an envelope around a flatbuffers snapshot payload.
func NewServerSnapshotMessage(snapshot *ServerSnapshot) (*Message, error) {
	payload, err := SerializeServerSnapshot(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize server snapshot: %v", err)
	}
	return &Message{
		Type:    MessageTypeServerSnapshot,
		Payload: payload,
	}, nil
}
