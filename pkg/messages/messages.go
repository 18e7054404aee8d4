package messages

import (
	"fmt"

	"github.com/cbodonnell/netmove/pkg/kinematic"
)

const (
	// UDPMessageBufferSize represents the maximum size of a datagram
	UDPMessageBufferSize = 2048
)

type MessageType byte

// Message types
const (
	MessageTypeClientHello MessageType = iota + 1
	MessageTypeServerAccept
	MessageTypeServerReject
	MessageTypeClientGoodbye
	MessageTypeClientPing
	MessageTypeServerPong
	MessageTypeClientMove
	MessageTypeServerSnapshot
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeClientHello:
		return "ClientHello"
	case MessageTypeServerAccept:
		return "ServerAccept"
	case MessageTypeServerReject:
		return "ServerReject"
	case MessageTypeClientGoodbye:
		return "ClientGoodbye"
	case MessageTypeClientPing:
		return "ClientPing"
	case MessageTypeServerPong:
		return "ServerPong"
	case MessageTypeClientMove:
		return "ClientMove"
	case MessageTypeServerSnapshot:
		return "ServerSnapshot"
	default:
		return fmt.Sprintf("MessageType(%d)", byte(t))
	}
}

// Valid reports whether t is a message type this build knows.
func (t MessageType) Valid() bool {
	return t >= MessageTypeClientHello && t <= MessageTypeServerSnapshot
}

// ErrUnknownMessageType is returned when a message carries a type this build does not know.
type ErrUnknownMessageType struct {
	Type MessageType
}

func (e *ErrUnknownMessageType) Error() string {
	return fmt.Sprintf("unknown message type: %s", e.Type)
}

// Message represents a generic message for serialization/deserialization
type Message struct {
	// ClientID is stamped by the server transport from the session a message arrived on.
	ClientID uint32
	Type     MessageType
	Payload  []byte
}

// ClientHello is the first message a client sends.
type ClientHello struct {
	ProtocolID uint64 `json:"protocolID"`
}

// ServerAccept answers a hello that was admitted.
type ServerAccept struct {
	ClientID uint32 `json:"clientID"`
	ServerID string `json:"serverID"`
	TickRate int    `json:"tickRate"`
}

// ServerReject answers a hello that was refused.
type ServerReject struct {
	Reason string `json:"reason"`
}

// ClientMove is a movement intent for the sender's player.
type ClientMove struct {
	Forward float64
	Right   float64
}

// ServerSnapshot is the full replicated player list for one tick.
type ServerSnapshot struct {
	Tick      uint64
	Timestamp int64
	Players   []*PlayerStateUpdate
}

type PlayerStateUpdate struct {
	ClientID   uint32
	Position   kinematic.Vector3
	Name       string
	PowerLevel uint8
}

func (p *PlayerStateUpdate) Equal(other *PlayerStateUpdate) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.ClientID == other.ClientID &&
		p.Position == other.Position &&
		p.Name == other.Name &&
		p.PowerLevel == other.PowerLevel
}
