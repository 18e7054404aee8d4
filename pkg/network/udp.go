package network

import (
	"context"
	"fmt"
	"net"

	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/messages"
)

// UDPServer represents a UDP server.
type UDPServer struct {
	port int
	conn *net.UDPConn
}

type NewUDPServerOptions struct {
	Port int
}

// NewUDPServer creates a new UDP server.
func NewUDPServer(opts NewUDPServerOptions) *UDPServer {
	return &UDPServer{
		port: opts.Port,
	}
}

// Listen binds the server to its IPv4 port.
func (s *UDPServer) Listen() error {
	udpAddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %v", err)
	}

	udpConn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %v", err)
	}
	s.conn = udpConn

	log.Info("UDP server listening on %s", udpConn.LocalAddr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *UDPServer) Addr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// GetUDPConn returns the UDP listener connection for all clients
func (s *UDPServer) GetUDPConn() *net.UDPConn {
	if s.conn == nil {
		panic("UDP connection is not set on UDPServer")
	}
	return s.conn
}

type UDPMessageHandler func(ctx context.Context, addr *net.UDPAddr, message *messages.Message)

// Start reads datagrams until ctx is cancelled. Listen must be called first.
func (s *UDPServer) Start(ctx context.Context, handler UDPMessageHandler) {
	conn := s.GetUDPConn()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, messages.UDPMessageBufferSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("UDP server closed")
				return
			}
			log.Error("Failed to read from UDP connection: %v", err)
			continue
		}

		message, err := messages.DeserializeMessage(buf[:n])
		if err != nil {
			log.Debug("Dropping datagram from %s: %v", addr.String(), err)
			continue
		}

		log.Trace("Received UDP message of type %s from %s", message.Type, addr.String())
		handler(ctx, addr, message)
	}
}

// WriteMessageToUDP writes a Message to a UDP connection
func WriteMessageToUDP(conn *net.UDPConn, addr *net.UDPAddr, msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}
	if len(b) > messages.UDPMessageBufferSize {
		return fmt.Errorf("message of %d bytes exceeds datagram size %d", len(b), messages.UDPMessageBufferSize)
	}

	if _, err := conn.WriteToUDP(b, addr); err != nil {
		return fmt.Errorf("failed to write message to UDP connection: %v", err)
	}

	return nil
}

// WriteMessageToConn writes a Message to a connected UDP socket
func WriteMessageToConn(conn net.Conn, msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("failed to write message to UDP connection: %v", err)
	}

	return nil
}

// ReadMessageFromConn reads a Message from a connected UDP socket
func ReadMessageFromConn(conn net.Conn) (*messages.Message, error) {
	buf := make([]byte, messages.UDPMessageBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read message from UDP connection: %v", err)
	}

	msg, err := messages.DeserializeMessage(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return msg, nil
}
