package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/messages"
)

// UDPClient represents a UDP client.
type UDPClient struct {
	serverAddr *net.UDPAddr
	conn       *net.UDPConn
	closeOnce  sync.Once
}

// NewUDPClient creates a new UDP client.
func NewUDPClient(serverAddr string) (*UDPClient, error) {
	serverUDPAddr, err := net.ResolveUDPAddr("udp4", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %v", err)
	}

	return &UDPClient{
		serverAddr: serverUDPAddr,
	}, nil
}

// Connect opens a UDP socket bound to the server address.
func (c *UDPClient) Connect(_ context.Context) error {
	conn, err := net.DialUDP("udp4", nil, c.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to dial UDP address: %v", err)
	}
	c.conn = conn
	log.Debug("UDP client bound to %s", conn.LocalAddr().String())
	return nil
}

func (c *UDPClient) HandleMessages(ctx context.Context, handler MessageHandler) error {
	buf := make([]byte, messages.UDPMessageBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			// ICMP port unreachable surfaces as a read error until the server is up
			log.Trace("Failed to read from UDP connection: %v", err)
			continue
		}

		msg, err := messages.DeserializeMessage(buf[:n])
		if err != nil {
			log.Debug("Dropping datagram from server: %v", err)
			continue
		}
		log.Trace("Received message from UDP server of type %s", msg.Type)
		handler(msg)
	}
}

// SendMessage sends a message to the UDP server.
func (c *UDPClient) SendMessage(_ context.Context, msg *messages.Message) error {
	if c.conn == nil {
		return fmt.Errorf("UDP client is not connected")
	}
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	if _, err := c.conn.Write(b); err != nil {
		return fmt.Errorf("failed to write message to UDP connection: %v", err)
	}

	return nil
}

func (c *UDPClient) Close() error {
	if c.conn == nil {
		return nil
	}
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
