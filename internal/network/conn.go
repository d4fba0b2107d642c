// Package network moves framed packets between peers over a stream
// connection.
package network

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/BDubz420/DubzRP/internal/logger"
	"github.com/BDubz420/DubzRP/internal/network/packets"
)

// ErrClosed is returned when sending on a closed connection.
var ErrClosed = errors.New("network: connection closed")

// PacketHandler handles one incoming packet payload.
type PacketHandler func(payload []byte) error

type inbound struct {
	id      uint16
	payload []byte
}

// Conn is a framed packet connection. Reads happen on a background
// goroutine; Process dispatches whatever has arrived without blocking.
type Conn struct {
	conn     net.Conn
	mu       sync.Mutex
	handlers map[uint16]PacketHandler
	log      *zap.Logger

	inbox chan inbound
	done  chan struct{}

	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// Dial connects to addr over TCP.
func Dial(addr string) (*Conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return NewConn(c), nil
}

// NewConn wraps an established connection and starts reading from it.
func NewConn(c net.Conn) *Conn {
	conn := &Conn{
		conn:     c,
		handlers: make(map[uint16]PacketHandler),
		log:      logger.Named("network").With(zap.String("remote", remoteAddr(c))),
		inbox:    make(chan inbound, 256),
		done:     make(chan struct{}),
	}
	go conn.readLoop()
	return conn
}

func remoteAddr(c net.Conn) string {
	if addr := c.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}

// RegisterHandler registers the handler for a packet id.
func (c *Conn) RegisterHandler(packetID uint16, handler PacketHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[packetID] = handler
}

// Send writes one framed packet.
func (c *Conn) Send(packetID uint16, payload []byte) error {
	if len(payload) > packets.MaxPayload {
		return fmt.Errorf("packet 0x%04X: payload of %d bytes exceeds %d", packetID, len(payload), packets.MaxPayload)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	buf := make([]byte, packets.HeaderSize+len(payload))
	packets.Header{ID: packetID, Length: uint32(len(payload))}.Put(buf)
	copy(buf[packets.HeaderSize:], payload)
	if _, err := c.conn.Write(buf); err != nil {
		return fmt.Errorf("sending packet 0x%04X: %w", packetID, err)
	}
	return nil
}

// Process dispatches every packet received so far to its handler.
// Should be called regularly in the game loop. It returns the read error
// once the connection has failed and the inbox is empty.
func (c *Conn) Process() error {
	for {
		select {
		case pkt, ok := <-c.inbox:
			if !ok {
				return c.Err()
			}
			c.dispatch(pkt)
		default:
			return nil
		}
	}
}

func (c *Conn) dispatch(pkt inbound) {
	c.mu.Lock()
	handler, ok := c.handlers[pkt.id]
	c.mu.Unlock()

	if !ok {
		c.log.Debug("unhandled packet", zap.Uint16("id", pkt.id), zap.Int("len", len(pkt.payload)))
		return
	}
	if err := handler(pkt.payload); err != nil {
		c.log.Warn("packet handler failed", zap.Uint16("id", pkt.id), zap.Error(err))
	}
}

func (c *Conn) readLoop() {
	defer close(c.inbox)

	r := bufio.NewReader(c.conn)
	header := make([]byte, packets.HeaderSize)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			c.fail(err)
			return
		}
		h, err := packets.ParseHeader(header)
		if err != nil {
			c.fail(err)
			return
		}
		payload := make([]byte, h.Length)
		if _, err := io.ReadFull(r, payload); err != nil {
			c.fail(fmt.Errorf("reading packet 0x%04X body: %w", h.ID, err))
			return
		}
		select {
		case c.inbox <- inbound{id: h.ID, payload: payload}:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) fail(err error) {
	select {
	case <-c.done:
		return // closed locally
	default:
	}
	if errors.Is(err, io.EOF) {
		err = ErrClosed
	}
	c.errMu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errMu.Unlock()
}

// Err returns the error that stopped the reader, if any.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close closes the connection. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

