package replication

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BDubz420/DubzRP/internal/logger"
	"github.com/BDubz420/DubzRP/internal/network"
	"github.com/BDubz420/DubzRP/internal/network/packets"
)

// pingInterval is how often a link measures its round trip.
const pingInterval = time.Second

// Link bridges a local Hub to a remote peer. It joins the hub as one
// participant: whatever the hub delivers to it is sent over the connection,
// and whatever arrives is republished into the hub on the remote's behalf.
type Link struct {
	hub    *Hub
	self   *Participant
	conn   *network.Conn
	remote string
	log    *zap.Logger

	lastPing time.Time
	rtt      time.Duration
}

// hello is the first packet each side sends.
type hello struct {
	Name string `codec:"n"`
}

type ping struct {
	Sent int64 `codec:"t"` // Unix nanoseconds on the pinging side
}

// NewLink joins hub and starts relaying over conn.
func NewLink(hub *Hub, conn *network.Conn, localName string) (*Link, error) {
	l := &Link{
		hub:  hub,
		conn: conn,
		log:  logger.Named("replication"),
	}
	l.self = hub.Join("link")

	conn.RegisterHandler(packets.PacketHello, l.handleHello)
	conn.RegisterHandler(packets.PacketUpdate, l.handleUpdate)
	conn.RegisterHandler(packets.PacketEvent, l.handleEvent)
	conn.RegisterHandler(packets.PacketPing, l.handlePing)
	conn.RegisterHandler(packets.PacketPong, l.handlePong)

	if err := l.send(packets.PacketHello, hello{Name: localName}); err != nil {
		hub.Leave(l.self)
		return nil, err
	}
	return l, nil
}

// Remote returns the peer's announced name, empty until its hello arrives.
func (l *Link) Remote() string {
	return l.remote
}

// RTT returns the last measured round trip, zero until the first pong.
func (l *Link) RTT() time.Duration {
	return l.rtt
}

// Pump relays inbound packets into the hub and flushes everything the hub
// queued for the peer. Call once per frame.
func (l *Link) Pump() error {
	if err := l.conn.Process(); err != nil {
		return fmt.Errorf("link to %q: %w", l.remote, err)
	}
	if now := time.Now(); now.Sub(l.lastPing) >= pingInterval {
		l.lastPing = now
		if err := l.send(packets.PacketPing, ping{Sent: now.UnixNano()}); err != nil {
			return err
		}
	}
	for _, u := range l.self.Updates() {
		if err := l.send(packets.PacketUpdate, u); err != nil {
			return err
		}
	}
	for _, e := range l.self.Events() {
		if err := l.send(packets.PacketEvent, e); err != nil {
			return err
		}
	}
	return nil
}

// Close leaves the hub and closes the connection.
func (l *Link) Close() error {
	l.hub.Leave(l.self)
	return l.conn.Close()
}

func (l *Link) send(id uint16, v any) error {
	payload, err := Encode(v)
	if err != nil {
		return err
	}
	if err := l.conn.Send(id, payload); err != nil {
		return fmt.Errorf("sending %s: %w", packets.Name(id), err)
	}
	return nil
}

func (l *Link) handleHello(payload []byte) error {
	var h hello
	if err := Decode(payload, &h); err != nil {
		return err
	}
	l.remote = h.Name
	l.log.Info("peer connected", zap.String("peer", h.Name))
	return nil
}

func (l *Link) handlePing(payload []byte) error {
	return l.conn.Send(packets.PacketPong, payload)
}

func (l *Link) handlePong(payload []byte) error {
	var p ping
	if err := Decode(payload, &p); err != nil {
		return err
	}
	if rtt := time.Since(time.Unix(0, p.Sent)); rtt > 0 {
		l.rtt = rtt
	}
	return nil
}

func (l *Link) handleUpdate(payload []byte) error {
	var u Update
	if err := Decode(payload, &u); err != nil {
		return err
	}
	l.hub.Publish(l.self, u)
	return nil
}

func (l *Link) handleEvent(payload []byte) error {
	var e Event
	if err := Decode(payload, &e); err != nil {
		return err
	}
	l.hub.Broadcast(l.self, e)
	return nil
}
