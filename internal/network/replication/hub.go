package replication

import (
	"sync"

	"github.com/BDubz420/DubzRP/internal/game/entity"
)

// Channel separates kinds of replicated state for one entity.
type Channel uint8

const (
	ChannelMovement Channel = iota + 1
	ChannelVitals
	ChannelSpawn
	ChannelDespawn
)

// Update is one encoded state delta for an entity.
type Update struct {
	Entity  entity.ID `codec:"e"`
	Channel Channel   `codec:"c"`
	Seq     uint32    `codec:"s"`
	Payload []byte    `codec:"p"`
}

// EventKind identifies a one-shot event.
type EventKind uint8

const (
	EventJump EventKind = iota + 1
)

// Event is a fire-and-forget broadcast.
type Event struct {
	Kind   EventKind `codec:"k"`
	Entity entity.ID `codec:"e"`
}

type updateKey struct {
	entity  entity.ID
	channel Channel
}

// Participant is one peer's mailbox on a Hub.
type Participant struct {
	name string

	mu      sync.Mutex
	pending map[updateKey]Update
	order   []updateKey
	lastSeq map[updateKey]uint32
	events  []Event
}

// Name returns the participant's name.
func (p *Participant) Name() string {
	return p.name
}

func (p *Participant) deliver(u Update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := updateKey{u.Entity, u.Channel}
	if last, ok := p.lastSeq[key]; ok && u.Seq <= last {
		return // stale or duplicate
	}
	p.lastSeq[key] = u.Seq
	if _, queued := p.pending[key]; !queued {
		p.order = append(p.order, key)
	}
	p.pending[key] = u
}

func (p *Participant) notify(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

// Updates drains the newest pending update per entity and channel, in the
// order each was first queued.
func (p *Participant) Updates() []Update {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.order) == 0 {
		return nil
	}
	out := make([]Update, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.pending[key])
		delete(p.pending, key)
	}
	p.order = p.order[:0]
	return out
}

// Events drains pending events. Each event is returned at most once.
func (p *Participant) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.events
	p.events = nil
	return out
}

// Hub fans updates and events out to every joined participant.
type Hub struct {
	mu           sync.RWMutex
	participants []*Participant
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Join adds a participant.
func (h *Hub) Join(name string) *Participant {
	p := &Participant{
		name:    name,
		pending: make(map[updateKey]Update),
		lastSeq: make(map[updateKey]uint32),
	}
	h.mu.Lock()
	h.participants = append(h.participants, p)
	h.mu.Unlock()
	return p
}

// Leave removes a participant.
func (h *Hub) Leave(p *Participant) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, other := range h.participants {
		if other == p {
			h.participants = append(h.participants[:i], h.participants[i+1:]...)
			return
		}
	}
}

// Publish delivers u to every participant except the sender.
func (h *Hub) Publish(from *Participant, u Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.participants {
		if p != from {
			p.deliver(u)
		}
	}
}

// Broadcast delivers e to every participant except from, which may be nil
// to include everyone. The sender raises its own copy locally.
func (h *Hub) Broadcast(from *Participant, e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.participants {
		if p != from {
			p.notify(e)
		}
	}
}
