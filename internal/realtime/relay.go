package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Relay links the hubs of several instances. Envelopes travel to users that
// have no session on the sending instance; presence updates let every hub
// answer "is this user online anywhere".
type Relay interface {
	Publish(userID uint, envelopes []Envelope) error
	Subscribe(deliver func(userID uint, envelopes []Envelope)) error
	PublishPresence(update PresenceUpdate) error
	SubscribePresence(apply func(update PresenceUpdate)) error
	Close() error
}

type PresenceKind string

const (
	// PresenceDelta adds Online and removes Offline from the origin's set.
	PresenceDelta PresenceKind = "delta"
	// PresenceSnapshot replaces the origin's set with Online.
	PresenceSnapshot PresenceKind = "snapshot"
	// PresenceSync asks every other instance for a snapshot.
	PresenceSync PresenceKind = "sync"
	// PresenceLeave drops the origin's set.
	PresenceLeave PresenceKind = "leave"
)

// PresenceUpdate describes the users that hold sessions on one instance.
// The relay stamps Origin on publish.
type PresenceUpdate struct {
	Origin  string       `json:"origin"`
	Kind    PresenceKind `json:"kind"`
	Online  []uint       `json:"online,omitempty"`
	Offline []uint       `json:"offline,omitempty"`
}

func (update PresenceUpdate) valid() bool {
	switch update.Kind {
	case PresenceDelta, PresenceSnapshot, PresenceSync, PresenceLeave:
		return update.Origin != ""
	default:
		return false
	}
}

type localRelay struct{}

// NewLocalRelay is the single-instance relay: nothing leaves the process.
func NewLocalRelay() Relay {
	return localRelay{}
}

func (localRelay) Publish(uint, []Envelope) error {
	return nil
}

func (localRelay) Subscribe(func(uint, []Envelope)) error {
	return nil
}

func (localRelay) PublishPresence(PresenceUpdate) error {
	return nil
}

func (localRelay) SubscribePresence(func(PresenceUpdate)) error {
	return nil
}

func (localRelay) Close() error {
	return nil
}

// MemoryBus connects several hubs inside one process, mostly for tests.
type MemoryBus struct {
	mu      sync.RWMutex
	members []*memoryRelay
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (bus *MemoryBus) Relay() Relay {
	relay := &memoryRelay{bus: bus, origin: uuid.NewString()}
	bus.mu.Lock()
	bus.members = append(bus.members, relay)
	bus.mu.Unlock()
	return relay
}

func (bus *MemoryBus) others(relay *memoryRelay) []*memoryRelay {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	others := make([]*memoryRelay, 0, len(bus.members))
	for _, member := range bus.members {
		if member != relay {
			others = append(others, member)
		}
	}
	return others
}

type memoryRelay struct {
	bus    *MemoryBus
	origin string

	mu       sync.RWMutex
	deliver  func(uint, []Envelope)
	presence func(PresenceUpdate)
}

func (relay *memoryRelay) Publish(userID uint, envelopes []Envelope) error {
	for _, member := range relay.bus.others(relay) {
		member.mu.RLock()
		deliver := member.deliver
		member.mu.RUnlock()
		if deliver != nil {
			deliver(userID, envelopes)
		}
	}
	return nil
}

func (relay *memoryRelay) Subscribe(deliver func(uint, []Envelope)) error {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	relay.deliver = deliver
	return nil
}

func (relay *memoryRelay) PublishPresence(update PresenceUpdate) error {
	update.Origin = relay.origin
	for _, member := range relay.bus.others(relay) {
		member.mu.RLock()
		apply := member.presence
		member.mu.RUnlock()
		if apply != nil {
			apply(update)
		}
	}
	return nil
}

func (relay *memoryRelay) SubscribePresence(apply func(PresenceUpdate)) error {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	relay.presence = apply
	return nil
}

func (relay *memoryRelay) Close() error {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	relay.deliver = nil
	relay.presence = nil
	return nil
}
