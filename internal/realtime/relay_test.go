package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRelaySubjectPerUser(t *testing.T) {
	require.Equal(t, "tandem.fanout.42", relaySubject("tandem.fanout", 42))
}

func TestDecodeRelayMessageSkipsOwnOrigin(t *testing.T) {
	data, err := encodeRelayMessage("instance-a", 42, []Envelope{{Event: EventPong}})
	require.NoError(t, err)

	_, ok := decodeRelayMessage("instance-a", data)
	require.False(t, ok)

	message, ok := decodeRelayMessage("instance-b", data)
	require.True(t, ok)
	require.Equal(t, uint(42), message.UserID)
	require.Len(t, message.Envelopes, 1)
	require.Equal(t, EventPong, message.Envelopes[0].Event)
}

func TestDecodeRelayMessageRejectsGarbage(t *testing.T) {
	_, ok := decodeRelayMessage("instance-a", []byte("not json"))
	require.False(t, ok)

	empty, err := encodeRelayMessage("instance-b", 42, nil)
	require.NoError(t, err)
	_, ok = decodeRelayMessage("instance-a", empty)
	require.False(t, ok)
}

func TestMemoryBusSkipsPublisher(t *testing.T) {
	bus := NewMemoryBus()
	left := bus.Relay()
	right := bus.Relay()

	var leftGot, rightGot []uint
	require.NoError(t, left.Subscribe(func(userID uint, _ []Envelope) { leftGot = append(leftGot, userID) }))
	require.NoError(t, right.Subscribe(func(userID uint, _ []Envelope) { rightGot = append(rightGot, userID) }))

	require.NoError(t, left.Publish(7, []Envelope{{Event: EventPong}}))
	require.Empty(t, leftGot)
	require.Equal(t, []uint{7}, rightGot)

	require.NoError(t, right.Close())
	require.NoError(t, left.Publish(8, []Envelope{{Event: EventPong}}))
	require.Equal(t, []uint{7}, rightGot)
}

func TestPresenceSubjectStaysOutOfUserWildcard(t *testing.T) {
	require.Equal(t, "tandem.fanout.presence.instance-a", presenceSubject("tandem.fanout", "instance-a"))
	require.Equal(t, "tandem.fanout.presence.*", presenceSubject("tandem.fanout", "*"))
}

func TestDecodePresenceUpdate(t *testing.T) {
	data := []byte(`{"origin":"instance-a","kind":"delta","online":[3],"offline":[4]}`)

	_, ok := decodePresenceUpdate("instance-a", data)
	require.False(t, ok)

	update, ok := decodePresenceUpdate("instance-b", data)
	require.True(t, ok)
	require.Equal(t, PresenceDelta, update.Kind)
	require.Equal(t, []uint{3}, update.Online)
	require.Equal(t, []uint{4}, update.Offline)

	_, ok = decodePresenceUpdate("instance-b", []byte(`{"origin":"instance-a","kind":"bogus"}`))
	require.False(t, ok)
	_, ok = decodePresenceUpdate("instance-b", []byte(`{"kind":"delta"}`))
	require.False(t, ok)
}

func TestMemoryBusStampsPresenceOrigin(t *testing.T) {
	bus := NewMemoryBus()
	left := bus.Relay()
	right := bus.Relay()

	var leftGot, rightGot []PresenceUpdate
	require.NoError(t, left.SubscribePresence(func(update PresenceUpdate) { leftGot = append(leftGot, update) }))
	require.NoError(t, right.SubscribePresence(func(update PresenceUpdate) { rightGot = append(rightGot, update) }))

	require.NoError(t, left.PublishPresence(PresenceUpdate{Kind: PresenceDelta, Online: []uint{5}}))
	require.Empty(t, leftGot)
	require.Len(t, rightGot, 1)
	require.NotEmpty(t, rightGot[0].Origin)
	require.Equal(t, []uint{5}, rightGot[0].Online)
}
