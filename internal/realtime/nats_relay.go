package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/terraincognita07/tandem/internal/logging"
	"go.uber.org/zap"
)

const natsReconnectWait = 2 * time.Second

type relayMessage struct {
	Origin    string     `json:"origin"`
	UserID    uint       `json:"userId"`
	Envelopes []Envelope `json:"envelopes"`
}

// NATSRelay publishes per-user envelopes on <subject>.<userId> and presence
// on <subject>.presence.<origin>. It delivers everything except what this
// instance sent itself.
type NATSRelay struct {
	conn    *nats.Conn
	subject string
	origin  string
	logger  *zap.Logger

	mu                   sync.Mutex
	subscription         *nats.Subscription
	presenceSubscription *nats.Subscription
}

func ConnectNATSRelay(url string, subject string, logger *zap.Logger) (*NATSRelay, error) {
	logger = logging.OrNop(logger).Named("relay")
	origin := uuid.NewString()

	conn, err := nats.Connect(url,
		nats.Name("tandem-"+origin[:8]),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats relay disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info("nats relay reconnected", zap.String("url", conn.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return newNATSRelay(conn, subject, origin, logger), nil
}

func newNATSRelay(conn *nats.Conn, subject string, origin string, logger *zap.Logger) *NATSRelay {
	return &NATSRelay{
		conn:    conn,
		subject: strings.TrimSuffix(strings.TrimSpace(subject), "."),
		origin:  origin,
		logger:  logging.OrNop(logger),
	}
}

func relaySubject(prefix string, userID uint) string {
	return prefix + "." + strconv.FormatUint(uint64(userID), 10)
}

func encodeRelayMessage(origin string, userID uint, envelopes []Envelope) ([]byte, error) {
	return json.Marshal(relayMessage{Origin: origin, UserID: userID, Envelopes: envelopes})
}

// decodeRelayMessage returns ok=false for foreign-format payloads and for
// messages sent by origin.
func decodeRelayMessage(origin string, data []byte) (relayMessage, bool) {
	var message relayMessage
	if err := json.Unmarshal(data, &message); err != nil {
		return relayMessage{}, false
	}
	if message.Origin == origin || message.UserID == 0 || len(message.Envelopes) == 0 {
		return relayMessage{}, false
	}
	return message, true
}

func presenceSubject(prefix string, origin string) string {
	return prefix + ".presence." + origin
}

func decodePresenceUpdate(origin string, data []byte) (PresenceUpdate, bool) {
	var update PresenceUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return PresenceUpdate{}, false
	}
	if update.Origin == origin || !update.valid() {
		return PresenceUpdate{}, false
	}
	return update, true
}

func (relay *NATSRelay) Publish(userID uint, envelopes []Envelope) error {
	data, err := encodeRelayMessage(relay.origin, userID, envelopes)
	if err != nil {
		return err
	}
	return relay.conn.Publish(relaySubject(relay.subject, userID), data)
}

func (relay *NATSRelay) Subscribe(deliver func(userID uint, envelopes []Envelope)) error {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	if relay.subscription != nil {
		return errors.New("nats relay already subscribed")
	}

	subscription, err := relay.conn.Subscribe(relay.subject+".*", func(msg *nats.Msg) {
		message, ok := decodeRelayMessage(relay.origin, msg.Data)
		if !ok {
			return
		}
		deliver(message.UserID, message.Envelopes)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s.*: %w", relay.subject, err)
	}
	relay.subscription = subscription
	return nil
}

func (relay *NATSRelay) PublishPresence(update PresenceUpdate) error {
	update.Origin = relay.origin
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return relay.conn.Publish(presenceSubject(relay.subject, relay.origin), data)
}

func (relay *NATSRelay) SubscribePresence(apply func(update PresenceUpdate)) error {
	relay.mu.Lock()
	defer relay.mu.Unlock()
	if relay.presenceSubscription != nil {
		return errors.New("nats relay presence already subscribed")
	}

	pattern := presenceSubject(relay.subject, "*")
	subscription, err := relay.conn.Subscribe(pattern, func(msg *nats.Msg) {
		update, ok := decodePresenceUpdate(relay.origin, msg.Data)
		if !ok {
			return
		}
		apply(update)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", pattern, err)
	}
	relay.presenceSubscription = subscription
	return nil
}

// Close drains pending messages and closes the connection.
func (relay *NATSRelay) Close() error {
	relay.mu.Lock()
	subscriptions := []*nats.Subscription{relay.subscription, relay.presenceSubscription}
	relay.subscription = nil
	relay.presenceSubscription = nil
	relay.mu.Unlock()

	for _, subscription := range subscriptions {
		if subscription == nil {
			continue
		}
		if err := subscription.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			relay.logger.Warn("nats relay unsubscribe failed", zap.Error(err))
		}
	}
	if relay.conn.IsClosed() {
		return nil
	}
	return relay.conn.Drain()
}
