package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/tandem/internal/logging"
	"github.com/terraincognita07/tandem/internal/models"
	"github.com/terraincognita07/tandem/internal/services"
	"go.uber.org/zap"
)

const (
	DefaultSendBuffer       = 64
	DefaultPresenceInterval = 15 * time.Second

	// A remote instance that missed this many heartbeats is treated as gone.
	presenceMissedBeats = 3
)

var ErrHubClosed = errors.New("realtime hub is closed")

type PairingResolver interface {
	Resolve(ctx context.Context, userID uint) (services.Pairing, bool, error)
}

type NotificationStore interface {
	UnreadCount(ctx context.Context, ownerID uint) (int64, error)
	MarkRead(ctx context.Context, notificationID uint, ownerID uint) error
	Recent(ctx context.Context, ownerID uint, limit int) ([]models.Notification, error)
}

type HubOptions struct {
	SendBuffer int
	// PresenceInterval is how often the hub re-announces its local users to
	// the other instances.
	PresenceInterval time.Duration
	Relay            Relay
	Metrics          *Metrics
	Logger           *zap.Logger
}

// Hub is the session registry and fan-out point for one process. It is
// created at startup, handed to whoever needs to push, and emptied by
// Shutdown. Presence is global: the hub also tracks which users hold
// sessions on the other instances behind the relay.
type Hub struct {
	pairings         PairingResolver
	notifications    NotificationStore
	relay            Relay
	metrics          *Metrics
	logger           *zap.Logger
	sendBuffer       int
	presenceInterval time.Duration
	now              func() time.Time

	// presenceMu orders online/offline decisions and the updates published
	// for them. Lock order: presenceMu, then mu.
	presenceMu sync.Mutex

	mu       sync.RWMutex
	closed   bool
	sessions map[string]*Session
	groups   map[string]map[string]*Session

	remoteMu sync.RWMutex
	remote   map[string]*remotePresence

	stop     chan struct{}
	stopOnce sync.Once
	loops    sync.WaitGroup
}

type remotePresence struct {
	users map[uint]struct{}
	seen  time.Time
}

func NewHub(pairings PairingResolver, notifications NotificationStore, options HubOptions) *Hub {
	relay := options.Relay
	if relay == nil {
		relay = NewLocalRelay()
	}
	sendBuffer := options.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	presenceInterval := options.PresenceInterval
	if presenceInterval <= 0 {
		presenceInterval = DefaultPresenceInterval
	}
	return &Hub{
		pairings:         pairings,
		notifications:    notifications,
		relay:            relay,
		metrics:          options.Metrics,
		logger:           logging.OrNop(options.Logger).Named("realtime"),
		sendBuffer:       sendBuffer,
		presenceInterval: presenceInterval,
		now:              time.Now,
		sessions:         make(map[string]*Session),
		groups:           make(map[string]map[string]*Session),
		remote:           make(map[string]*remotePresence),
		stop:             make(chan struct{}),
	}
}

func userGroup(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

func coupleGroup(coupleID uint) string {
	return "couple:" + strconv.FormatUint(uint64(coupleID), 10)
}

// Start subscribes to the relay so envelopes published by other instances
// reach sessions held here, asks the other instances for their presence and
// starts the presence heartbeat.
func (hub *Hub) Start() error {
	if err := hub.relay.Subscribe(hub.deliverRelayed); err != nil {
		return err
	}
	if err := hub.relay.SubscribePresence(hub.applyPresence); err != nil {
		return err
	}
	hub.publishPresence(PresenceUpdate{Kind: PresenceSync})
	hub.announceSnapshot()

	hub.loops.Add(1)
	go hub.heartbeat()
	return nil
}

// Serve runs one connection until the client goes away or the hub shuts
// down. userID must already be authenticated.
func (hub *Hub) Serve(ctx context.Context, conn Conn, userID uint) error {
	session := newSession(conn, userID, hub.sendBuffer)
	go session.writeLoop(hub.logger)

	if err := hub.connect(ctx, session); err != nil {
		session.setState(SessionDisconnected)
		session.close()
		_ = conn.Close()
		<-session.done
		return err
	}
	defer hub.disconnect(context.WithoutCancel(ctx), session)

	for {
		var message InboundMessage
		if err := conn.ReadJSON(&message); err != nil {
			hub.logger.Debug("realtime read ended",
				zap.String("session_id", session.ID),
				zap.Uint("user_id", userID),
				zap.Error(err),
			)
			return nil
		}
		hub.handle(ctx, session, message)
	}
}

func (hub *Hub) connect(ctx context.Context, session *Session) error {
	pairing, paired, err := hub.pairings.Resolve(ctx, session.UserID)
	if err != nil {
		return err
	}

	hub.presenceMu.Lock()
	hub.mu.Lock()
	if hub.closed {
		hub.mu.Unlock()
		hub.presenceMu.Unlock()
		return ErrHubClosed
	}
	first := len(hub.groups[userGroup(session.UserID)]) == 0
	hub.sessions[session.ID] = session
	hub.joinLocked(userGroup(session.UserID), session)
	if paired {
		hub.joinLocked(coupleGroup(pairing.CoupleID), session)
	}
	partnerLocal := paired && len(hub.groups[userGroup(pairing.PartnerID)]) > 0
	hub.updatePresenceMetricsLocked()
	hub.mu.Unlock()

	session.setState(SessionConnected)
	if first {
		hub.publishPresence(PresenceUpdate{Kind: PresenceDelta, Online: []uint{session.UserID}})
	}
	if paired {
		partnerOnline := partnerLocal || hub.onlineRemote(pairing.PartnerID)
		hub.deliver(session, presenceEnvelope(pairing.PartnerID, partnerOnline))
		hub.sendToUser(pairing.PartnerID, presenceEnvelope(session.UserID, true))
	}
	hub.presenceMu.Unlock()

	hub.logger.Info("realtime session connected",
		zap.String("session_id", session.ID),
		zap.Uint("user_id", session.UserID),
	)

	count, err := hub.notifications.UnreadCount(ctx, session.UserID)
	if err != nil {
		hub.logger.Warn("unread count unavailable on connect", zap.Uint("user_id", session.UserID), zap.Error(err))
		return nil
	}
	hub.deliver(session, countEnvelope(count))
	return nil
}

// disconnect is the only cancellation path: the session leaves every group
// before it returns. The partner hears "offline" only if, once the pairing is
// known, the user holds no session on any instance.
func (hub *Hub) disconnect(ctx context.Context, session *Session) {
	hub.mu.Lock()
	_, registered := hub.sessions[session.ID]
	remaining := 0
	if registered {
		hub.removeLocked(session)
		remaining = len(hub.groups[userGroup(session.UserID)])
		hub.updatePresenceMetricsLocked()
	}
	hub.mu.Unlock()

	session.setState(SessionDisconnected)
	session.close()
	_ = session.conn.Close()
	<-session.done

	if !registered {
		return
	}
	hub.logger.Info("realtime session disconnected",
		zap.String("session_id", session.ID),
		zap.Uint("user_id", session.UserID),
		zap.Int("remaining_sessions", remaining),
	)
	if remaining > 0 {
		return
	}

	pairing, paired, err := hub.pairings.Resolve(ctx, session.UserID)

	hub.presenceMu.Lock()
	defer hub.presenceMu.Unlock()
	if hub.isClosed() || hub.SessionCount(session.UserID) > 0 {
		return
	}
	hub.publishPresence(PresenceUpdate{Kind: PresenceDelta, Offline: []uint{session.UserID}})
	if err != nil {
		hub.logger.Warn("offline presence skipped: pairing lookup failed", zap.Uint("user_id", session.UserID), zap.Error(err))
		return
	}
	if paired && !hub.onlineRemote(session.UserID) {
		hub.sendToUser(pairing.PartnerID, presenceEnvelope(session.UserID, false))
	}
}

func (hub *Hub) isClosed() bool {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return hub.closed
}

func (hub *Hub) joinLocked(group string, session *Session) {
	members := hub.groups[group]
	if members == nil {
		members = make(map[string]*Session)
		hub.groups[group] = members
	}
	members[session.ID] = session
}

func (hub *Hub) leaveLocked(group string, session *Session) {
	members := hub.groups[group]
	if members == nil {
		return
	}
	delete(members, session.ID)
	if len(members) == 0 {
		delete(hub.groups, group)
	}
}

func (hub *Hub) removeLocked(session *Session) {
	delete(hub.sessions, session.ID)
	for group, members := range hub.groups {
		if _, ok := members[session.ID]; ok {
			hub.leaveLocked(group, session)
		}
	}
}

func (hub *Hub) updatePresenceMetricsLocked() {
	users := 0
	for group := range hub.groups {
		if strings.HasPrefix(group, "user:") {
			users++
		}
	}
	hub.metrics.setPresence(len(hub.sessions), users)
}

func (hub *Hub) members(group string) []*Session {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	members := make([]*Session, 0, len(hub.groups[group]))
	for _, session := range hub.groups[group] {
		members = append(members, session)
	}
	return members
}

// deliver queues envelopes on one session. A full buffer marks the session
// as a slow consumer and drops it; the ledger still has everything.
func (hub *Hub) deliver(session *Session, envelopes ...Envelope) bool {
	for _, envelope := range envelopes {
		switch session.enqueue(envelope) {
		case enqueued:
		case enqueueFull:
			hub.dropSlowConsumer(session)
			return false
		default:
			return false
		}
	}
	return true
}

func (hub *Hub) dropSlowConsumer(session *Session) {
	hub.metrics.slowConsumer()
	hub.logger.Warn("dropping slow realtime consumer",
		zap.String("session_id", session.ID),
		zap.Uint("user_id", session.UserID),
	)
	session.close()
	_ = session.conn.Close()
}

func (hub *Hub) deliverLocal(userID uint, envelopes []Envelope) int {
	delivered := 0
	for _, session := range hub.members(userGroup(userID)) {
		if hub.deliver(session, envelopes...) {
			delivered++
		}
	}
	return delivered
}

// sendToUser pushes to every local session of userID and hands the
// envelopes to the relay when none of them took it.
func (hub *Hub) sendToUser(userID uint, envelopes ...Envelope) int {
	delivered := hub.deliverLocal(userID, envelopes)
	hub.metrics.push(pushDelivered, delivered)
	if delivered > 0 {
		return delivered
	}

	if err := hub.relay.Publish(userID, envelopes); err != nil {
		hub.metrics.push(pushDropped, 1)
		hub.logger.Warn("relay publish failed", zap.Uint("user_id", userID), zap.Error(err))
		return 0
	}
	hub.metrics.push(pushRelayed, 1)
	return 0
}

func (hub *Hub) deliverRelayed(userID uint, envelopes []Envelope) {
	hub.metrics.push(pushDelivered, hub.deliverLocal(userID, envelopes))
}

// PublishNotification pushes a stored notification and the recipient's
// unread count, in that order. It returns the number of local sessions
// that accepted both.
func (hub *Hub) PublishNotification(notification models.Notification, unreadCount int64) int {
	envelopes := []Envelope{{Event: EventNewNotification, Data: NotificationPayload(notification)}}
	if unreadCount >= 0 {
		envelopes = append(envelopes, countEnvelope(unreadCount))
	}
	return hub.sendToUser(notification.UserID, envelopes...)
}

// PublishUnreadCount resyncs the badge on every session of userID after a
// change made outside the socket, such as an HTTP mark-read.
func (hub *Hub) PublishUnreadCount(userID uint, unreadCount int64) int {
	return hub.sendToUser(userID, countEnvelope(unreadCount))
}

// BroadcastCouple pushes to the sessions that joined the couple channel on
// this instance.
func (hub *Hub) BroadcastCouple(coupleID uint, envelope Envelope) int {
	delivered := 0
	for _, session := range hub.members(coupleGroup(coupleID)) {
		if hub.deliver(session, envelope) {
			delivered++
		}
	}
	hub.metrics.push(pushDelivered, delivered)
	return delivered
}

// Online reports whether userID holds a session on this or any other
// instance.
func (hub *Hub) Online(userID uint) bool {
	return hub.SessionCount(userID) > 0 || hub.onlineRemote(userID)
}

// SessionCount counts the sessions of userID held by this instance.
func (hub *Hub) SessionCount(userID uint) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.groups[userGroup(userID)])
}

// Shutdown closes every session and empties the registry. Serve calls that
// are still running return once their read fails.
func (hub *Hub) Shutdown(ctx context.Context) error {
	hub.presenceMu.Lock()
	hub.mu.Lock()
	if hub.closed {
		hub.mu.Unlock()
		hub.presenceMu.Unlock()
		return nil
	}
	hub.closed = true
	sessions := make([]*Session, 0, len(hub.sessions))
	for _, session := range hub.sessions {
		sessions = append(sessions, session)
	}
	hub.sessions = make(map[string]*Session)
	hub.groups = make(map[string]map[string]*Session)
	hub.updatePresenceMetricsLocked()
	hub.mu.Unlock()
	hub.publishPresence(PresenceUpdate{Kind: PresenceLeave})
	hub.presenceMu.Unlock()

	hub.stopOnce.Do(func() { close(hub.stop) })
	hub.loops.Wait()

	for _, session := range sessions {
		session.setState(SessionDisconnected)
		session.close()
		_ = session.conn.Close()
	}
	for _, session := range sessions {
		select {
		case <-session.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return hub.relay.Close()
}

func (hub *Hub) handle(ctx context.Context, session *Session, message InboundMessage) {
	hub.metrics.inboundEvent(message.Event)

	switch message.Event {
	case EventPing:
		hub.deliver(session, Envelope{Event: EventPong})
	case EventMarkNotificationRead:
		hub.handleMarkRead(ctx, session, message.Data)
	case EventListNotifications:
		hub.handleListNotifications(ctx, session)
	case EventJoinCoupleChannel:
		hub.handleJoinCouple(ctx, session)
	case EventLeaveCoupleChannel:
		hub.handleLeaveCouple(ctx, session)
	default:
		hub.deliver(session, errorEnvelope("unknown event"))
	}
}

func (hub *Hub) handleMarkRead(ctx context.Context, session *Session, raw json.RawMessage) {
	var request MarkReadRequest
	if len(raw) == 0 || json.Unmarshal(raw, &request) != nil || request.ID == 0 {
		hub.deliver(session, errorEnvelope("notification id is required"))
		return
	}

	err := hub.notifications.MarkRead(ctx, request.ID, session.UserID)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		hub.logger.Warn("realtime mark read failed", zap.Uint("user_id", session.UserID), zap.Error(err))
	}
	hub.deliver(session, Envelope{
		Event: EventNotificationMarkedRead,
		Data:  MarkedReadPayload{ID: request.ID, Success: err == nil},
	})
	if err != nil {
		return
	}

	count, err := hub.notifications.UnreadCount(ctx, session.UserID)
	if err != nil {
		hub.logger.Warn("unread count unavailable after mark read", zap.Uint("user_id", session.UserID), zap.Error(err))
		return
	}
	hub.deliverLocal(session.UserID, []Envelope{countEnvelope(count)})
}

func (hub *Hub) handleListNotifications(ctx context.Context, session *Session) {
	recent, err := hub.notifications.Recent(ctx, session.UserID, services.RecentNotificationLimit)
	if err != nil {
		hub.logger.Warn("realtime list notifications failed", zap.Uint("user_id", session.UserID), zap.Error(err))
		hub.deliver(session, errorEnvelope("notifications unavailable"))
		return
	}
	count, err := hub.notifications.UnreadCount(ctx, session.UserID)
	if err != nil {
		hub.logger.Warn("unread count unavailable", zap.Uint("user_id", session.UserID), zap.Error(err))
		count = 0
	}

	items := make([]map[string]any, 0, len(recent))
	for _, notification := range recent {
		items = append(items, NotificationPayload(notification))
	}
	hub.deliver(session, Envelope{
		Event: EventNotificationsList,
		Data:  NotificationsListPayload{Notifications: items, UnreadCount: count},
	})
}

func (hub *Hub) handleJoinCouple(ctx context.Context, session *Session) {
	pairing, paired, err := hub.pairings.Resolve(ctx, session.UserID)
	if err != nil || !paired {
		hub.deliver(session, errorEnvelope("not paired"))
		return
	}

	hub.mu.Lock()
	if _, ok := hub.sessions[session.ID]; ok {
		hub.joinLocked(coupleGroup(pairing.CoupleID), session)
	}
	hub.mu.Unlock()

	hub.deliver(session, Envelope{Event: EventJoinedCoupleChannel, Data: CoupleChannelPayload{CoupleID: pairing.CoupleID}})
}

func (hub *Hub) handleLeaveCouple(ctx context.Context, session *Session) {
	pairing, paired, err := hub.pairings.Resolve(ctx, session.UserID)
	if err != nil || !paired {
		hub.deliver(session, errorEnvelope("not paired"))
		return
	}

	hub.mu.Lock()
	hub.leaveLocked(coupleGroup(pairing.CoupleID), session)
	hub.mu.Unlock()

	hub.deliver(session, Envelope{Event: EventLeftCoupleChannel, Data: CoupleChannelPayload{CoupleID: pairing.CoupleID}})
}

// publishPresence hands an update to the relay. Callers hold presenceMu, except
// Start which runs before any session exists.
func (hub *Hub) publishPresence(update PresenceUpdate) {
	if err := hub.relay.PublishPresence(update); err != nil {
		hub.logger.Warn("presence publish failed", zap.String("kind", string(update.Kind)), zap.Error(err))
	}
}

// announceSnapshot publishes the full set of users with a session here.
func (hub *Hub) announceSnapshot() {
	hub.presenceMu.Lock()
	defer hub.presenceMu.Unlock()

	hub.mu.RLock()
	if hub.closed {
		hub.mu.RUnlock()
		return
	}
	users := make([]uint, 0, len(hub.sessions))
	for _, session := range hub.sessions {
		if !slices.Contains(users, session.UserID) {
			users = append(users, session.UserID)
		}
	}
	hub.mu.RUnlock()

	slices.Sort(users)
	hub.publishPresence(PresenceUpdate{Kind: PresenceSnapshot, Online: users})
}

// applyPresence records what another instance reported. A sync request is
// answered from a separate goroutine so a synchronous relay never calls back
// into a hub that is still publishing.
func (hub *Hub) applyPresence(update PresenceUpdate) {
	switch update.Kind {
	case PresenceSync:
		go hub.announceSnapshot()
		return
	case PresenceLeave:
		hub.remoteMu.Lock()
		delete(hub.remote, update.Origin)
		hub.remoteMu.Unlock()
		return
	}

	hub.remoteMu.Lock()
	defer hub.remoteMu.Unlock()
	entry := hub.remote[update.Origin]
	if entry == nil || update.Kind == PresenceSnapshot {
		entry = &remotePresence{users: make(map[uint]struct{}, len(update.Online))}
		hub.remote[update.Origin] = entry
	}
	for _, userID := range update.Online {
		entry.users[userID] = struct{}{}
	}
	for _, userID := range update.Offline {
		delete(entry.users, userID)
	}
	entry.seen = hub.now()
}

func (hub *Hub) remoteCutoff() time.Time {
	return hub.now().Add(-presenceMissedBeats * hub.presenceInterval)
}

func (hub *Hub) onlineRemote(userID uint) bool {
	cutoff := hub.remoteCutoff()
	hub.remoteMu.RLock()
	defer hub.remoteMu.RUnlock()
	for _, entry := range hub.remote {
		if entry.seen.Before(cutoff) {
			continue
		}
		if _, ok := entry.users[userID]; ok {
			return true
		}
	}
	return false
}

func (hub *Hub) pruneRemote() {
	cutoff := hub.remoteCutoff()
	hub.remoteMu.Lock()
	defer hub.remoteMu.Unlock()
	for origin, entry := range hub.remote {
		if entry.seen.Before(cutoff) {
			delete(hub.remote, origin)
			hub.logger.Info("remote instance presence expired", zap.String("origin", origin))
		}
	}
}

func (hub *Hub) heartbeat() {
	defer hub.loops.Done()
	ticker := time.NewTicker(hub.presenceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-hub.stop:
			return
		case <-ticker.C:
			hub.announceSnapshot()
			hub.pruneRemote()
		}
	}
}
