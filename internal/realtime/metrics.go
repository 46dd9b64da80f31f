package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	pushDelivered = "delivered"
	pushRelayed   = "relayed"
	pushDropped   = "dropped"
)

// Metrics owns its registry so tests and multiple hubs never collide on the
// default prometheus registerer.
type Metrics struct {
	registry *prometheus.Registry

	sessions      prometheus.Gauge
	onlineUsers   prometheus.Gauge
	pushes        *prometheus.CounterVec
	slowConsumers prometheus.Counter
	inbound       *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	metrics := &Metrics{
		registry: registry,
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "sessions",
			Help:      "Live realtime sessions on this instance",
		}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "online_users",
			Help:      "Users with at least one live session on this instance",
		}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "pushes_total",
			Help:      "Push attempts by outcome",
		}, []string{"result"}),
		slowConsumers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "slow_consumers_total",
			Help:      "Sessions dropped because their send buffer was full",
		}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "inbound_events_total",
			Help:      "Inbound client events by name",
		}, []string{"event"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.sessions,
		metrics.onlineUsers,
		metrics.pushes,
		metrics.slowConsumers,
		metrics.inbound,
	)
	return metrics
}

func (metrics *Metrics) Registry() *prometheus.Registry {
	if metrics == nil {
		return nil
	}
	return metrics.registry
}

func (metrics *Metrics) setPresence(sessions int, users int) {
	if metrics == nil {
		return
	}
	metrics.sessions.Set(float64(sessions))
	metrics.onlineUsers.Set(float64(users))
}

func (metrics *Metrics) push(result string, count int) {
	if metrics == nil || count <= 0 {
		return
	}
	metrics.pushes.WithLabelValues(result).Add(float64(count))
}

func (metrics *Metrics) slowConsumer() {
	if metrics == nil {
		return
	}
	metrics.slowConsumers.Inc()
}

func (metrics *Metrics) inboundEvent(event string) {
	if metrics == nil {
		return
	}
	switch event {
	case EventMarkNotificationRead, EventListNotifications, EventJoinCoupleChannel, EventLeaveCoupleChannel, EventPing:
	default:
		event = "unknown"
	}
	metrics.inbound.WithLabelValues(event).Inc()
}
