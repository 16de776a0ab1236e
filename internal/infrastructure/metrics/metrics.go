package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ModerationMetrics holds the collectors of the moderation service.
type ModerationMetrics struct {
	// Decisions by entity kind and resulting status
	DecisionsTotal prometheus.CounterVec
	// Decision attempts that failed, by kind and error type
	DecisionErrorsTotal prometheus.CounterVec
	DecisionDuration    prometheus.HistogramVec

	// Slot ledger
	CapacityRejectionsTotal prometheus.CounterVec
	ReservationsTotal       prometheus.CounterVec
	ReservationsReleased    prometheus.CounterVec
	ReservationsExpired     prometheus.Counter
	AvailableSlots          prometheus.GaugeVec

	// Notifications
	NotificationsDispatched prometheus.CounterVec
	NotificationsDropped    prometheus.Counter
}

// NewModerationMetrics registers the collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewModerationMetrics(reg prometheus.Registerer) *ModerationMetrics {
	factory := promauto.With(reg)
	return &ModerationMetrics{
		DecisionsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_decisions_total",
				Help: "Moderation decisions committed, by entity kind and status",
			},
			[]string{"kind", "status"},
		),

		DecisionErrorsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_decision_errors_total",
				Help: "Moderation decisions that failed, by entity kind and error type",
			},
			[]string{"kind", "error_type"},
		),

		DecisionDuration: *factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moderation_decision_duration_seconds",
				Help:    "Time spent committing a moderation decision",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"kind"},
		),

		CapacityRejectionsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promotion_capacity_rejections_total",
				Help: "Reservation attempts refused because the promotion type was full",
			},
			[]string{"promotion_type_id"},
		),

		ReservationsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promotion_reservations_total",
				Help: "Slot reservations created",
			},
			[]string{"promotion_type_id"},
		),

		ReservationsReleased: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promotion_reservations_released_total",
				Help: "Slot reservations released before their end",
			},
			[]string{"promotion_type_id"},
		),

		ReservationsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "promotion_reservations_expired_total",
				Help: "Slot reservations removed by reconciliation",
			},
		),

		AvailableSlots: *factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "promotion_available_slots",
				Help: "Last computed number of free slots per promotion type",
			},
			[]string{"promotion_type_id"},
		),

		NotificationsDispatched: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moderation_notifications_total",
				Help: "Notification deliveries, by template and result",
			},
			[]string{"template", "result"},
		),

		NotificationsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "moderation_notifications_dropped_total",
				Help: "Notifications dropped because the dispatch queue was full",
			},
		),
	}
}

func (m *ModerationMetrics) RecordDecision(kind, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(kind, status).Inc()
	m.DecisionDuration.WithLabelValues(kind).Observe(durationSeconds)
}

func (m *ModerationMetrics) RecordDecisionError(kind, errorType string) {
	if m == nil {
		return
	}
	m.DecisionErrorsTotal.WithLabelValues(kind, errorType).Inc()
}

func (m *ModerationMetrics) RecordCapacityRejection(typeID string) {
	if m == nil {
		return
	}
	m.CapacityRejectionsTotal.WithLabelValues(typeID).Inc()
}

func (m *ModerationMetrics) RecordReservation(typeID string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(typeID).Inc()
}

func (m *ModerationMetrics) RecordRelease(typeID string) {
	if m == nil {
		return
	}
	m.ReservationsReleased.WithLabelValues(typeID).Inc()
}

func (m *ModerationMetrics) RecordExpired(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.ReservationsExpired.Add(float64(count))
}

func (m *ModerationMetrics) SetAvailableSlots(typeID string, free int) {
	if m == nil {
		return
	}
	m.AvailableSlots.WithLabelValues(typeID).Set(float64(free))
}

func (m *ModerationMetrics) RecordNotification(template string, delivered bool) {
	if m == nil {
		return
	}
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	m.NotificationsDispatched.WithLabelValues(template, result).Inc()
}

func (m *ModerationMetrics) RecordNotificationDropped() {
	if m == nil {
		return
	}
	m.NotificationsDropped.Inc()
}
