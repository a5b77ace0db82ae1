package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campusbook",
			Name:      "bookings_created_total",
			Help:      "Successfully created bookings.",
		},
	)

	availabilityConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusbook",
			Name:      "availability_conflicts_total",
			Help:      "Availability check failures by reason.",
		},
		[]string{"reason"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusbook",
			Name:      "booking_transitions_total",
			Help:      "Booking state transitions by event.",
		},
		[]string{"event"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusbook",
			Name:      "notifications_total",
			Help:      "Notification delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, availabilityConflicts, transitions, notifications)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCreated counts a persisted booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncConflict counts a failed availability check by reason tag.
func IncConflict(reason string) {
	availabilityConflicts.WithLabelValues(reason).Inc()
}

// IncTransition counts an applied state transition.
func IncTransition(event string) {
	transitions.WithLabelValues(event).Inc()
}

// AddTransitions counts a batch of transitions applied by the background sweep.
func AddTransitions(event string, n float64) {
	transitions.WithLabelValues(event).Add(n)
}

// IncNotification counts a delivery attempt outcome: sent, retry, failed.
func IncNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}
