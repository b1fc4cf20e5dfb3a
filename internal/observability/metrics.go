// Package observability holds the tracker's Prometheus collectors.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "store",
		Name:      "users_created_total",
		Help:      "Number of users inserted into the store.",
	})

	exercisesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "store",
		Name:      "exercises_logged_total",
		Help:      "Number of exercises inserted into the store.",
	})

	lastExerciseGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "store",
		Name:      "last_exercise_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise persisted.",
	})

	userLookupMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "store",
		Name:      "user_lookup_misses_total",
		Help:      "User lookups that found no user, labeled by operation.",
	}, []string{"operation"})

	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Events handed to the publisher, labeled by type and outcome.",
	}, []string{"event_type", "outcome"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(
		usersCreatedCounter,
		exercisesLoggedCounter,
		lastExerciseGauge,
		userLookupMissCounter,
		eventsCounter,
		requestDuration,
	)
}

// RecordUserCreated counts a stored user.
func RecordUserCreated() {
	usersCreatedCounter.Inc()
}

// RecordExerciseLogged counts a stored exercise and moves the watermark.
func RecordExerciseLogged(ts time.Time) {
	exercisesLoggedCounter.Inc()
	if ts.IsZero() {
		return
	}
	lastExerciseGauge.Set(float64(ts.Unix()))
}

// RecordUserLookupMiss counts a lookup for an unknown or malformed user id.
func RecordUserLookupMiss(operation string) {
	userLookupMissCounter.WithLabelValues(operation).Inc()
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	eventsCounter.WithLabelValues(eventType, outcome).Inc()
}

// ObserveRequest records how long a request took.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
