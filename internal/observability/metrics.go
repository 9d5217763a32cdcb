package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayRequests counts backend calls by kind (explain, story, homework,
	// images, quiz, speech) and outcome (ok, fallback).
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smart_tutor_gateway_requests_total",
		Help: "AI backend requests by kind and outcome",
	}, []string{"kind", "outcome"})

	GatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smart_tutor_gateway_request_duration_seconds",
		Help:    "AI backend request latency",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"kind"})

	PlaybacksStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smart_tutor_playbacks_started_total",
		Help: "Speech playbacks that reached the output device",
	})

	PlaybacksSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smart_tutor_playbacks_superseded_total",
		Help: "Speech requests discarded because a newer play or stop arrived",
	})

	PlaybackFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smart_tutor_playback_failures_total",
		Help: "Playbacks resolved to idle because of an error",
	}, []string{"reason"})

	Recordings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smart_tutor_recordings_total",
		Help: "Microphone captures by outcome (finished, denied)",
	}, []string{"outcome"})

	StaleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smart_tutor_stale_responses_total",
		Help: "AI responses discarded because the learner navigated away",
	}, []string{"kind"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smart_tutor_active_sessions",
		Help: "Learner sessions currently held in memory",
	})

	ExpiredSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smart_tutor_expired_sessions_total",
		Help: "Sessions closed after staying idle with no browser attached",
	})
)
