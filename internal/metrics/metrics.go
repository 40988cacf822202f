package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "licensing_activations_total",
		Help: "Device activation attempts by outcome.",
	}, []string{"outcome"})

	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "licensing_verifications_total",
		Help: "License verification calls by outcome.",
	}, []string{"outcome"})

	DeviceResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "licensing_device_resets_total",
		Help: "Successful support device resets.",
	})

	HeartbeatsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "licensing_heartbeats_total",
		Help: "Client heartbeat calls by outcome.",
	}, []string{"outcome"})
)

const (
	OutcomeIssued           = "issued"
	OutcomeAlreadyActivated = "already_activated"
	OutcomeRejected         = "rejected"
	OutcomeAllowed          = "allowed"
	OutcomeDenied           = "denied"
	OutcomeError            = "error"
)
