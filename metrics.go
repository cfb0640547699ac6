package lensed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	logLikeEvaluations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lensed_loglike_evaluations_total",
		Help: "Total number of likelihood evaluations",
	})

	dumpsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lensed_dumps_total",
		Help: "Total number of state dumps",
	})

	callbackErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lensed_callback_errors_total",
		Help: "Total number of failed sampler callbacks",
	}, []string{"callback"})

	callbackDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lensed_callback_duration_seconds",
		Help:    "Time from parameter upload to reduced result, per callback",
		Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
	}, []string{"callback"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lensed_runs_total",
		Help: "Total number of runs by outcome",
	}, []string{"outcome"})
)
