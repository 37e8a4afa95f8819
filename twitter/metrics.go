package twitter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiRequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "birdcall_api_requests",
	Help: "Number of Twitter API requests, by endpoint and HTTP status code",
}, []string{"endpoint", "status"})

var apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "birdcall_api_request_duration_sec",
	Help: "Duration of Twitter API requests, including retries and rate-limit waits",
}, []string{"endpoint"})
