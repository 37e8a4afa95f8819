package actions

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var candidatesProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "birdcall_candidates_processed",
	Help: "Number of candidate posts pulled by the action sequencer",
})

var candidatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "birdcall_candidates_skipped",
	Help: "Number of candidate posts skipped without being retweeted, by reason",
}, []string{"reason"})

var mutationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "birdcall_mutations",
	Help: "Number of platform mutations attempted, by mutation and result",
}, []string{"mutation", "result"})
