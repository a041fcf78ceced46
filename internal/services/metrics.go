package services

import "github.com/prometheus/client_golang/prometheus"

// twinsCreated counts created twins by creation path ("raw" or "personality").
var twinsCreated = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "echome_twins_created_total",
		Help: "Total number of twins created, by creation path.",
	},
	[]string{"path"},
)

func init() {
	prometheus.MustRegister(twinsCreated)
}
