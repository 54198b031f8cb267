package tempcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	occupancy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tensen_tempcache_occupancy",
		Help: "Number of temporaries currently held in the cache.",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tensen_tempcache_hits_total",
		Help: "Number of GetOrMake calls resolved from an existing cached temporary.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tensen_tempcache_misses_total",
		Help: "Number of GetOrMake calls that allocated a fresh temporary.",
	})
)
