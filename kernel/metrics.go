package kernel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	contractDispatch = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tensen_contract_dispatch_total",
		Help: "Total number of contract kernel calls by chosen execution path",
	}, []string{"path"})

	contractRoleSwap = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tensen_contract_role_swap_total",
		Help: "Total number of contract calls where the A/B role-swap heuristic chose the swapped orientation",
	}, []string{"swapped"})

	kernelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tensen_kernel_calls_total",
		Help: "Total number of primitive kernel invocations",
	}, []string{"kernel"})
)
