//go:build cgo

package kernel

// This file registers gonum's netlib BLAS backend (system BLAS:
// Accelerate on macOS, OpenBLAS on Linux) in place of gonum's pure-Go
// implementation, when cgo is available, covering both the float32 and
// float64 implementations gemm dispatches to.

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/netlib/blas/netlib"
)

func init() {
	blas64.Use(netlib.Implementation{})
	blas32.Use(netlib.Implementation{})
	log.Debug().Msg("cgo/BLAS acceleration enabled (netlib)")
}
