// Command tensen compiles and evaluates a small index-notation source
// file: package-level flag.String/flag.Bool vars, zerolog console
// logging, and an optional stdout OpenTelemetry trace with one span per
// kernel call.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"time"

	"github.com/dkoslov/tensen/compiler"
	"github.com/dkoslov/tensen/kernel"
	"github.com/dkoslov/tensen/tempcache"
	"github.com/dkoslov/tensen/view"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	inputPath  = flag.String("input", "", "Path to a .tsn index-notation source file")
	expr       = flag.String("expr", "", "Index-notation source text, used when -input is not set")
	dim        = flag.Int("dim", 4, "Uniform axis size used to seed any input tensor not produced by the program")
	seed       = flag.Int64("seed", 1, "Random seed for input tensor generation")
	useBLAS    = flag.Bool("blas", true, "Enable BLAS acceleration for eligible contractions")
	useCache   = flag.Bool("cache", true, "Enable the temporary-view cache")
	enableOTel = flag.Bool("otel", false, "Enable OpenTelemetry tracing (stdout)")
	cpuProfile = flag.String("cpuprofile", "", "Write cpu profile to file")
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	flag.Parse()

	if !*useBLAS {
		kernel.DisableBLAS()
	}
	if !*useCache {
		tempcache.Disable()
	}

	if *enableOTel {
		shutdown, err := initTracer()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer shutdown(context.Background())
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create CPU profile file")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("Could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	src := *expr
	if *inputPath != "" {
		data, err := os.ReadFile(*inputPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *inputPath).Msg("Failed to read source file")
		}
		src = string(data)
	}
	if src == "" {
		log.Fatal().Msg("One of -input or -expr is required")
	}

	program, err := compiler.Compile(src)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compile source")
	}
	log.Info().Int("steps", len(program.Steps)).Msg("Compiled program")

	env := seedEnv(program, *dim, *seed)
	start := time.Now()
	if err := compiler.Eval(program, env, map[string]float64{}); err != nil {
		log.Fatal().Err(err).Msg("Failed to evaluate program")
	}
	elapsed := time.Since(start)

	dest := lastDestination(program)
	result := env[dest]
	log.Info().
		Str("dest", dest).
		Ints("shape", result.Size()).
		Dur("elapsed", elapsed).
		Msg("Evaluated program")
	fmt.Println(dumpView(result))
}

// seedEnv allocates a uniform-size random tensor for every operand name
// that no earlier Step's Dest already produces, so a standalone .tsn
// source file can be run without a separate tensor-data format.
func seedEnv(p *compiler.Program, dim int, seed int64) map[string]*view.View[float64] {
	env := map[string]*view.View[float64]{}
	rng := rand.New(rand.NewSource(seed))
	defined := map[string]bool{}
	seedIfMissing := func(name string, rank int) {
		if name == "" || defined[name] || env[name] != nil {
			return
		}
		shape := make([]int, rank)
		for i := range shape {
			shape[i] = dim
		}
		env[name] = randomView(rng, shape)
	}
	for _, step := range p.Steps {
		switch step.Kind {
		case compiler.OpAdd:
			seedIfMissing(step.A, len(step.IndCinA))
		case compiler.OpTrace:
			seedIfMissing(step.A, len(step.Left)+len(step.Right)+len(step.Cind1)+len(step.Cind2))
		case compiler.OpContract:
			seedIfMissing(step.A, len(step.OindA)+len(step.CindA))
			seedIfMissing(step.B, len(step.OindB)+len(step.CindB))
		}
		defined[step.Dest] = true
	}
	return env
}

func randomView(rng *rand.Rand, shape []int) *view.View[float64] {
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = rng.Float64()
	}
	return view.NewFromData(data, shape)
}

func lastDestination(p *compiler.Program) string {
	if len(p.Steps) == 0 {
		return ""
	}
	return p.Steps[len(p.Steps)-1].Dest
}

func dumpView(v *view.View[float64]) string {
	out := ""
	view.WalkIndices(v.Size(), func(idx []int) {
		out += fmt.Sprintf("%v = %v\n", idx, v.At(idx...))
	})
	return out
}

func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("tensen"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
