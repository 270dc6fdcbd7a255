// Package oracle implements the external boundary spec.md §4.8 describes:
// the core hands over per-position snapshots and never inspects tensor
// layout. Two implementations live here — MockOracle for deterministic
// tests and ONNXOracle, a batched github.com/yalue/onnxruntime_go backend
// adapted from the teacher's internal/engine.NNEvaluator.
package oracle

import (
	"math"
	"math/rand/v2"

	"chesszero/internal/chess"
)

// TrainingExample is one row the self-play driver emits: the encoded
// history snapshot (oldest-first) at that step, the flags in force at the
// time, the visit-count policy target, and the scalar value target from
// that step's mover's perspective.
type TrainingExample struct {
	History     []chess.Position
	Flags       chess.Flags
	Policy      [chess.NumActions]float32
	ValueTarget float32
}

// Oracle is the interface the core consumes, per spec.md §4.8:
// evaluate(history) -> (policy, value), and train_batch(examples).
// Dirichlet noise generation is deliberately not part of this interface —
// spec.md notes "the core may implement this itself from a PRNG", and it
// is: see DirichletNoise below, used directly by internal/mcts.
type Oracle interface {
	Evaluate(history []chess.Position) (policy [chess.NumActions]float32, value float32, err error)
	TrainBatch(examples []TrainingExample) error
}

// MockOracle returns a fixed policy/value pair regardless of input. It
// exists for the determinism property (spec.md §8 scenario 5: "identical
// oracle outputs ⇒ identical trajectories") and for any test that needs an
// Oracle without a real network.
type MockOracle struct {
	Policy [chess.NumActions]float32
	Value  float32
}

func (m *MockOracle) Evaluate(history []chess.Position) ([chess.NumActions]float32, float32, error) {
	return m.Policy, m.Value, nil
}

func (m *MockOracle) TrainBatch(examples []TrainingExample) error { return nil }

// DirichletNoise draws a k-dimensional symmetric Dirichlet(alpha) sample
// via k independent Marsaglia-Tsang Gamma(alpha,1) draws, normalised to sum
// to 1. No Gamma/Dirichlet sampler appears anywhere in the retrieved
// corpus, so this is a deliberate stdlib-only (math/rand/v2) exception —
// see DESIGN.md.
func DirichletNoise(rng *rand.Rand, alpha float64, k int) []float64 {
	out := make([]float64, k)
	var sum float64
	for i := range out {
		out[i] = sampleGamma(rng, alpha)
		sum += out[i]
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// sampleGamma draws one Gamma(alpha, 1) variate via Marsaglia & Tsang's
// rejection method, boosting alpha<1 via the standard Gamma(a)=Gamma(a+1)*
// U^(1/a) identity.
func sampleGamma(rng *rand.Rand, alpha float64) float64 {
	if alpha < 1 {
		u := rng.Float64()
		return sampleGamma(rng, alpha+1) * math.Pow(u, 1/alpha)
	}
	d := alpha - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		x2 := x * x
		if u < 1-0.0331*x2*x2 {
			return d * v
		}
		if math.Log(u) < 0.5*x2+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
