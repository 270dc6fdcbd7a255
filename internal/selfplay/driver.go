// Package selfplay implements spec.md §4.7's self-play driver: the loop
// that drives one game to completion using internal/mcts for move
// selection and emits (history, visit-policy, outcome) training examples,
// plus the spec.md §4.7/§7 trainer that runs num_selfplay_games games
// concurrently per iteration and hands the pooled examples to an Oracle.
package selfplay

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"chesszero/internal/chess"
	"chesszero/internal/mcts"
	"chesszero/internal/oracle"
)

// Config holds the per-game tunables spec.md §4.7 names: history depth,
// the move-count threshold after which the temperature drops to (near)
// zero, and the temperature itself while sampling is still exploratory.
type Config struct {
	MCTS              mcts.Config
	Temperature       float64
	TemperatureCutoff int // ply at/after which sampling becomes greedy
	MaxPlies          int // hard cap so a non-terminating game can't hang a worker forever
}

func DefaultConfig() Config {
	return Config{
		MCTS:              mcts.DefaultConfig(),
		Temperature:       1.0,
		TemperatureCutoff: 30,
		MaxPlies:          512,
	}
}

// PlayGame runs one self-play game to completion and returns the training
// examples it produced, one per ply actually played. Each example's
// ValueTarget is filled in only after the game ends (spec.md §4.7: "the
// value target for a step is the final outcome from that step's mover's
// perspective") — Apply's own perspective flip means the sign alternates
// every ply, so a single terminal value z is propagated back with
// alternating sign rather than recomputed per step.
func PlayGame(o oracle.Oracle, cfg Config, rng *rand.Rand) ([]oracle.TrainingExample, error) {
	searcher := mcts.NewSearcher(o, cfg.MCTS)

	pos := chess.NewInitialPosition()
	history := []chess.Position{pos}
	for len(history) < cfg.MCTS.HistoryLength {
		history = append(history, pos)
	}
	rep := make(chess.RepetitionMap)
	rep.Increment(pos.Zobrist)

	var examples []oracle.TrainingExample

	for ply := 0; ply < cfg.MaxPlies; ply++ {
		windowStart := len(history) - cfg.MCTS.HistoryLength
		if windowStart < 0 {
			windowStart = 0
		}
		window := history[windowStart:]

		visitPolicy, err := searcher.Search(window, rep, rng)
		if err != nil {
			return nil, errors.Wrapf(err, "search at ply %d", ply)
		}

		examples = append(examples, oracle.TrainingExample{
			History: append([]chess.Position(nil), window...),
			Flags:   pos.Flags,
			Policy:  visitPolicy,
		})

		temperature := cfg.Temperature
		if ply >= cfg.TemperatureCutoff {
			temperature = 0
		}
		action := sampleAction(visitPolicy, temperature, rng)

		next, resets := chess.Apply(pos, action)
		if resets {
			for k := range rep {
				delete(rep, k)
			}
		}
		count := rep.Increment(next.Zobrist)
		next.Flags.RepeatedState = chess.RepeatedStateTag(count)

		pos = next
		history = append(history, pos)

		mask, kingCaptured := chess.LegalMoves(pos)
		if kingCaptured {
			return nil, errors.New("invariant violation: king_captured during self-play")
		}
		if value, terminal := chess.Terminal(&pos, &mask); terminal {
			// value is from pos's own mover's perspective, i.e. the side that
			// just got mated (or drawn). The last recorded example belongs to
			// the mover who produced pos (the opponent), so its outcome is
			// the negation; fillOutcome's alternation handles every step
			// before that.
			fillOutcome(examples, float32(-value))
			return examples, nil
		}
	}

	// MaxPlies exhausted without a terminal state: treat as a draw, the
	// same outcome spec.md assigns to the 50-move and repetition cases.
	fillOutcome(examples, 0)
	return examples, nil
}

// fillOutcome back-fills ValueTarget for every recorded example. outcome is
// the game result from the perspective of the mover at the final recorded
// position; since every ply flips perspective, the sign alternates walking
// backward from the last example to the first.
func fillOutcome(examples []oracle.TrainingExample, outcome float32) {
	v := outcome
	for i := len(examples) - 1; i >= 0; i-- {
		examples[i].ValueTarget = v
		v = -v
	}
}

// sampleAction draws an action index from visitPolicy raised to 1/temperature
// and renormalised, via a linear cumulative-probability scan — the same
// sampling shape as original_source's self-play driver. temperature <= 0
// means "play greedily": pick the highest-probability action, breaking ties
// by lowest action index.
func sampleAction(policy [chess.NumActions]float32, temperature float64, rng *rand.Rand) int {
	if temperature <= 1e-6 {
		best, bestP := -1, float32(-1)
		for a, p := range policy {
			if p > bestP {
				bestP = p
				best = a
			}
		}
		return best
	}

	var scaled [chess.NumActions]float64
	var sum float64
	invT := 1 / temperature
	for a, p := range policy {
		if p <= 0 {
			continue
		}
		scaled[a] = math.Pow(float64(p), invT)
		sum += scaled[a]
	}
	if sum <= 0 {
		for a, p := range policy {
			if p > 0 {
				return a
			}
		}
		return 0
	}

	target := rng.Float64() * sum
	var cum float64
	for a, s := range scaled {
		cum += s
		if target <= cum {
			return a
		}
	}
	// floating-point rounding: return the last nonzero action.
	for a := len(scaled) - 1; a >= 0; a-- {
		if scaled[a] > 0 {
			return a
		}
	}
	return 0
}
