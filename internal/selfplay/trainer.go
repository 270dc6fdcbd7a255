package selfplay

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chesszero/internal/oracle"
)

// TrainerConfig mirrors spec.md §4.7's training loop: num_iterations outer
// rounds, each running num_selfplay_games games concurrently against one
// shared Oracle, then handing the pooled examples to Oracle.TrainBatch in
// epoch/shuffle passes.
type TrainerConfig struct {
	Game             Config
	NumIterations    int
	NumSelfplayGames int
	Epochs           int
	BatchSize        int
}

func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Game:             DefaultConfig(),
		NumIterations:    1,
		NumSelfplayGames: 8,
		Epochs:           1,
		BatchSize:        256,
	}
}

// Trainer runs the full spec.md §4.7 loop against one Oracle. The Oracle is
// expected to be safe for concurrent Evaluate calls — spec.md explicitly
// permits running several self-play games in parallel against one Oracle.
type Trainer struct {
	Oracle oracle.Oracle
	Cfg    TrainerConfig
	Log    Checkpointer
}

// IterationResult summarises one completed training iteration for the
// caller (cmd/chesszero reports this to the operator).
type IterationResult struct {
	Iteration    int
	RunID        string
	GamesPlayed  int
	ExamplesSeen int
}

// Learn runs Cfg.NumIterations rounds: each round plays NumSelfplayGames
// games concurrently via errgroup, pools their training examples, shuffles
// them into Epochs passes of BatchSize, and calls Oracle.TrainBatch once
// per batch — mirroring the teacher's AlphaZeroTrainer::train structure,
// generalized from one self-play worker to an errgroup fan-out (one
// goroutine per game, no concurrency limit).
func (t *Trainer) Learn(rng *rand.Rand) ([]IterationResult, error) {
	results := make([]IterationResult, 0, t.Cfg.NumIterations)

	for iter := 0; iter < t.Cfg.NumIterations; iter++ {
		runID := uuid.NewString()

		examples, err := t.playRound(rng)
		if err != nil {
			return results, fmt.Errorf("iteration %d (run %s): %w", iter, runID, err)
		}

		for epoch := 0; epoch < t.Cfg.Epochs; epoch++ {
			shuffled := shuffleExamples(examples, rng)
			for start := 0; start < len(shuffled); start += t.Cfg.BatchSize {
				end := start + t.Cfg.BatchSize
				if end > len(shuffled) {
					end = len(shuffled)
				}
				if err := t.Oracle.TrainBatch(shuffled[start:end]); err != nil {
					return results, fmt.Errorf("iteration %d epoch %d batch [%d:%d): %w", iter, epoch, start, end, err)
				}
			}
		}

		res := IterationResult{
			Iteration:    iter,
			RunID:        runID,
			GamesPlayed:  t.Cfg.NumSelfplayGames,
			ExamplesSeen: len(examples),
		}
		results = append(results, res)
		if t.Log != nil {
			if err := t.Log.Checkpoint(res); err != nil {
				return results, fmt.Errorf("iteration %d: checkpoint log: %w", iter, err)
			}
		}
	}
	return results, nil
}

// playRound plays NumSelfplayGames games concurrently. Each goroutine
// derives its own PRNG stream (rand/v2's PCG split by a counter) so the
// games don't share mutable RNG state, while the round as a whole stays
// reproducible given the Trainer's seed.
func (t *Trainer) playRound(rng *rand.Rand) ([]oracle.TrainingExample, error) {
	var g errgroup.Group
	perGame := make([][]oracle.TrainingExample, t.Cfg.NumSelfplayGames)

	for i := 0; i < t.Cfg.NumSelfplayGames; i++ {
		i := i
		seed1, seed2 := rng.Uint64(), rng.Uint64()
		gameRNG := rand.New(rand.NewPCG(seed1, seed2^uint64(i)))
		g.Go(func() error {
			ex, err := PlayGame(t.Oracle, t.Cfg.Game, gameRNG)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			perGame[i] = ex
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []oracle.TrainingExample
	for _, ex := range perGame {
		all = append(all, ex...)
	}
	return all, nil
}

func shuffleExamples(examples []oracle.TrainingExample, rng *rand.Rand) []oracle.TrainingExample {
	out := append([]oracle.TrainingExample(nil), examples...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
