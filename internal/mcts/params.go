package mcts

// Config is the tunable set spec.md §6 requires the core to expose: PUCT
// exploration constant, Dirichlet noise weight/shape, iteration count, and
// history depth. Temperature and action sampling live in the self-play
// driver, not here — the search itself only ever returns the normalised
// root visit distribution.
type Config struct {
	NumSearches      int
	C                float64
	DirichletAlpha   float64
	DirichletEpsilon float64
	HistoryLength    int
}

// DefaultConfig mirrors the values original_source/src/AlphaZeroTrainer.cpp
// uses for its TrainerArgs defaults.
func DefaultConfig() Config {
	return Config{
		NumSearches:      800,
		C:                2.0,
		DirichletAlpha:   0.3,
		DirichletEpsilon: 0.25,
		HistoryLength:    8,
	}
}
