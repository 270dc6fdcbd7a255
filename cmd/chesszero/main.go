// Command chesszero drives the self-play training loop or a single
// self-play game against an Oracle, depending on the mode argument —
// grounded on the teacher's cmd/selfplay/main.go CLI shape.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"

	"chesszero/internal/mcts"
	"chesszero/internal/oracle"
	"chesszero/internal/selfplay"
)

func main() {
	if len(os.Args) < 2 || (os.Args[1] != "train" && os.Args[1] != "play") {
		fmt.Fprintln(os.Stderr, "usage: chesszero <train|play> [flags]")
		os.Exit(1)
	}
	mode := os.Args[1]
	modelPath := flag.String("model", "chesszero.onnx", "path to ONNX model file")
	libPath := flag.String("lib", "onnxruntime.so", "path to the onnxruntime shared library")
	iterations := flag.Int("iterations", 1, "number of training iterations")
	games := flag.Int("games", 8, "self-play games per iteration")
	epochs := flag.Int("epochs", 1, "training epochs per iteration")
	batchSize := flag.Int("batch", 256, "training batch size")
	searches := flag.Int("searches", 800, "mcts searches per move")
	historyLength := flag.Int("history", 8, "number of past positions fed to the oracle")
	puctC := flag.Float64("puct-c", 2.0, "PUCT exploration constant")
	dirichletAlpha := flag.Float64("dirichlet-alpha", 0.3, "root Dirichlet noise alpha")
	dirichletEps := flag.Float64("dirichlet-eps", 0.25, "root Dirichlet noise weight")
	temperature := flag.Float64("temperature", 1.0, "self-play action-sampling temperature")
	tempCutoff := flag.Int("temp-cutoff", 30, "ply at/after which sampling becomes greedy")
	maxPlies := flag.Int("max-plies", 512, "hard per-game ply cap")
	seed := flag.Uint64("seed", 1, "PRNG seed")
	checkpointPath := flag.String("checkpoint-log", "", "append-only checkpoint log path (empty disables)")
	flag.CommandLine.Parse(os.Args[2:])

	mctsCfg := mcts.Config{
		NumSearches:      *searches,
		C:                *puctC,
		DirichletAlpha:   *dirichletAlpha,
		DirichletEpsilon: *dirichletEps,
		HistoryLength:    *historyLength,
	}
	gameCfg := selfplay.Config{
		MCTS:              mctsCfg,
		Temperature:       *temperature,
		TemperatureCutoff: *tempCutoff,
		MaxPlies:          *maxPlies,
	}

	log.Printf("initializing oracle with model %s and lib %s", *modelPath, *libPath)
	o, err := oracle.NewONNXOracle(*modelPath, *libPath, *historyLength)
	if err != nil {
		log.Fatalf("failed to initialize oracle: %v", err)
	}
	defer o.Close()

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	switch mode {
	case "train":
		runTrain(o, gameCfg, *iterations, *games, *epochs, *batchSize, *checkpointPath, rng)
	case "play":
		runPlay(o, gameCfg, rng)
	default:
		log.Fatalf("unknown mode %q, want train or play", mode)
	}
}

func runTrain(o oracle.Oracle, gameCfg selfplay.Config, iterations, games, epochs, batchSize int, checkpointPath string, rng *rand.Rand) {
	var checkpointer selfplay.Checkpointer
	if checkpointPath != "" {
		f, err := os.OpenFile(checkpointPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("failed to open checkpoint log: %v", err)
		}
		defer f.Close()
		checkpointer = &selfplay.LogCheckpointer{W: f}
	}

	trainer := &selfplay.Trainer{
		Oracle: o,
		Cfg: selfplay.TrainerConfig{
			Game:             gameCfg,
			NumIterations:    iterations,
			NumSelfplayGames: games,
			Epochs:           epochs,
			BatchSize:        batchSize,
		},
		Log: checkpointer,
	}

	results, err := trainer.Learn(rng)
	for _, r := range results {
		fmt.Printf("iteration=%d run=%s games=%d examples=%d\n", r.Iteration, r.RunID, r.GamesPlayed, r.ExamplesSeen)
	}
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	os.Exit(0)
}

func runPlay(o oracle.Oracle, gameCfg selfplay.Config, rng *rand.Rand) {
	examples, err := selfplay.PlayGame(o, gameCfg, rng)
	if err != nil {
		log.Fatalf("self-play game failed: %v", err)
	}
	fmt.Printf("played %d plies\n", len(examples))
	if len(examples) > 0 {
		fmt.Printf("final value target (first mover's perspective): %.3f\n", examples[0].ValueTarget)
	}
	os.Exit(0)
}
