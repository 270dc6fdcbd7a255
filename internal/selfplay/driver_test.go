package selfplay

import (
	"math/rand/v2"
	"strings"
	"testing"

	"chesszero/internal/chess"
	"chesszero/internal/oracle"
)

func TestPlayGameProducesValueTargetsInRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MCTS.NumSearches = 16
	cfg.MaxPlies = 20
	cfg.TemperatureCutoff = 4

	o := &oracle.MockOracle{Value: 0}
	for a := range o.Policy {
		o.Policy[a] = 1
	}

	rng := rand.New(rand.NewPCG(1, 1))
	examples, err := PlayGame(o, cfg, rng)
	if err != nil {
		t.Fatalf("PlayGame failed: %v", err)
	}
	if len(examples) == 0 {
		t.Fatalf("expected at least one training example")
	}
	for i, ex := range examples {
		if ex.ValueTarget < -1 || ex.ValueTarget > 1 {
			t.Fatalf("example %d has out-of-range value target %f", i, ex.ValueTarget)
		}
		var sum float32
		for _, p := range ex.Policy {
			sum += p
		}
		if sum < 0.999 || sum > 1.001 {
			t.Fatalf("example %d policy does not sum to 1, got %f", i, sum)
		}
	}
}

func TestPlayGameDeterministicGivenSameSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MCTS.NumSearches = 8
	cfg.MaxPlies = 10

	o := &oracle.MockOracle{Value: 0.2}
	for a := range o.Policy {
		o.Policy[a] = 1
	}

	run := func() []oracle.TrainingExample {
		rng := rand.New(rand.NewPCG(3, 4))
		ex, err := PlayGame(o, cfg, rng)
		if err != nil {
			t.Fatalf("PlayGame failed: %v", err)
		}
		return ex
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("expected identical game lengths, got %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ValueTarget != b[i].ValueTarget || a[i].Policy != b[i].Policy {
			t.Fatalf("expected identical example %d across runs with the same seed", i)
		}
	}
}

// mateInOneFixture mirrors internal/mcts's fixture of the same name: White
// to move has exactly one mating move, Rh1-h8, a back-rank mate against a
// king boxed in by its own pawns on a7/b7.
func mateInOneFixture() (chess.Position, int) {
	var p chess.Position
	for i := range p.TypeAt {
		p.TypeAt[i] = chess.NoPiece
	}
	place := func(pt chess.PieceType, sq chess.Square) {
		p.TypeAt[sq] = pt
		p.Pieces[pt].Set(sq)
	}
	place(chess.WhiteKing, 4)
	place(chess.WhiteRook, 7)
	place(chess.BlackKing, 56)
	place(chess.BlackPawn, 48)
	place(chess.BlackPawn, 49)
	p.Flags.EnPassantFile = -1
	p.RecomputeZobrist()

	mateAction := chess.EncodeAction(7, 6) // Rh1-h8: north slide, length 7
	return p, mateAction
}

// TestFillOutcomeAssignsWinnerAPositiveTarget exercises the exact sign path
// the training-data bug lived in: the example recorded for the mating
// move's own mover must end up with ValueTarget > 0 (a win), not < 0.
func TestFillOutcomeAssignsWinnerAPositiveTarget(t *testing.T) {
	p, mateAction := mateInOneFixture()
	mask, kingCaptured := chess.LegalMoves(p)
	if kingCaptured || !mask[mateAction] {
		t.Fatalf("fixture's mating move is not legal: mask[%d]=%v kingCaptured=%v", mateAction, mask[mateAction], kingCaptured)
	}

	next, _ := chess.Apply(p, mateAction)
	value, terminal := chess.Terminal(&next, nil)
	if !terminal || value != -1 {
		t.Fatalf("expected the mating move to reach a checkmate terminal (-1,true), got (%d,%v)", value, terminal)
	}

	examples := []oracle.TrainingExample{{Flags: p.Flags}}
	fillOutcome(examples, float32(-value))

	if examples[0].ValueTarget != 1 {
		t.Fatalf("expected the mating side's recorded example to get ValueTarget 1, got %f", examples[0].ValueTarget)
	}
}

func TestSampleActionGreedyAtZeroTemperature(t *testing.T) {
	var policy [chess.NumActions]float32
	policy[10] = 0.2
	policy[42] = 0.7
	policy[100] = 0.1

	rng := rand.New(rand.NewPCG(5, 6))
	got := sampleAction(policy, 0, rng)
	if got != 42 {
		t.Fatalf("expected greedy sampling to pick the highest-probability action 42, got %d", got)
	}
}

func TestCheckpointLogFormat(t *testing.T) {
	var sb strings.Builder
	c := &LogCheckpointer{W: &sb}
	if err := c.Checkpoint(IterationResult{Iteration: 3, RunID: "abc", GamesPlayed: 8, ExamplesSeen: 120}); err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}
	line := sb.String()
	for _, want := range []string{"iteration=3", "run=abc", "games=8", "examples=120"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected checkpoint line to contain %q, got %q", want, line)
		}
	}
}
