package mcts

import (
	"math/rand/v2"
	"testing"

	"chesszero/internal/chess"
	"chesszero/internal/oracle"
)

func newTestRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestSearchReturnsProbabilityDistribution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSearches = 64
	o := &oracle.MockOracle{Value: 0}
	for a := range o.Policy {
		o.Policy[a] = 1
	}

	s := NewSearcher(o, cfg)
	p := chess.NewInitialPosition()
	out, err := s.Search([]chess.Position{p}, chess.RepetitionMap{p.Zobrist: 1}, newTestRNG())
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	var sum float32
	for a, prob := range out {
		if prob < 0 {
			t.Fatalf("action %d has negative probability %f", a, prob)
		}
		sum += prob
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("expected root visit distribution to sum to 1, got %f", sum)
	}

	mask, _ := chess.LegalMoves(p)
	for a, prob := range out {
		if prob > 0 && !mask[a] {
			t.Fatalf("search assigned mass %f to illegal action %d", prob, a)
		}
	}
}

func TestSearchIsDeterministicGivenSameSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumSearches = 32
	o := &oracle.MockOracle{Value: 0.1}
	for a := range o.Policy {
		o.Policy[a] = 1
	}
	p := chess.NewInitialPosition()

	run := func() [chess.NumActions]float32 {
		s := NewSearcher(o, cfg)
		out, err := s.Search([]chess.Position{p}, chess.RepetitionMap{p.Zobrist: 1}, rand.New(rand.NewPCG(7, 9)))
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		return out
	}

	a, b := run(), run()
	if a != b {
		t.Fatalf("expected identical output from identical seed, got %v vs %v", a, b)
	}
}

// mateInOneFixture returns a position where White to move has exactly one
// mating move: Rh1-h8, a back-rank mate against a king boxed in by its own
// pawns on a7/b7. Built by hand (bypassing normal play) the same way
// internal/chess's TestPromotionEnumeration does.
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

func TestSearchConcentratesVisitsOnForcedMate(t *testing.T) {
	p, mateAction := mateInOneFixture()
	mask, kingCaptured := chess.LegalMoves(p)
	if kingCaptured || !mask[mateAction] {
		t.Fatalf("fixture's mating move is not legal: mask[%d]=%v kingCaptured=%v", mateAction, mask[mateAction], kingCaptured)
	}

	next, _ := chess.Apply(p, mateAction)
	if value, terminal := chess.Terminal(&next, nil); !terminal || value != -1 {
		t.Fatalf("expected the mating move to reach a checkmate terminal (-1,true), got (%d,%v)", value, terminal)
	}

	cfg := DefaultConfig()
	cfg.NumSearches = 200
	cfg.DirichletEpsilon = 0 // isolate PUCT behaviour from root noise
	o := &oracle.MockOracle{Value: 0}
	for a := range o.Policy {
		o.Policy[a] = 1
	}

	s := NewSearcher(o, cfg)
	out, err := s.Search([]chess.Position{p}, chess.RepetitionMap{p.Zobrist: 1}, newTestRNG())
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	for a, prob := range out {
		if a != mateAction && prob > out[mateAction] {
			t.Fatalf("expected the mating move %d to receive the most visits, but action %d got more (%f > %f)", mateAction, a, prob, out[mateAction])
		}
	}
	if out[mateAction] <= 0 {
		t.Fatalf("expected the mating move to receive nonzero visit mass, got %f", out[mateAction])
	}
}

func TestPuctPrefersHigherPriorWhenUnvisited(t *testing.T) {
	low := &Node{Prior: 0.01}
	high := &Node{Prior: 0.9}
	if puctScore(high, 10, 2.0) <= puctScore(low, 10, 2.0) {
		t.Fatalf("expected higher prior to score higher among equally-unvisited children")
	}
}

func TestPuctExplorationTermShrinksWithVisits(t *testing.T) {
	child := &Node{Prior: 0.5, VisitCount: 0}
	unvisited := puctScore(child, 100, 2.0)
	child.VisitCount = 50
	child.ValueSum = 0 // meanValue 0 -> Q stays at 0.5
	visited := puctScore(child, 100, 2.0)
	if visited >= unvisited {
		t.Fatalf("expected PUCT score to drop as visit count grows holding Q fixed: unvisited=%f visited=%f", unvisited, visited)
	}
}
