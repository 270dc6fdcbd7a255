package mcts

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"chesszero/internal/chess"
	"chesszero/internal/oracle"
)

// Searcher runs one spec.md §4.6 search per call. Concurrency is
// single-threaded per search (spec §5); the self-play driver parallelizes
// across independent games, not within one tree.
type Searcher struct {
	Oracle oracle.Oracle
	Cfg    Config
}

func NewSearcher(o oracle.Oracle, cfg Config) *Searcher {
	return &Searcher{Oracle: o, Cfg: cfg}
}

// Search takes the last HistoryLength positions ending at the root (oldest
// first) and an immutable repetition-map snapshot, and returns the root's
// visit distribution over the full action space, normalised to sum to 1.
// Actions without a child get 0.
func (s *Searcher) Search(history []chess.Position, rep chess.RepetitionMap, rng *rand.Rand) ([chess.NumActions]float32, error) {
	var zero [chess.NumActions]float32
	root := history[len(history)-1]

	arena := make([]Node, 0, 256)
	arena = append(arena, Node{Position: root, ParentIdx: -1, ActionTaken: -1, VisitCount: 1})

	rootMask, kingCaptured := chess.LegalMoves(root)
	if kingCaptured {
		return zero, errors.New("invariant violation: king_captured at mcts root")
	}

	rawPolicy, _, err := s.Oracle.Evaluate(history)
	if err != nil {
		return zero, errors.Wrap(err, "oracle evaluation of mcts root")
	}

	policy := maskAndNormalize(rawPolicy, &rootMask)
	if n := countLegal(&rootMask); n > 0 && s.Cfg.DirichletEpsilon > 0 {
		noise := oracle.DirichletNoise(rng, s.Cfg.DirichletAlpha, n)
		mixDirichletNoise(policy[:], &rootMask, noise, s.Cfg.DirichletEpsilon)
	}

	expand(&arena, 0, policy, &rootMask)

	for iter := 0; iter < s.Cfg.NumSearches; iter++ {
		working := rep.Clone()
		leafIdx := selectLeaf(arena, s.Cfg.C, working)

		leafMask, leafKingCaptured := chess.LegalMoves(arena[leafIdx].Position)
		if leafKingCaptured {
			return zero, errors.New("invariant violation: king_captured during mcts selection")
		}

		value, terminal := chess.Terminal(&arena[leafIdx].Position, &leafMask)
		var v float32
		if terminal {
			// Terminal already returns the value from the leaf mover's own
			// point of view (spec.md §4.5, DESIGN decision 6), the same
			// perspective the non-terminal branch's modelValue carries — no
			// extra negation here.
			v = float32(value)
		} else {
			leafHistory := historyAt(arena, leafIdx, s.Cfg.HistoryLength)
			leafPolicy, modelValue, err := s.Oracle.Evaluate(leafHistory)
			if err != nil {
				return zero, errors.Wrap(err, "oracle evaluation of mcts leaf")
			}
			masked := maskAndNormalize(leafPolicy, &leafMask)
			expand(&arena, leafIdx, masked, &leafMask)
			v = modelValue
		}
		backpropagate(arena, leafIdx, v)
	}

	var out [chess.NumActions]float32
	var sum float32
	for _, childIdx := range arena[0].Children {
		child := arena[childIdx]
		out[child.ActionTaken] = float32(child.VisitCount)
		sum += float32(child.VisitCount)
	}
	if sum > 0 {
		for a := range out {
			out[a] /= sum
		}
	}
	return out, nil
}

// expand creates one child per action with a nonzero mixed-in policy mass,
// in ascending action-index order — this fixes the insertion order spec.md
// §4.6 requires for PUCT tie-breaking.
func expand(arena *[]Node, parentIdx int, policy [chess.NumActions]float32, mask *[chess.NumActions]bool) {
	parentPos := (*arena)[parentIdx].Position
	for action := 0; action < chess.NumActions; action++ {
		if !mask[action] || policy[action] <= 0 {
			continue
		}
		next, resets := chess.Apply(parentPos, action)
		*arena = append(*arena, Node{
			Position:    next,
			ParentIdx:   parentIdx,
			ActionTaken: action,
			Prior:       policy[action],
			ClearMap:    resets,
		})
		childIdx := len(*arena) - 1
		(*arena)[parentIdx].Children = append((*arena)[parentIdx].Children, childIdx)
	}
}

// selectLeaf descends from the root choosing the PUCT-maximising child at
// each step, updating the caller-owned working map (Search passes a fresh
// per-iteration clone) as it goes (spec.md §4.6 step 3b).
func selectLeaf(arena []Node, c float64, rep chess.RepetitionMap) int {
	cur := 0
	for len(arena[cur].Children) > 0 {
		parentVisits := arena[cur].VisitCount
		best := -1
		bestScore := math.Inf(-1)
		for _, childIdx := range arena[cur].Children {
			score := puctScore(&arena[childIdx], parentVisits, c)
			if score > bestScore {
				bestScore = score
				best = childIdx
			}
		}
		cur = best
		if arena[cur].ClearMap {
			for k := range rep {
				delete(rep, k)
			}
		}
		count := rep.Increment(arena[cur].Position.Zobrist)
		arena[cur].Position.Flags.RepeatedState = chess.RepeatedStateTag(count)
	}
	return cur
}

func backpropagate(arena []Node, leafIdx int, value float32) {
	cur, v := leafIdx, value
	for cur != -1 {
		arena[cur].VisitCount++
		arena[cur].ValueSum += v
		v = -v
		cur = arena[cur].ParentIdx
	}
}

// historyAt walks parent links from idx to reconstruct the last n
// positions (idx itself included), oldest-first, padding with the oldest
// available position when the tree doesn't yet have n ancestors.
func historyAt(arena []Node, idx, n int) []chess.Position {
	hist := make([]chess.Position, 0, n)
	cur := idx
	for cur != -1 && len(hist) < n {
		hist = append(hist, arena[cur].Position)
		cur = arena[cur].ParentIdx
	}
	for len(hist) < n && len(hist) > 0 {
		hist = append(hist, hist[len(hist)-1])
	}
	for i, j := 0, len(hist)-1; i < j; i, j = i+1, j-1 {
		hist[i], hist[j] = hist[j], hist[i]
	}
	return hist
}

// maskAndNormalize zeroes illegal actions and renormalises to sum to 1,
// falling back to a uniform distribution over legal moves if the raw
// policy assigned them no mass at all.
func maskAndNormalize(policy [chess.NumActions]float32, mask *[chess.NumActions]bool) [chess.NumActions]float32 {
	var out [chess.NumActions]float32
	var sum float32
	for a, ok := range mask {
		if !ok || policy[a] <= 0 {
			continue
		}
		out[a] = policy[a]
		sum += policy[a]
	}
	if sum <= 0 {
		n := countLegal(mask)
		if n == 0 {
			return out
		}
		u := float32(1) / float32(n)
		for a, ok := range mask {
			if ok {
				out[a] = u
			}
		}
		return out
	}
	for a := range out {
		out[a] /= sum
	}
	return out
}

// mixDirichletNoise implements p' = (1-eps)*p + eps*Dir, mapping the
// k-length noise vector onto legal actions in ascending index order.
func mixDirichletNoise(policy []float32, mask *[chess.NumActions]bool, noise []float64, epsilon float64) {
	i := 0
	for a, ok := range mask {
		if !ok {
			continue
		}
		policy[a] = float32((1-epsilon)*float64(policy[a]) + epsilon*noise[i])
		i++
	}
}

func countLegal(mask *[chess.NumActions]bool) int {
	n := 0
	for _, ok := range mask {
		if ok {
			n++
		}
	}
	return n
}
