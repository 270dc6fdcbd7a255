// Package mcts implements the PUCT search described in spec.md §4.6: a
// flat arena of nodes addressed by integer index (no pointers to free at
// end-of-search), driven by an external oracle.Oracle for policy/value.
// Grounded on original_source/src/MCTS.cpp's Node/arena design.
package mcts

import (
	"math"

	"chesszero/internal/chess"
)

// Node is one arena slot. ParentIdx is -1 for the root; ActionTaken is -1
// for the root and the action that produced this node otherwise. ClearMap
// records whether the edge into this node is an irreversible move (pawn
// move, capture, or en passant capture), i.e. whether selection must clear
// its working repetition map upon stepping onto this node.
type Node struct {
	Position    chess.Position
	ParentIdx   int
	ActionTaken int
	Prior       float32
	VisitCount  int
	ValueSum    float32
	ClearMap    bool
	Children    []int
}

// meanValue is the running average of backpropagated values from this
// node's own perspective, in [-1, 1].
func (n *Node) meanValue() float32 {
	if n.VisitCount == 0 {
		return 0
	}
	return n.ValueSum / float32(n.VisitCount)
}

// puctScore implements spec.md §4.6's formula exactly: Q rescales mean
// value from the child's own [-1,1] perspective into [0,1] "benefit to the
// parent" (an unvisited child defaults to Q=0.5, maximally uncertain).
func puctScore(child *Node, parentVisits int, c float64) float64 {
	q := 0.5
	if child.VisitCount > 0 {
		q = (1 - float64(child.meanValue())) / 2
	}
	u := c * float64(child.Prior) * math.Sqrt(float64(parentVisits)) / (1 + float64(child.VisitCount))
	return q + u
}
