package chess

// Terminal evaluates whether p is a finished game, returning the outcome
// value from the *mover's* perspective. Grounded on original_source's
// GameStatus.cpp, with the checkmate sign corrected to match spec.md §4.5
// (see DESIGN.md Open Question 6) and the fifty-move threshold taken
// literally at 50 plies rather than the real-chess 100 (Open Question 1).
//
// mask may be nil, in which case LegalMoves is computed internally; callers
// that already hold a mask from search should pass it to avoid recomputing.
func Terminal(p *Position, mask *[NumActions]bool) (value int, terminal bool) {
	if p.Flags.RepeatedState >= 2 {
		return 0, true
	}
	if p.Flags.HalfMoveCount >= 50 {
		return 0, true
	}
	if insufficientMaterial(p) {
		return 0, true
	}

	var m [NumActions]bool
	if mask != nil {
		m = *mask
	} else {
		m, _ = LegalMoves(*p)
	}
	if !anyTrue(&m) {
		if InCheck(p) {
			return -1, true
		}
		return 0, true
	}
	return 0, false
}

func anyTrue(m *[NumActions]bool) bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

// insufficientMaterial covers the three draw patterns spec.md §4.5 names:
// bare kings, king+minor vs bare king, and king+bishop vs king+bishop
// where both bishops sit on the same square colour.
func insufficientMaterial(p *Position) bool {
	if p.Pieces[WhitePawn] != 0 || p.Pieces[BlackPawn] != 0 ||
		p.Pieces[WhiteRook] != 0 || p.Pieces[BlackRook] != 0 ||
		p.Pieces[WhiteQueen] != 0 || p.Pieces[BlackQueen] != 0 {
		return false
	}

	whiteMinors := p.Pieces[WhiteKnight].PopCount() + p.Pieces[WhiteBishop].PopCount()
	blackMinors := p.Pieces[BlackKnight].PopCount() + p.Pieces[BlackBishop].PopCount()

	if whiteMinors == 0 && blackMinors == 0 {
		return true
	}
	if whiteMinors+blackMinors == 1 {
		return true
	}
	if whiteMinors == 1 && blackMinors == 1 &&
		p.Pieces[WhiteBishop].PopCount() == 1 && p.Pieces[BlackBishop].PopCount() == 1 {
		wb := p.Pieces[WhiteBishop].CTZ()
		bb := p.Pieces[BlackBishop].CTZ()
		return squareColor(wb) == squareColor(bb)
	}
	return false
}

// squareColor returns 0 or 1 depending on the light/dark checkerboard
// colour of sq, using the standard (rank+file) parity test.
func squareColor(sq int) int {
	r, f := sq/8, sq%8
	return (r + f) % 2
}
