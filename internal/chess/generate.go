package chess

// slideDeltas gives the (rank, file) step for each of the 8 compass
// directions, in the same group order as moveTypeToShift: a slide of length
// n in direction d is move type d*7+(n-1), matching the table exactly.
var slideDeltas = [8]struct{ dr, df int }{
	{1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}, {0, 1}, {1, 1},
}

const (
	dirN = iota
	dirNE
	dirE
	dirSE
	dirS
	dirSW
	dirW
	dirNW
)

var rookDirs = [4]int{dirN, dirE, dirS, dirW}
var bishopDirs = [4]int{dirNE, dirSE, dirSW, dirNW}
var queenDirs = [8]int{dirN, dirNE, dirE, dirSE, dirS, dirSW, dirW, dirNW}

// knightDeltas order matches moveTypeToShift[56:64] exactly, so move type
// mtKnightStart+i is the jump described by knightDeltas[i].
var knightDeltas = [8]struct{ dr, df int }{
	{2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}, {1, 2}, {2, 1},
}

type candidate struct {
	from Square
	mt   int
}

// pseudoMoves enumerates candidate (from, moveType) pairs for the side to
// move, which by invariant always occupies the White piece slots. Special
// moves (en passant, castling, underpromotion) are folded in inline per
// spec.md §4.3 rather than appended as a separate pass.
func pseudoMoves(p *Position) []candidate {
	var out []candidate
	occ := p.Occupied()
	own := p.WhiteOccupied()

	for sq := Square(0); sq < NumSquares; sq++ {
		switch p.TypeAt[sq] {
		case WhiteRook:
			slideMoves(&out, sq, rookDirs[:], occ, own)
		case WhiteBishop:
			slideMoves(&out, sq, bishopDirs[:], occ, own)
		case WhiteQueen:
			slideMoves(&out, sq, queenDirs[:], occ, own)
		case WhiteKnight:
			knightMoves(&out, sq, own)
		case WhiteKing:
			kingMoves(&out, sq, own, p)
		case WhitePawn:
			pawnMoves(&out, sq, p)
		}
	}
	return out
}

func slideMoves(out *[]candidate, from Square, dirs []int, occ, own Bitboard) {
	rank, file := from.Rank(), from.File()
	for _, d := range dirs {
		delta := slideDeltas[d]
		for n := 1; n <= 7; n++ {
			r, f := rank+delta.dr*n, file+delta.df*n
			if r < 0 || r > 7 || f < 0 || f > 7 {
				break
			}
			to := squareOf(f, r)
			if own.Test(to) {
				break
			}
			*out = append(*out, candidate{from, d*7 + (n - 1)})
			if occ.Test(to) {
				break
			}
		}
	}
}

func knightMoves(out *[]candidate, from Square, own Bitboard) {
	rank, file := from.Rank(), from.File()
	for i, d := range knightDeltas {
		r, f := rank+d.dr, file+d.df
		if r < 0 || r > 7 || f < 0 || f > 7 {
			continue
		}
		if own.Test(squareOf(f, r)) {
			continue
		}
		*out = append(*out, candidate{from, mtKnightStart + i})
	}
}

func kingMoves(out *[]candidate, from Square, own Bitboard, p *Position) {
	rank, file := from.Rank(), from.File()
	for d := 0; d < 8; d++ {
		delta := slideDeltas[d]
		r, f := rank+delta.dr, file+delta.df
		if r < 0 || r > 7 || f < 0 || f > 7 {
			continue
		}
		if own.Test(squareOf(f, r)) {
			continue
		}
		*out = append(*out, candidate{from, d * 7})
	}

	occ := p.Occupied()
	// Castling: the attack check the original source omitted (see
	// DESIGN.md Open Question 2) is included here — neither the king's
	// origin nor any traversed square may be attacked.
	if p.Flags.CastleRights&CastleWQ != 0 && p.TypeAt[0] == WhiteRook &&
		!occ.Test(1) && !occ.Test(2) &&
		!squareAttackedByBlack(p, 3) && !squareAttackedByBlack(p, 2) && !squareAttackedByBlack(p, 1) {
		*out = append(*out, candidate{from, mtCastleRook0})
	}
	if p.Flags.CastleRights&CastleWK != 0 && p.TypeAt[7] == WhiteRook &&
		!occ.Test(4) && !occ.Test(5) && !occ.Test(6) &&
		!squareAttackedByBlack(p, 3) && !squareAttackedByBlack(p, 4) && !squareAttackedByBlack(p, 5) {
		*out = append(*out, candidate{from, mtCastleRook7})
	}
}

func pawnMoves(out *[]candidate, from Square, p *Position) {
	rank, file := from.Rank(), from.File()
	occ := p.Occupied()

	if r1 := rank + 1; r1 <= 7 {
		to1 := squareOf(file, r1)
		if !occ.Test(to1) {
			addPawnMove(out, from, 0, r1 == 7)
			if rank == 1 {
				to2 := squareOf(file, 3)
				if !occ.Test(to2) {
					*out = append(*out, candidate{from, 1})
				}
			}
		}
	}

	// Diagonal captures: NE1 (type 7, df=-1) and NW1 (type 49, df=+1) — the
	// same move types a bishop/queen would use for a single diagonal step.
	tryCapture := func(df, mt int) {
		f, r := file+df, rank+1
		if f < 0 || f > 7 || r > 7 {
			return
		}
		to := squareOf(f, r)
		if p.TypeAt[to].IsBlack() {
			addPawnMove(out, from, mt, r == 7)
			return
		}
		if p.Flags.EnPassantFile >= 0 && r == 5 && f == int(p.Flags.EnPassantFile) {
			*out = append(*out, candidate{from, mt})
		}
	}
	tryCapture(-1, 7)
	tryCapture(1, 49)
}

// addPawnMove appends the base move, plus the three underpromotion actions
// when it lands on the last rank (the queen promotion is the base move type
// itself — stepMove defaults a pawn reaching rank 8 to a queen).
func addPawnMove(out *[]candidate, from Square, mt int, promotes bool) {
	*out = append(*out, candidate{from, mt})
	if !promotes {
		return
	}
	switch mt {
	case 0:
		*out = append(*out, candidate{from, 65}, candidate{from, 68}, candidate{from, 71})
	case 7:
		*out = append(*out, candidate{from, 66}, candidate{from, 69}, candidate{from, 72})
	case 49:
		*out = append(*out, candidate{from, 64}, candidate{from, 67}, candidate{from, 70})
	}
}

// squareAttackedByBlack implements spec.md §4.3's "attacked" test: generate
// the opponent's pseudo-moves and check whether sq is among their
// destinations. Implemented as a reverse ray/jump scan from sq rather than a
// forward generate-and-OR, which is equivalent and avoids building a
// throwaway candidate slice per query.
func squareAttackedByBlack(p *Position, sq Square) bool {
	if sq < 0 {
		return false
	}
	rank, file := sq.Rank(), sq.File()

	for _, df := range [2]int{-1, 1} {
		f, r := file+df, rank+1
		if f < 0 || f > 7 || r > 7 {
			continue
		}
		if p.TypeAt[squareOf(f, r)] == BlackPawn {
			return true
		}
	}

	for _, d := range knightDeltas {
		r, f := rank+d.dr, file+d.df
		if r < 0 || r > 7 || f < 0 || f > 7 {
			continue
		}
		if p.TypeAt[squareOf(f, r)] == BlackKnight {
			return true
		}
	}

	for d := 0; d < 8; d++ {
		delta := slideDeltas[d]
		r, f := rank+delta.dr, file+delta.df
		if r < 0 || r > 7 || f < 0 || f > 7 {
			continue
		}
		if p.TypeAt[squareOf(f, r)] == BlackKing {
			return true
		}
	}

	if rayAttacked(p, sq, rookDirs[:], BlackRook, BlackQueen) {
		return true
	}
	if rayAttacked(p, sq, bishopDirs[:], BlackBishop, BlackQueen) {
		return true
	}
	return false
}

func rayAttacked(p *Position, from Square, dirs []int, want1, want2 PieceType) bool {
	rank, file := from.Rank(), from.File()
	for _, d := range dirs {
		delta := slideDeltas[d]
		for n := 1; n <= 7; n++ {
			r, f := rank+delta.dr*n, file+delta.df*n
			if r < 0 || r > 7 || f < 0 || f > 7 {
				break
			}
			pt := p.TypeAt[squareOf(f, r)]
			if pt == NoPiece {
				continue
			}
			if pt == want1 || pt == want2 {
				return true
			}
			break
		}
	}
	return false
}

// InCheck reports whether the side to move's king is attacked.
func InCheck(p *Position) bool {
	return squareAttackedByBlack(p, p.KingSquare(White))
}

// LegalMoves runs the self-check legality filter over every pseudo-move and
// returns the full action mask, plus kingCaptured — true iff some candidate
// captured the opposing king outright, which per spec.md §4.3 signals a
// generation or search bug upstream (the previous ply should have already
// terminated the game).
func LegalMoves(p Position) (mask [NumActions]bool, kingCaptured bool) {
	for _, c := range pseudoMoves(&p) {
		next, _, capturedType, _ := stepMove(p, c.from, c.mt)
		if capturedType == BlackKing {
			kingCaptured = true
		}
		ks := next.KingSquare(White)
		if ks < 0 || squareAttackedByBlack(&next, ks) {
			continue
		}
		mask[EncodeAction(c.from, c.mt)] = true
	}
	return mask, kingCaptured
}
