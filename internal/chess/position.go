package chess

// Flags packs the small per-position fields that aren't bitboards. Field
// widths mirror spec.md's wire layout even though Go doesn't need the exact
// bit packing internally; saturation is applied explicitly where the spec
// calls for it rather than relying on integer wraparound.
type Flags struct {
	Turn           Side  // real colour of the side to move (the flip does not change it); used for move counters, the Zobrist turn key and Encode
	CastleRights   uint8 // bit0=WQ, bit1=WK, bit2=BQ, bit3=BK
	EnPassantFile  int8  // -1 = none, else file [0,7] of the rank-5 capture-landing square
	RepeatedState  uint8 // 0=first, 1=second, 2+=third-or-more
	HalfMoveCount  uint8 // plies since last pawn move/capture, saturates at 63
	NoProgressSide Side
	TotalMoveCount uint16 // saturates at 255 per spec's 8-bit wire field
}

const (
	CastleWQ uint8 = 1 << iota
	CastleWK
	CastleBQ
	CastleBK
)

const maxHalfMoveCount = 63
const maxTotalMoveCount = 255

func (f *Flags) incHalfMove() {
	if f.HalfMoveCount < maxHalfMoveCount {
		f.HalfMoveCount++
	}
}

func (f *Flags) incTotalMove() {
	if f.TotalMoveCount < maxTotalMoveCount {
		f.TotalMoveCount++
	}
}

// Position is the immutable value type the whole engine operates on. The
// mover is always encoded in the low six PieceType slots (WhitePawn..
// WhiteKing); Apply performs the 180-degree perspective flip that restores
// this invariant after every move (see transition.go).
type Position struct {
	Pieces  [NumPieceTypes]Bitboard
	TypeAt  [NumSquares]PieceType
	Flags   Flags
	Zobrist uint64
}

// initial position square assignments, ported verbatim from
// original_source/src/State.cpp. Note the king sits on square 3 and the
// queen on square 4 — one file left of real-world chess — which is a
// self-consistent convention the castling arithmetic in transition.go
// depends on throughout; see DESIGN.md Open Question decision 3.
const (
	initWhitePawns   Bitboard = 0x000000000000ff00
	initWhiteKnights Bitboard = 0x0000000000000042
	initWhiteBishops Bitboard = 0x0000000000000024
	initWhiteRooks   Bitboard = 0x0000000000000081
	initWhiteQueen   Bitboard = 0x0000000000000010
	initWhiteKing    Bitboard = 0x0000000000000008

	initBlackPawns   Bitboard = 0x00ff000000000000
	initBlackKnights Bitboard = 0x4200000000000000
	initBlackBishops Bitboard = 0x2400000000000000
	initBlackRooks   Bitboard = 0x8100000000000000
	initBlackQueen   Bitboard = 0x1000000000000000
	initBlackKing    Bitboard = 0x0800000000000000
)

// NewInitialPosition returns the standard starting position, mover = White.
func NewInitialPosition() Position {
	var p Position
	p.Pieces[WhitePawn] = initWhitePawns
	p.Pieces[WhiteKnight] = initWhiteKnights
	p.Pieces[WhiteBishop] = initWhiteBishops
	p.Pieces[WhiteRook] = initWhiteRooks
	p.Pieces[WhiteQueen] = initWhiteQueen
	p.Pieces[WhiteKing] = initWhiteKing
	p.Pieces[BlackPawn] = initBlackPawns
	p.Pieces[BlackKnight] = initBlackKnights
	p.Pieces[BlackBishop] = initBlackBishops
	p.Pieces[BlackRook] = initBlackRooks
	p.Pieces[BlackQueen] = initBlackQueen
	p.Pieces[BlackKing] = initBlackKing

	for sq := 0; sq < NumSquares; sq++ {
		p.TypeAt[sq] = NoPiece
	}
	for pt := PieceType(0); pt < NumPieceTypes; pt++ {
		bb := p.Pieces[pt]
		for bb != 0 {
			lsb := bb.LSB()
			p.TypeAt[lsb.CTZ()] = pt
			bb &^= lsb
		}
	}

	p.Flags.Turn = White
	p.Flags.CastleRights = CastleWQ | CastleWK | CastleBQ | CastleBK
	p.Flags.EnPassantFile = -1
	p.Flags.NoProgressSide = White

	p.Zobrist = p.computeZobrist()
	return p
}

// Occupied returns the union of every piece's bitboard.
func (p *Position) Occupied() Bitboard {
	var u Bitboard
	for _, bb := range p.Pieces {
		u |= bb
	}
	return u
}

// WhiteOccupied / BlackOccupied return the union of one side's pieces.
func (p *Position) WhiteOccupied() Bitboard {
	var u Bitboard
	for pt := WhitePawn; pt <= WhiteKing; pt++ {
		u |= p.Pieces[pt]
	}
	return u
}

func (p *Position) BlackOccupied() Bitboard {
	var u Bitboard
	for pt := BlackPawn; pt <= BlackKing; pt++ {
		u |= p.Pieces[pt]
	}
	return u
}

// KingSquare returns the square of the given side's king, or -1 if absent
// (an invariant violation — see spec.md §7's "invariant violation" error
// kind). LegalMoves rejects any candidate whose result has no mover king.
func (p *Position) KingSquare(side Side) Square {
	pt := WhiteKing
	if side == Black {
		pt = BlackKing
	}
	bb := p.Pieces[pt]
	if bb == 0 {
		return -1
	}
	return Square(bb.CTZ())
}
