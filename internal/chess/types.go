package chess

// Side is the player to move from the pure-transition's own perspective.
// Apply always returns a position expressed from White's point of
// view (see transition.go's perspective flip), so Side is mostly useful at
// the boundary (reporting game outcomes, picking starting positions).
type Side int8

const (
	White Side = 0
	Black Side = 1
)

func (s Side) Opponent() Side {
	return 1 - s
}

// PieceType enumerates the 12 piece/color combinations plus the empty-square
// sentinel. Ordering matches original_source's bb::PieceType exactly: the
// Zobrist tables, move transition, and perspective-flip pairing all depend
// on White pieces occupying indices [0,6) and Black occupying [6,12) in the
// same piece order.
type PieceType int8

const (
	WhitePawn PieceType = iota
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
	NoPiece
)

const NumPieceTypes = 12

func (pt PieceType) IsWhite() bool { return pt >= WhitePawn && pt <= WhiteKing }
func (pt PieceType) IsBlack() bool { return pt >= BlackPawn && pt <= BlackKing }

func (pt PieceType) Side() Side {
	if pt.IsBlack() {
		return Black
	}
	return White
}

// flipPieceType maps a piece type to its same-rank opposite color, e.g.
// WhiteKnight <-> BlackKnight. Used by the perspective flip in transition.go.
func flipPieceType(pt PieceType) PieceType {
	if pt == NoPiece {
		return NoPiece
	}
	if pt.IsWhite() {
		return pt + 6
	}
	return pt - 6
}

// pieceLetters indexes PieceType for FEN-style encode/decode (fen.go).
var pieceLetters = [NumPieceTypes]byte{
	'P', 'N', 'B', 'R', 'Q', 'K',
	'p', 'n', 'b', 'r', 'q', 'k',
}

// Square is a 0-63 board index; bit i of a bitboard corresponds to Square i.
// Square 0 is the first square of rank 1 (a1 under the real-chess file/rank
// naming); square 7 the last square of rank 1; square 56 the first square of
// rank 8. This matches original_source's single fixed indexing convention.
type Square int8

const NumSquares = 64

func (sq Square) File() int { return int(sq) % 8 }
func (sq Square) Rank() int { return int(sq) / 8 }

func squareOf(file, rank int) Square { return Square(rank*8 + file) }
