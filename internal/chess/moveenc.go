package chess

// The 73 movement types, grouped by direction (slides 1..7 for each of 8
// compass directions), 8 knight jumps, and 9 underpromotion types. Ported
// verbatim from original_source's MoveMapping.hpp moveTypeToShift table —
// this exact numbering is load-bearing because policy targets are indexed
// by action = moveType*64 + fromSquare.
const NumMoveTypes = 73
const NumActions = NumMoveTypes * NumSquares // 4672

const (
	mtKnightStart = 56
	mtKnightEnd   = 63 // inclusive
	mtPromoStart  = 64
	mtPromoEnd    = 72 // inclusive

	mtCastleRook0 = 15 // E slide 2 (shift -2): king square3 -> square1, rook square0 -> square2
	mtCastleRook7 = 43 // W slide 2 (shift +2): king square3 -> square5, rook square7 -> square4
)

var moveTypeToShift = [NumMoveTypes]int8{
	// 0-6: N slide 1..7
	8, 16, 24, 32, 40, 48, 56,
	// 7-13: NE slide 1..7
	7, 14, 21, 28, 35, 42, 49,
	// 14-20: E slide 1..7
	-1, -2, -3, -4, -5, -6, -7,
	// 21-27: SE slide 1..7
	-9, -18, -27, -36, -45, -54, -63,
	// 28-34: S slide 1..7
	-8, -16, -24, -32, -40, -48, -56,
	// 35-41: SW slide 1..7
	-7, -14, -21, -28, -35, -42, -49,
	// 42-48: W slide 1..7
	1, 2, 3, 4, 5, 6, 7,
	// 49-55: NW slide 1..7
	9, 18, 27, 36, 45, 54, 63,
	// 56-63: knight jumps
	15, 6, -10, -17, -15, -6, 10, 17,
	// 64-72: underpromotions (knight/bishop/rook, via NW-capture/N-push/NE-capture)
	9, 8, 7, 9, 8, 7, 9, 8, 7,
}

const shiftAmbiguous = -1

// shiftToType is indexed by shift+63; entries that are ambiguous between a
// slide and a knight jump (or between two opposite directions wrapping
// around a file boundary) are marked shiftAmbiguous and resolved by
// getMovementType using the from-square file.
var shiftToType [127]int

func init() {
	for i := range shiftToType {
		shiftToType[i] = shiftAmbiguous
	}
	set := func(shift, mt int) { shiftToType[shift+63] = mt }
	for mt := 0; mt < NumMoveTypes; mt++ {
		shift := int(moveTypeToShift[mt])
		if mt >= mtPromoStart {
			continue // underpromotion shifts collide with N/NE/NW slides; never looked up by shift alone
		}
		set(shift, mt)
	}
	// shift +7 is shared by NE-slide-1 (type 7) and W-slide-7 wraparound;
	// shift -7 is shared by SW-slide-1 (type 35) and E-slide-7 wraparound;
	// shift +6 is shared by W-slide-6 (type 47) and a knight jump (type 57);
	// shift -6 is shared by E-slide-6 (type 19) and a knight jump (type 61).
	// All four are marked ambiguous and resolved in getMovementType.
	shiftToType[7+63] = shiftAmbiguous
	shiftToType[-7+63] = shiftAmbiguous
	shiftToType[6+63] = shiftAmbiguous
	shiftToType[-6+63] = shiftAmbiguous
}

// getMovementType resolves a signed shift (destination square minus source
// square, expressed as a bit shift) plus the from-square and moving piece
// type into the unique move type. pieceType must be the canonical
// (white-slot) type, since move generation always runs in the mover's own
// perspective (see types.go's PieceType invariant).
func getMovementType(shift, fromSquare int, pieceType PieceType) int {
	base := shiftToType[shift+63]
	if base != shiftAmbiguous {
		return base
	}
	file := fromSquare % 8
	switch shift {
	case 7:
		if file == 0 {
			return 48
		}
		return 7
	case -7:
		if file == 7 {
			return 20
		}
		return 35
	case 6:
		if file <= 1 {
			return 47
		}
		return 57
	case -6:
		if file >= 6 {
			return 19
		}
		return 61
	}
	return -1
}

// applyMovement shifts a one-bit bitboard by the move type's signed shift.
// No wrap masking is performed; the caller must only invoke this for move
// types already known to be wrap-safe for the piece's origin square.
func applyMovement(fromBB Bitboard, moveType int) Bitboard {
	shift := moveTypeToShift[moveType]
	if shift > 0 {
		return fromBB << uint(shift)
	}
	return fromBB >> uint(-shift)
}

// getPromotionMovementTypes returns the three underpromotion move types
// (knight, bishop, rook) available when a white pawn's move lands on the
// last rank via the given shift, or {-1,-1,-1} if this isn't such a move.
func getPromotionMovementTypes(pieceType PieceType, toBB Bitboard, shift int) [3]int {
	if pieceType != WhitePawn || toBB&rank8 == 0 {
		return [3]int{-1, -1, -1}
	}
	switch shift {
	case 9:
		return [3]int{64, 67, 70}
	case 8:
		return [3]int{65, 68, 71}
	case 7:
		return [3]int{66, 69, 72}
	default:
		return [3]int{-1, -1, -1}
	}
}

// EncodeAction packs (fromSquare, moveType) into the spec's fixed action
// wire format.
func EncodeAction(fromSquare Square, moveType int) int {
	return moveType*NumSquares + int(fromSquare)
}

// DecodeAction is EncodeAction's inverse.
func DecodeAction(action int) (fromSquare Square, moveType int) {
	return Square(action % NumSquares), action / NumSquares
}
