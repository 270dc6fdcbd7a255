package chess

// Apply is the pure state-transition function: it decodes action, applies it
// to a copy of p, and returns the resulting position already rotated back
// into canonical (mover-in-low-six-slots) orientation, plus a flag telling
// the caller whether the repetition map must be cleared (pawn move or
// capture — an irreversible move). Ported from original_source's
// StateTransition::getNextState; see DESIGN.md for the specific points
// where this Go port diverges from (or corrects) the C++ source.
func Apply(p Position, action int) (Position, bool) {
	fromSq, moveType := DecodeAction(action)
	movingType := p.TypeAt[fromSq]

	next, toSq, capturedType, enPassantCapture := stepMove(p, fromSq, moveType)
	captureOccurred := capturedType != NoPiece

	// 7: flags, pre-flip (mover-relative).
	pawnMoved := movingType == WhitePawn
	resetsRepetition := pawnMoved || captureOccurred || enPassantCapture

	flags := next.Flags
	if movingType == WhiteKing {
		flags.CastleRights &^= CastleWQ | CastleWK
	}
	if movingType == WhiteRook {
		if fromSq == 0 {
			flags.CastleRights &^= CastleWQ
		} else if fromSq == 7 {
			flags.CastleRights &^= CastleWK
		}
	}
	if capturedType == BlackRook {
		if toSq == 56 {
			flags.CastleRights &^= CastleBQ
		} else if toSq == 63 {
			flags.CastleRights &^= CastleBK
		}
	}

	if movingType == WhitePawn && moveType == 1 {
		flags.EnPassantFile = int8(int(fromSq) % 8)
	} else {
		flags.EnPassantFile = -1
	}

	if resetsRepetition {
		flags.HalfMoveCount = 0
		flags.NoProgressSide = flags.Turn
	} else {
		flags.incHalfMove()
	}

	if flags.Turn == Black {
		flags.incTotalMove()
	}
	flags.Turn = flags.Turn.Opponent()
	flags.RepeatedState = 0 // set by the caller after consulting the repetition map

	// 8: perspective flip — reverse every bitboard, swap white/black piece
	// slots pairwise, rebuild type_at, flip en-passant file and castle
	// rights. This restores the "mover sits in the low six slots" invariant.
	var flipped Position
	for pt := PieceType(0); pt < 6; pt++ {
		flipped.Pieces[pt] = next.Pieces[pt+6].Reverse()
		flipped.Pieces[pt+6] = next.Pieces[pt].Reverse()
	}
	for sq := 0; sq < NumSquares; sq++ {
		flipped.TypeAt[sq] = flipPieceType(next.TypeAt[63-sq])
	}
	flipped.Flags = flags
	if flags.EnPassantFile >= 0 {
		flipped.Flags.EnPassantFile = 7 - flags.EnPassantFile
	}
	flipped.Flags.CastleRights = flipCastleRights(flags.CastleRights)

	// 9: recompute zobrist. A full recompute is simplest to keep correct
	// across the flip; it is one 64-square pass over TypeAt with a key XOR
	// per occupied square, so it stays cheap relative to move generation.
	flipped.Zobrist = flipped.computeZobrist()

	return flipped, resetsRepetition
}

// stepMove performs the pure piece-movement half of Apply — moving the
// piece, the castling rook hop, capture removal, en passant capture, and
// promotion — without touching Flags or performing the perspective flip.
// generate.go's self-check legality test uses this directly: it needs to
// know whether the mover's king would be attacked immediately after the
// piece movement, which is evaluated in the *pre-flip* frame where the
// mover's own king is still at its WhiteKing bitboard.
func stepMove(p Position, fromSq Square, moveType int) (next Position, toSq Square, capturedType PieceType, enPassantCapture bool) {
	fromBB := Bitboard(1) << uint(fromSq)
	movingType := p.TypeAt[fromSq]

	toBB := applyMovement(fromBB, moveType)
	toSq = Square(toBB.CTZ())

	next = p // value copy

	capturedType = next.TypeAt[toSq]
	captureOccurred := capturedType != NoPiece

	// 1-2: move the piece.
	next.Pieces[movingType] &^= fromBB
	next.Pieces[movingType] |= toBB
	next.TypeAt[fromSq] = NoPiece
	next.TypeAt[toSq] = movingType
	if captureOccurred {
		next.Pieces[capturedType] &^= toBB
	}

	// 3: castling rook hop.
	if movingType == WhiteKing {
		switch moveType {
		case mtCastleRook0:
			moveRook(&next, 0, 2)
		case mtCastleRook7:
			moveRook(&next, 7, 4)
		}
	}

	// 5: en passant capture.
	if movingType == WhitePawn && p.Flags.EnPassantFile >= 0 {
		targetSq := Square(40 + int(p.Flags.EnPassantFile))
		if toSq == targetSq {
			capSq := targetSq - 8
			next.Pieces[BlackPawn] &^= Bitboard(1) << uint(capSq)
			next.TypeAt[capSq] = NoPiece
			enPassantCapture = true
		}
	}

	// 6: promotion.
	promoted := NoPiece
	if moveType >= mtPromoStart && moveType <= mtPromoEnd {
		switch {
		case moveType <= 66:
			promoted = WhiteKnight
		case moveType <= 69:
			promoted = WhiteBishop
		default:
			promoted = WhiteRook
		}
	} else if movingType == WhitePawn && toBB&rank8 != 0 {
		promoted = WhiteQueen
	}
	if promoted != NoPiece {
		next.Pieces[WhitePawn] &^= toBB
		next.Pieces[promoted] |= toBB
		next.TypeAt[toSq] = promoted
	}

	return next, toSq, capturedType, enPassantCapture
}

func moveRook(p *Position, fromSq, toSq Square) {
	fromBB := Bitboard(1) << uint(fromSq)
	toBB := Bitboard(1) << uint(toSq)
	p.Pieces[WhiteRook] &^= fromBB
	p.Pieces[WhiteRook] |= toBB
	p.TypeAt[fromSq] = NoPiece
	p.TypeAt[toSq] = WhiteRook
}

// flipCastleRights swaps queenside<->kingside rights along with the
// white<->black swap the rest of the flip performs: a rook on file 0
// reappears on file 7 after a full-board reversal (file f -> 7-f), so the
// bit that used to mean "my queenside rook may still castle" means "the new
// opponent's kingside rook may still castle" afterward.
func flipCastleRights(r uint8) uint8 {
	var out uint8
	if r&CastleBK != 0 {
		out |= CastleWQ
	}
	if r&CastleBQ != 0 {
		out |= CastleWK
	}
	if r&CastleWK != 0 {
		out |= CastleBQ
	}
	if r&CastleWQ != 0 {
		out |= CastleBK
	}
	return out
}
