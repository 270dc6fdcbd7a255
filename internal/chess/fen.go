package chess

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidFEN is returned by DecodePosition for any malformed input.
var ErrInvalidFEN = errors.New("invalid FEN")

// Encode renders p as a FEN-like debug string: board ranks 8..1, then the
// real side to move (Flags.Turn) — note the board itself always shows the
// mover's pieces in the White slots per this engine's canonical-frame
// invariant, so an encoded position with Turn=Black has its actual Black
// pieces printed as uppercase. This is a debug/test aid, not a wire format
// consumed by any other component.
func (p *Position) Encode() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		if rank < 7 {
			sb.WriteByte('/')
		}
		empty := 0
		for file := 0; file < 8; file++ {
			pt := p.TypeAt[squareOf(file, rank)]
			if pt == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pieceLetters[pt])
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	sb.WriteByte(' ')
	if p.Flags.Turn == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(castleString(p.Flags.CastleRights))
	sb.WriteByte(' ')
	if p.Flags.EnPassantFile >= 0 {
		sb.WriteString(strconv.Itoa(int(p.Flags.EnPassantFile)))
	} else {
		sb.WriteByte('-')
	}
	return sb.String()
}

func castleString(rights uint8) string {
	if rights == 0 {
		return "-"
	}
	var sb strings.Builder
	if rights&CastleWK != 0 {
		sb.WriteByte('K')
	}
	if rights&CastleWQ != 0 {
		sb.WriteByte('Q')
	}
	if rights&CastleBK != 0 {
		sb.WriteByte('k')
	}
	if rights&CastleBQ != 0 {
		sb.WriteByte('q')
	}
	return sb.String()
}

var letterToPieceType = map[byte]PieceType{
	'P': WhitePawn, 'N': WhiteKnight, 'B': WhiteBishop, 'R': WhiteRook, 'Q': WhiteQueen, 'K': WhiteKing,
	'p': BlackPawn, 'n': BlackKnight, 'b': BlackBishop, 'r': BlackRook, 'q': BlackQueen, 'k': BlackKing,
}

// DecodePosition parses the debug format Encode produces. It does not
// attempt to validate chess legality of the resulting position — it is a
// test fixture loader, not a user-facing import path.
func DecodePosition(fen string) (*Position, error) {
	fields := strings.Split(strings.TrimSpace(fen), " ")
	if len(fields) < 4 {
		return nil, ErrInvalidFEN
	}

	var p Position
	for i := range p.TypeAt {
		p.TypeAt[i] = NoPiece
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, ErrInvalidFEN
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for _, ch := range row {
			if file >= 8 {
				return nil, ErrInvalidFEN
			}
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pt, ok := letterToPieceType[byte(ch)]
			if !ok {
				return nil, ErrInvalidFEN
			}
			sq := squareOf(file, rank)
			p.TypeAt[sq] = pt
			p.Pieces[pt].Set(sq)
			file++
		}
		if file != 8 {
			return nil, ErrInvalidFEN
		}
	}

	switch fields[1] {
	case "w":
		p.Flags.Turn = White
	case "b":
		p.Flags.Turn = Black
	default:
		return nil, ErrInvalidFEN
	}

	for _, ch := range fields[2] {
		switch ch {
		case 'K':
			p.Flags.CastleRights |= CastleWK
		case 'Q':
			p.Flags.CastleRights |= CastleWQ
		case 'k':
			p.Flags.CastleRights |= CastleBK
		case 'q':
			p.Flags.CastleRights |= CastleBQ
		case '-':
		default:
			return nil, ErrInvalidFEN
		}
	}

	if fields[3] == "-" {
		p.Flags.EnPassantFile = -1
	} else {
		n, err := strconv.Atoi(fields[3])
		if err != nil || n < 0 || n > 7 {
			return nil, ErrInvalidFEN
		}
		p.Flags.EnPassantFile = int8(n)
	}

	p.Flags.NoProgressSide = White
	p.Zobrist = p.computeZobrist()
	return &p, nil
}
