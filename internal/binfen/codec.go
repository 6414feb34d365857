// Package binfen implements the canonical binary-FEN key encoding: a
// compact byte key for a chess position with color-symmetric
// canonicalization, so a position and its color-mirror image share one
// key.
package binfen

import (
	"bytes"

	"github.com/hailam/cdbserver/internal/chess"
	"github.com/hailam/cdbserver/internal/nibble"
)

// NaturalOrder records whether a canonical key was produced from the
// position as given (Same) or from its color-mirror image (Mirror).
type NaturalOrder int

const (
	Same NaturalOrder = iota
	Mirror
)

func (o NaturalOrder) String() string {
	if o == Mirror {
		return "Mirror"
	}
	return "Same"
}

// Key is a binary-FEN key: the byte 'h' followed by a packed nibble
// stream. Keys compare by ordinary byte-lexicographic ordering.
type Key []byte

var blackPieceNibble = [6]byte{3, 4, 5, 6, 7, 9}
var whitePieceNibble = [6]byte{0xa, 0xb, 0xc, 0xd, 0xe, 0xf}

func pieceNibble(p chess.Piece) byte {
	if p.Color() == chess.White {
		return whitePieceNibble[p.Type()]
	}
	return blackPieceNibble[p.Type()]
}

// Encode maps a single position to its byte key without any mirror
// canonicalization. Total: never fails.
func Encode(pos *chess.Position) Key {
	buf := nibble.NewBuffer()
	encodeBoard(buf, pos)
	encodeSideToMove(buf, pos)
	encodeCastling(buf, pos)
	buf.PushNibble(0x9) // delimiter
	encodeEnPassant(buf, pos)

	packed := buf.AsBytes()
	key := make(Key, 1+len(packed))
	key[0] = 'h'
	copy(key[1:], packed)
	return key
}

// EncodeCanonical returns the lexicographically smaller of encode(pos)
// and encode(mirror(pos)), tagged with which orientation was chosen.
// Ties (mirror-symmetric positions) resolve to (k1, Same).
func EncodeCanonical(pos *chess.Position) (Key, NaturalOrder) {
	k1 := Encode(pos)
	k2 := Encode(pos.Mirror())
	if bytes.Compare(k1, k2) <= 0 {
		return k1, Same
	}
	return k2, Mirror
}

func encodeBoard(buf *nibble.Buffer, pos *chess.Position) {
	for rank := 7; rank >= 0; rank-- {
		empties := 0
		for file := 0; file < 8; file++ {
			piece := pos.PieceAt(chess.NewSquare(file, rank))
			if piece == chess.NoPiece {
				empties++
				continue
			}
			flushEmpties(buf, empties)
			empties = 0
			buf.PushNibble(pieceNibble(piece))
		}
		flushEmpties(buf, empties)
	}
}

// flushEmpties appends the run-length encoding for n consecutive empty
// squares (n is at most 8, a whole empty rank).
func flushEmpties(buf *nibble.Buffer, n int) {
	if n == 0 {
		return
	}
	if n <= 3 {
		buf.PushNibble(byte(n - 1))
		return
	}
	buf.PushNibble(0x8)
	buf.PushNibble(byte(n - 4))
}

func encodeSideToMove(buf *nibble.Buffer, pos *chess.Position) {
	if pos.SideToMove == chess.White {
		buf.PushNibble(0)
	} else {
		buf.PushNibble(1)
	}
}

// encodeCastling implements the per-color candidate classification:
// the rook closest to the a-file edge with a king to its right is a
// queenside right, the rook closest to the h-file edge with a king to
// its left is a kingside right, and anything else is an explicit
// Chess960 file escape.
func encodeCastling(buf *nibble.Buffer, pos *chess.Position) {
	cr := pos.CastlingRights
	if cr.IsEmpty() {
		buf.PushNibble(0)
		return
	}
	encodeCastlingColor(buf, pos, chess.White)
	encodeCastlingColor(buf, pos, chess.Black)
}

func encodeCastlingColor(buf *nibble.Buffer, pos *chess.Position, c chess.Color) {
	cands := pos.CastlingRights.Candidates(c)
	if len(cands) == 0 {
		return
	}
	leftmost := cands[0]
	rightmost := cands[len(cands)-1]

	kingFile := -1
	backRank := 0
	if c == chess.Black {
		backRank = 7
	}
	if ksq := pos.KingSquare[c]; ksq != chess.NoSquare && ksq.Rank() == backRank {
		kingFile = ksq.File()
	}

	for i := len(cands) - 1; i >= 0; i-- {
		f := cands[i]
		switch {
		case f == leftmost && kingFile >= 0 && kingFile > f:
			if c == chess.White {
				buf.PushNibble(0xb) // Q
			} else {
				buf.PushNibble(0xd) // q
			}
		case f == rightmost && kingFile >= 0 && kingFile < f:
			if c == chess.White {
				buf.PushNibble(0xa) // K
			} else {
				buf.PushNibble(0xc) // k
			}
		default:
			if c == chess.White {
				buf.PushNibble(0xe) // Chess960 escape
				buf.PushNibble(byte(1 + f))
			} else {
				buf.PushNibble(byte(1 + f))
			}
		}
	}
}

func encodeEnPassant(buf *nibble.Buffer, pos *chess.Position) {
	if pos.EnPassant == chess.NoSquare {
		return
	}
	buf.PushNibble(byte(1 + pos.EnPassant.File()))
	buf.PushNibble(byte(1 + pos.EnPassant.Rank()))
}
