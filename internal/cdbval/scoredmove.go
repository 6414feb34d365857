// Package cdbval decodes the value-blob binary format into scored
// moves and provides a sorted view supporting prefix queries over
// ties at the top of the list.
package cdbval

import (
	"strings"

	"github.com/hailam/cdbserver/internal/chess"
)

// ScoredMove is one decoded move with its score from the side to
// move's perspective.
type ScoredMove struct {
	From      chess.Square
	To        chess.Square
	Promotion chess.PieceType // chess.NoPieceType if not a promotion
	Score     int16
}

// UCI renders the move in Universal Chess Interface notation, e.g.
// "e2e4" or "a7a8q".
func (m ScoredMove) UCI() string {
	var sb strings.Builder
	sb.WriteString(m.From.String())
	sb.WriteString(m.To.String())
	if m.Promotion != chess.NoPieceType {
		sb.WriteByte(m.Promotion.Char())
	}
	return sb.String()
}

// Mirror returns the move reflected vertically, for un-mirroring
// decoded moves when the originating key was built from mirror(P).
func (m ScoredMove) Mirror() ScoredMove {
	return ScoredMove{
		From:      m.From.Mirror(),
		To:        m.To.Mirror(),
		Promotion: m.Promotion,
		Score:     m.Score,
	}
}

// ScoredMoves is the decoded contents of one value blob: an ordered
// list of moves plus an optional ply-from-root marker.
type ScoredMoves struct {
	Moves       []ScoredMove
	PlyFromRoot *uint32
}
