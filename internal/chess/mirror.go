package chess

// Mirror returns a new Position obtained by swapping piece colors,
// flipping the board vertically, and flipping side to move. A mirrored
// position is reached by the same sequence of moves with colors
// swapped, so two positions that are mirror images of each other are
// equivalent up to which side is "white" — the basis for canonical
// color-symmetric keying.
func (p *Position) Mirror() *Position {
	m := &Position{
		SideToMove:     p.SideToMove.Other(),
		HalfMoveClock:  p.HalfMoveClock,
		FullMoveNumber: p.FullMoveNumber,
		EnPassant:      NoSquare,
	}
	m.KingSquare[White] = NoSquare
	m.KingSquare[Black] = NoSquare

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			m.Pieces[c.Other()][pt] = p.Pieces[c][pt].Mirror()
		}
	}

	m.CastlingRights = CastlingRights{
		WhiteFiles: p.CastlingRights.BlackFiles,
		BlackFiles: p.CastlingRights.WhiteFiles,
	}

	if p.EnPassant != NoSquare {
		m.EnPassant = p.EnPassant.Mirror()
	}

	m.updateOccupied()
	m.findKings()
	m.Hash = m.ComputeHash()
	m.PawnKey = m.ComputePawnKey()
	m.UpdateCheckers()

	return m
}

// Mirror returns the bitboard flipped vertically (rank 1 <-> rank 8).
func (b Bitboard) Mirror() Bitboard {
	var out Bitboard
	bb := b
	for bb != 0 {
		sq := bb.PopLSB()
		out |= SquareBB(sq.Mirror())
	}
	return out
}
