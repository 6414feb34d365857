package chess

import "testing"

func TestGenerateCastlingMovesChess960(t *testing.T) {
	// King on the b-file, rooks on a (queenside) and g (kingside). Both
	// sides should still land the king on g/c and the rook on f/d per
	// Chess960 castling rules, regardless of the rooks' starting files.
	// White pawns on the second rank block the black rooks' files, so no
	// square on either king path is attacked.
	pos, err := ParseFEN("rk4r1/8/8/8/8/8/PPPPPPPP/RK4R1 w AGag - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}

	ml := pos.GenerateLegalMoves()
	var sawKingSide, sawQueenSide bool
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if !m.IsCastling() {
			continue
		}
		if m.To() == G1 {
			sawKingSide = true
		}
		if m.To() == C1 {
			sawQueenSide = true
		}
	}
	if !sawKingSide {
		t.Errorf("expected a kingside castle landing the king on g1")
	}
	if !sawQueenSide {
		t.Errorf("expected a queenside castle landing the king on c1")
	}
}

func TestMakeUnmakeCastlingChess960KingLandsOnRookSquare(t *testing.T) {
	// King on e1, rook on g1: the king's destination square (g1) is the
	// rook's starting square, the classic Chess960 overlap case.
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/4K1R1 w G - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}

	m := NewCastling(E1, G1)
	before := pos.Copy()
	undo := pos.MakeMove(m)
	if !undo.Valid {
		t.Fatalf("MakeMove reported invalid castle")
	}
	if pos.PieceAt(G1) != WhiteKing {
		t.Errorf("expected king on g1, got %v", pos.PieceAt(G1))
	}
	if pos.PieceAt(F1) != WhiteRook {
		t.Errorf("expected rook on f1, got %v", pos.PieceAt(F1))
	}
	if pos.AllOccupied.PopCount() != before.AllOccupied.PopCount() {
		t.Errorf("piece count changed across castling: before=%d after=%d",
			before.AllOccupied.PopCount(), pos.AllOccupied.PopCount())
	}

	pos.UnmakeMove(m, undo)
	if pos.PieceAt(E1) != WhiteKing {
		t.Errorf("expected king back on e1, got %v", pos.PieceAt(E1))
	}
	if pos.PieceAt(G1) != WhiteRook {
		t.Errorf("expected rook back on g1, got %v", pos.PieceAt(G1))
	}
	if pos.Hash != before.Hash {
		t.Errorf("hash not restored: got %016x want %016x", pos.Hash, before.Hash)
	}
}

func TestPositionMirror(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	mirrored := pos.Mirror()

	if mirrored.SideToMove != Black {
		t.Errorf("expected mirrored side to move to be black")
	}
	if mirrored.PieceAt(E8) != BlackKing {
		t.Errorf("expected black king on e8 after mirroring, got %v", mirrored.PieceAt(E8))
	}
	if mirrored.PieceAt(E1) != WhiteKing {
		t.Errorf("expected white king on e1 after mirroring, got %v", mirrored.PieceAt(E1))
	}
	if !mirrored.CastlingRights.HasFile(White, 0) || !mirrored.CastlingRights.HasFile(Black, 7) {
		t.Errorf("expected castling rights to swap colors, got %+v", mirrored.CastlingRights)
	}
	if mirrored.Hash != mirrored.ComputeHash() {
		t.Errorf("mirrored hash not internally consistent")
	}

	// Mirroring twice returns to the original position.
	roundTrip := mirrored.Mirror()
	if roundTrip.ToFEN() != pos.ToFEN() {
		t.Errorf("double mirror changed position: got %q want %q", roundTrip.ToFEN(), pos.ToFEN())
	}
}
