package chess

import "testing"

func TestParseFENStartPosition(t *testing.T) {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	if pos.SideToMove != White {
		t.Errorf("expected white to move")
	}
	if !pos.CastlingRights.HasFile(White, 0) || !pos.CastlingRights.HasFile(White, 7) {
		t.Errorf("expected white to retain both rook files, got %+v", pos.CastlingRights)
	}
	if !pos.CastlingRights.HasFile(Black, 0) || !pos.CastlingRights.HasFile(Black, 7) {
		t.Errorf("expected black to retain both rook files, got %+v", pos.CastlingRights)
	}
	if pos.KingSquare[White] != E1 || pos.KingSquare[Black] != E8 {
		t.Errorf("unexpected king squares: %v %v", pos.KingSquare[White], pos.KingSquare[Black])
	}
}

func TestParseCastlingRightsClassicInference(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	if !pos.CastlingRights.HasFile(White, 0) || !pos.CastlingRights.HasFile(White, 7) {
		t.Errorf("expected white rook files a and h, got %+v", pos.CastlingRights)
	}
	if !pos.CastlingRights.HasFile(Black, 0) || !pos.CastlingRights.HasFile(Black, 7) {
		t.Errorf("expected black rook files a and h, got %+v", pos.CastlingRights)
	}
}

func TestParseCastlingRightsShredder(t *testing.T) {
	// Shredder-FEN letters map directly to rook home files, independent
	// of where any rook actually sits on the board.
	pos, err := ParseFEN("1r2k3/8/8/8/8/8/8/1R2K3 w Aa - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	if !pos.CastlingRights.HasFile(White, 0) {
		t.Errorf("expected white file A retained, got %+v", pos.CastlingRights)
	}
	if pos.CastlingRights.HasFile(White, 2) {
		t.Errorf("file C was not granted and should not be set")
	}
	if !pos.CastlingRights.HasFile(Black, 0) {
		t.Errorf("expected black file a retained, got %+v", pos.CastlingRights)
	}
}

func TestCastlingRightsNoneDash(t *testing.T) {
	pos, err := ParseFEN("8/8/8/4k3/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	if !pos.CastlingRights.IsEmpty() {
		t.Errorf("expected no castling rights, got %+v", pos.CastlingRights)
	}
}

func TestCastlingRightsStringRoundTrip(t *testing.T) {
	cr := CastlingRights{}
	cr.SetFile(White, 0)
	cr.SetFile(White, 7)
	cr.SetFile(Black, 3)
	got := cr.String()
	want := "AHd"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestComputeHashMatchesIncremental(t *testing.T) {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	m, err := ParseMove("e2e4", pos)
	if err != nil {
		t.Fatalf("ParseMove failed: %v", err)
	}
	undo := pos.MakeMove(m)
	if !undo.Valid {
		t.Fatalf("MakeMove reported invalid")
	}
	if pos.Hash != pos.ComputeHash() {
		t.Errorf("incremental hash %016x does not match recomputed hash %016x", pos.Hash, pos.ComputeHash())
	}
}
