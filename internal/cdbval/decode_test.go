package cdbval

import (
	"encoding/binary"
	"testing"

	"github.com/hailam/cdbserver/internal/binfen"
	"github.com/hailam/cdbserver/internal/chess"
)

func record(dst, src byte, score int16) []byte {
	b := make([]byte, 4)
	b[0] = dst
	b[1] = src
	binary.LittleEndian.PutUint16(b[2:], uint16(score))
	return b
}

func TestDecodeSentinelOnly(t *testing.T) {
	blob := record(0, 0, 5)
	sm, err := Decode(blob, binfen.Same)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(sm.Moves) != 0 {
		t.Errorf("expected zero moves, got %d", len(sm.Moves))
	}
	if sm.PlyFromRoot == nil || *sm.PlyFromRoot != 5 {
		t.Errorf("expected ply_from_root = 5, got %v", sm.PlyFromRoot)
	}
}

func TestDecodeSimpleMoveNegatesScore(t *testing.T) {
	// e2 -> e4: e2 index = file 4, rank 1 (0-indexed) -> row = rank+1 = 2, col = 4 -> i = 2*9+4 = 22
	// e4: rank 3 (0-indexed) -> row 4, col 4 -> i = 40
	blob := record(40, 22, 100)
	sm, err := Decode(blob, binfen.Same)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(sm.Moves) != 1 {
		t.Fatalf("expected one move, got %d", len(sm.Moves))
	}
	mv := sm.Moves[0]
	if mv.From != chess.E2 || mv.To != chess.E4 {
		t.Errorf("expected e2e4, got %s", mv.UCI())
	}
	if mv.Score != -100 {
		t.Errorf("expected negated score -100, got %d", mv.Score)
	}
}

func TestDecodePromotionA7A8Q(t *testing.T) {
	// a7 index: file 0, rank index 6 (FEN rank 7) -> row = 7, col = 0 -> i = 7*9+0 = 63
	srcIdx := 63
	// promotion dst: file 0 (a-file), role Queen (row 0) -> i = 0, dst = 0x80 | 0
	dst := byte(0x80)
	blob := record(dst, byte(srcIdx), -50)
	sm, err := Decode(blob, binfen.Same)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(sm.Moves) != 1 {
		t.Fatalf("expected one move, got %d", len(sm.Moves))
	}
	mv := sm.Moves[0]
	if mv.UCI() != "a7a8q" {
		t.Errorf("expected a7a8q, got %s", mv.UCI())
	}
	if mv.Score != 50 {
		t.Errorf("expected negated score 50, got %d", mv.Score)
	}
}

// squareIndex re-derives the 90-entry-table index for a square, the
// inverse of squareFromIndex, for building test records.
func squareIndex(sq chess.Square) byte {
	return byte((sq.Rank()+1)*9 + sq.File())
}

// promotionDst builds the promotion-encoded dst byte for a destination
// file and promoted role, matching the row-as-role table in decode.go.
func promotionDst(destFile int, role chess.PieceType) byte {
	var row int
	switch role {
	case chess.Queen:
		row = 0
	case chess.Rook:
		row = 1
	case chess.Bishop:
		row = 2
	case chess.Knight:
		row = 3
	}
	return 0x80 | byte(row*9+destFile)
}

func TestDecodePromotionAllRolesBothDirections(t *testing.T) {
	cases := []struct {
		name     string
		from, to chess.Square
		role     chess.PieceType
		wantUCI  string
	}{
		{"rank7to8Queen", chess.A7, chess.A8, chess.Queen, "a7a8q"},
		{"rank7to8Rook", chess.B7, chess.B8, chess.Rook, "b7b8r"},
		{"rank7to8Bishop", chess.C7, chess.C8, chess.Bishop, "c7c8b"},
		{"rank7to8Knight", chess.D7, chess.D8, chess.Knight, "d7d8n"},
		{"rank2to1Queen", chess.E2, chess.E1, chess.Queen, "e2e1q"},
		{"rank2to1Rook", chess.F2, chess.F1, chess.Rook, "f2f1r"},
		{"rank2to1Bishop", chess.G2, chess.G1, chess.Bishop, "g2g1b"},
		{"rank2to1Knight", chess.H2, chess.H1, chess.Knight, "h2h1n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dst := promotionDst(tc.to.File(), tc.role)
			blob := record(dst, squareIndex(tc.from), 0)
			sm, err := Decode(blob, binfen.Same)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if len(sm.Moves) != 1 {
				t.Fatalf("expected one move, got %d", len(sm.Moves))
			}
			if got := sm.Moves[0].UCI(); got != tc.wantUCI {
				t.Errorf("expected %s, got %s", tc.wantUCI, got)
			}
		})
	}
}

func TestDecodeRejectsOddLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3}, binfen.Same)
	if err == nil {
		t.Fatalf("expected error for non-multiple-of-4 length")
	}
}

func TestDecodeRejectsI16Min(t *testing.T) {
	blob := record(40, 22, -32768)
	_, err := Decode(blob, binfen.Same)
	if err == nil {
		t.Fatalf("expected error for i16::MIN score")
	}
}

func TestDecodeMirrorsMoves(t *testing.T) {
	blob := record(40, 22, 0) // e2e4
	sm, err := Decode(blob, binfen.Mirror)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	mv := sm.Moves[0]
	if mv.UCI() != "e7e5" {
		t.Errorf("expected mirrored move e7e5, got %s", mv.UCI())
	}
}

func TestSortedScoredMovesBestPrefix(t *testing.T) {
	sm := ScoredMoves{Moves: []ScoredMove{
		{Score: 10}, {Score: 30}, {Score: 30}, {Score: 5}, {Score: 30},
	}}
	sorted := sm.SortDesc()
	if sorted.Moves[0].Score != 30 || sorted.Moves[1].Score != 30 || sorted.Moves[2].Score != 30 {
		t.Fatalf("expected the three 30s to sort first, got %+v", sorted.Moves)
	}
	best := sorted.BestMoves()
	if len(best) != 3 {
		t.Errorf("expected 3 tied best moves, got %d", len(best))
	}
	prefix := sorted.BestPrefix(4)
	if len(prefix) != 4 {
		t.Errorf("best_prefix(4) should include the 4th (tied-with-nothing) move, got %d", len(prefix))
	}
}

func TestSortedScoredMovesNumGoodMoves(t *testing.T) {
	sm := ScoredMoves{Moves: []ScoredMove{{Score: 5}, {Score: 0}, {Score: -1}, {Score: -10}}}
	sorted := sm.SortDesc()
	if got := sorted.NumGoodMoves(); got != 2 {
		t.Errorf("NumGoodMoves() = %d, want 2", got)
	}
}
