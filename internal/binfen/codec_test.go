package binfen

import (
	"encoding/hex"
	"testing"

	"github.com/hailam/cdbserver/internal/chess"
	"github.com/hailam/cdbserver/internal/nibble"
)

func TestEncodeStartPositionHasHPrefixAndIsSame(t *testing.T) {
	pos, err := chess.ParseFEN(chess.StartFEN)
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	key, order := EncodeCanonical(pos)
	if key[0] != 'h' {
		t.Fatalf("key does not start with 'h': %x", key[0])
	}
	if order != Same {
		t.Errorf("expected Same for the symmetric start position, got %v", order)
	}
}

func TestEncodeCanonicalIsMirrorInvariant(t *testing.T) {
	pos, err := chess.ParseFEN("rnbqkbr1/ppp1pppp/3P1n2/8/8/5N2/PPPP1PPP/RNBQKB1R b KQq - 0 4")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	k1, o1 := EncodeCanonical(pos)
	k2, o2 := EncodeCanonical(pos.Mirror())
	if string(k1) != string(k2) {
		t.Errorf("canonical key differs between a position and its mirror: %x vs %x", k1, k2)
	}
	if o1 == o2 {
		t.Errorf("expected opposite NaturalOrder tags for mirror images, got %v and %v", o1, o2)
	}
}

// nibbleAt reads the nibble at index i (0-based, high nibble of byte
// i/2 first) out of a packed nibble byte slice.
func nibbleAt(packed []byte, i int) byte {
	b := packed[i/2]
	if i%2 == 0 {
		return b >> 4
	}
	return b & 0xf
}

func TestEncodeCastlingEmptyIsSingleZeroNibble(t *testing.T) {
	// This position's board encoding contains a black king, whose piece
	// nibble is itself 0x9 (blackPieceNibble[King]), the same value as
	// the 0x9 delimiter — so the assertion below locates the castling
	// and delimiter nibbles by their exact, independently-computed
	// position rather than by searching the key for any 0x9 byte.
	pos, err := chess.ParseFEN("8/8/8/4k3/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}

	prefix := nibble.NewBuffer()
	encodeBoard(prefix, pos)
	encodeSideToMove(prefix, pos)
	castlingAt := prefix.LenNibbles()

	key := Encode(pos)
	packed := key[1:]

	if got := nibbleAt(packed, castlingAt); got != 0 {
		t.Fatalf("expected the no-rights 0 nibble at index %d, got %x", castlingAt, got)
	}
	if got := nibbleAt(packed, castlingAt+1); got != 0x9 {
		t.Fatalf("expected the delimiter nibble at index %d, got %x", castlingAt+1, got)
	}
}

func TestLegacyKeyReference(t *testing.T) {
	// The reference string is the unmirrored encoding of the position.
	// Its mirror image encodes smaller, so EncodeCanonical would return
	// the mirrored key instead; Encode is the function under test here.
	pos, err := chess.ParseFEN("rnbqkbr1/ppp1pppp/3P1n2/8/8/5N2/PPPP1PPP/RNBQKB1R b KQq - 0 4")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	key := Encode(pos)
	got := hex.EncodeToString(key[1:])
	want := "64579560333033332a041848481b1aaaa0aaadbcefc0d1abd9"
	if got != want {
		t.Errorf("legacy key mismatch:\n got  %s\n want %s", got, want)
	}
}
