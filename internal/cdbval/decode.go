package cdbval

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hailam/cdbserver/internal/binfen"
	"github.com/hailam/cdbserver/internal/cdberr"
	"github.com/hailam/cdbserver/internal/chess"
)

// promotionRoles maps the repurposed "rank row" of a promotion
// destination index to the promoted piece: row 0 (the table's normal
// padding row) means Queen, row 1 Rook, row 2 Bishop, row 3 Knight.
var promotionRoles = [4]chess.PieceType{chess.Queen, chess.Rook, chess.Bishop, chess.Knight}

// squareFromIndex decodes a 90-entry-table index (file = i%9, rank =
// i/9 - 1) into a Square. Rows 0 and 9, and column 8, are padding.
func squareFromIndex(i int) (chess.Square, bool) {
	if i < 9 || i > 80 {
		return chess.NoSquare, false
	}
	col := i % 9
	row := i / 9
	if col == 8 {
		return chess.NoSquare, false
	}
	return chess.NewSquare(col, row-1), true
}

// promotionTarget decodes the low seven bits of a promotion dst byte:
// the column is the destination file, and the row — which would
// normally select a rank — instead selects the promoted piece.
func promotionTarget(i int) (file int, role chess.PieceType, ok bool) {
	col := i % 9
	row := i / 9
	if col == 8 || row > 3 {
		return 0, chess.NoPieceType, false
	}
	return col, promotionRoles[row], true
}

// Decode parses a value blob into ScoredMoves. order indicates whether
// the key the blob was fetched under was the mirrored orientation, in
// which case every decoded move is mirrored back before being
// returned.
func Decode(blob []byte, order binfen.NaturalOrder) (ScoredMoves, error) {
	if len(blob)%4 != 0 {
		return ScoredMoves{}, fmt.Errorf("%w: blob length %d is not a multiple of 4", cdberr.ErrMalformedBlob, len(blob))
	}

	var out ScoredMoves
	for i := 0; i+4 <= len(blob); i += 4 {
		dst := blob[i]
		src := blob[i+1]
		score := int16(binary.LittleEndian.Uint16(blob[i+2 : i+4]))

		if src == 0 && dst == 0 {
			if score < 0 {
				return ScoredMoves{}, fmt.Errorf("%w: ply_from_root record has negative score", cdberr.ErrMalformedBlob)
			}
			v := uint32(score)
			out.PlyFromRoot = &v
			continue
		}

		if score == math.MinInt16 {
			return ScoredMoves{}, fmt.Errorf("%w: i16 MIN score on non-sentinel record", cdberr.ErrMalformedBlob)
		}

		from, ok := squareFromIndex(int(src))
		if !ok {
			return ScoredMoves{}, fmt.Errorf("%w: invalid src square index %d", cdberr.ErrMalformedBlob, src)
		}

		var to chess.Square
		promo := chess.NoPieceType
		if dst&0x80 != 0 {
			file, role, ok := promotionTarget(int(dst & 0x7f))
			if !ok {
				return ScoredMoves{}, fmt.Errorf("%w: invalid promotion encoding in dst %d", cdberr.ErrMalformedBlob, dst)
			}
			var destRank int
			switch from.Rank() {
			case 6: // FEN rank 7 -> promotes to rank 8
				destRank = 7
			case 1: // FEN rank 2 -> promotes to rank 1
				destRank = 0
			default:
				return ScoredMoves{}, fmt.Errorf("%w: illegal promotion source rank %d", cdberr.ErrMalformedBlob, from.Rank()+1)
			}
			to = chess.NewSquare(file, destRank)
			promo = role
		} else {
			var ok bool
			to, ok = squareFromIndex(int(dst & 0x7f))
			if !ok {
				return ScoredMoves{}, fmt.Errorf("%w: invalid dst square index %d", cdberr.ErrMalformedBlob, dst)
			}
		}

		mv := ScoredMove{From: from, To: to, Promotion: promo, Score: -score}
		if order == binfen.Mirror {
			mv = mv.Mirror()
		}
		out.Moves = append(out.Moves, mv)
	}

	return out, nil
}
