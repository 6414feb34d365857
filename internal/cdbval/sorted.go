package cdbval

import "sort"

// SortedScoredMoves is a ScoredMoves known to be sorted by descending
// score, supporting prefix queries over ties at the requested depth.
type SortedScoredMoves struct {
	Moves       []ScoredMove
	PlyFromRoot *uint32
}

// SortDesc returns sm sorted by descending score. The input is not
// mutated.
func (sm ScoredMoves) SortDesc() SortedScoredMoves {
	moves := make([]ScoredMove, len(sm.Moves))
	copy(moves, sm.Moves)
	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].Score > moves[j].Score
	})
	return SortedScoredMoves{Moves: moves, PlyFromRoot: sm.PlyFromRoot}
}

// Len returns the number of moves.
func (s SortedScoredMoves) Len() int {
	return len(s.Moves)
}

// BestPrefix returns the longest prefix starting at index 0 whose
// scores are all at least moves[k-1].Score: the first min(k, Len())
// moves plus every later move tied with moves[k-1]. k == 0 returns an
// empty slice.
func (s SortedScoredMoves) BestPrefix(k int) []ScoredMove {
	if k <= 0 {
		return nil
	}
	if k >= len(s.Moves) {
		return s.Moves
	}
	threshold := s.Moves[k-1].Score
	m := k
	for m < len(s.Moves) && s.Moves[m].Score >= threshold {
		m++
	}
	return s.Moves[:m]
}

// BestMoves returns the prefix of moves sharing the top score.
func (s SortedScoredMoves) BestMoves() []ScoredMove {
	return s.BestPrefix(1)
}

// NumGoodMoves counts moves with a non-negative score. Since the view
// is sorted descending, these are always a prefix.
func (s SortedScoredMoves) NumGoodMoves() int {
	n := 0
	for _, m := range s.Moves {
		if m.Score < 0 {
			break
		}
		n++
	}
	return n
}
