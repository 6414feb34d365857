// Package pv implements the principal-variation traversal: repeatedly
// looking up the sorted scored moves for a position, picking one (with
// a one-ply look-ahead tie-break), and walking the position forward
// until repetition, a length bound, or a position absent from the
// store is reached.
package pv

import (
	"fmt"
	"sort"

	"github.com/hailam/cdbserver/internal/binfen"
	"github.com/hailam/cdbserver/internal/cdberr"
	"github.com/hailam/cdbserver/internal/cdbstore"
	"github.com/hailam/cdbserver/internal/cdbval"
	"github.com/hailam/cdbserver/internal/chess"
)

// Store is the subset of the cdbstore facade the engine depends on,
// kept narrow so this package can be tested against a fake.
type Store interface {
	GetPinned(key []byte) (cdbstore.PinnedValue, bool, error)
	MultiGet(keys [][]byte) ([]cdbstore.Result, error)
}

// LookupSorted fetches and decodes the scored moves stored for pos,
// sorted by descending score. The second return is false if pos is
// absent from the store.
func LookupSorted(store Store, pos *chess.Position) (cdbval.SortedScoredMoves, bool, error) {
	key, order := binfen.EncodeCanonical(pos)
	val, found, err := store.GetPinned(key)
	if err != nil {
		return cdbval.SortedScoredMoves{}, false, fmt.Errorf("%w: %v", cdberr.ErrDbError, err)
	}
	if !found {
		return cdbval.SortedScoredMoves{}, false, nil
	}
	sm, err := cdbval.Decode(val.Bytes(), order)
	val.Release()
	if err != nil {
		return cdbval.SortedScoredMoves{}, false, err
	}
	return sm.SortDesc(), true, nil
}

// legalMoveFor resolves a decoded ScoredMove to the matching legal
// chess.Move in pos, so the traversal can apply it via the move
// generator rather than re-deriving legality itself.
func legalMoveFor(pos *chess.Position, sm cdbval.ScoredMove) (chess.Move, error) {
	legal := pos.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		if m.From() != sm.From || m.To() != sm.To {
			continue
		}
		if sm.Promotion == chess.NoPieceType {
			if !m.IsPromotion() {
				return m, nil
			}
			continue
		}
		if m.IsPromotion() && m.Promotion() == sm.Promotion {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: no legal move matches %s", cdberr.ErrBadPosition, sm.UCI())
}

// apply returns the position reached by playing sm against pos.
func apply(pos *chess.Position, sm cdbval.ScoredMove) (*chess.Position, error) {
	m, err := legalMoveFor(pos, sm)
	if err != nil {
		return nil, err
	}
	next := pos.Copy()
	next.MakeMove(m)
	return next, nil
}

// TiebrokenMove is one candidate move ranked by the one-ply look-ahead
// tie-break, carrying its child's decoded scored moves so a later
// multi-PV descent can reuse them instead of reading the store again.
type TiebrokenMove struct {
	Move        cdbval.ScoredMove
	ChildScored *cdbval.SortedScoredMoves // nil if the child position is absent from the store
}

func (t TiebrokenMove) goodMoves() int {
	if t.ChildScored == nil {
		return 0
	}
	return t.ChildScored.NumGoodMoves()
}

// tiebreakRank resolves the child position for every move in best,
// batch-fetches their stored values in one round trip, and decodes
// each into a TiebrokenMove. It does not itself pick a winner or sort
// — callers choose the ordering appropriate to single-PV (smallest
// good-move count) or multi-PV (score, then good-move count).
func tiebreakRank(store Store, pos *chess.Position, best []cdbval.ScoredMove) ([]TiebrokenMove, error) {
	keys := make([][]byte, len(best))
	orders := make([]binfen.NaturalOrder, len(best))
	for i, b := range best {
		child, err := apply(pos, b)
		if err != nil {
			return nil, err
		}
		key, order := binfen.EncodeCanonical(child)
		keys[i] = key
		orders[i] = order
	}

	results, err := store.MultiGet(keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cdberr.ErrDbError, err)
	}

	out := make([]TiebrokenMove, len(best))
	for i, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("%w: %v", cdberr.ErrDbError, r.Err)
		}
		out[i] = TiebrokenMove{Move: best[i]}
		if !r.Found {
			continue
		}
		sm, err := cdbval.Decode(r.Value.Bytes(), orders[i])
		r.Value.Release()
		if err != nil {
			return nil, err
		}
		sorted := sm.SortDesc()
		out[i] = TiebrokenMove{Move: best[i], ChildScored: &sorted}
	}
	return out, nil
}

// selectTiebreak returns the move among best whose child position
// offers the opponent the fewest good replies, breaking remaining ties
// by original order.
func selectTiebreak(store Store, pos *chess.Position, best []cdbval.ScoredMove) (cdbval.ScoredMove, error) {
	ranked, err := tiebreakRank(store, pos, best)
	if err != nil {
		return cdbval.ScoredMove{}, err
	}
	bestIdx := 0
	bestGood := ranked[0].goodMoves()
	for i := 1; i < len(ranked); i++ {
		if g := ranked[i].goodMoves(); g < bestGood {
			bestGood = g
			bestIdx = i
		}
	}
	return ranked[bestIdx].Move, nil
}

// Unbounded signals that a descent has no length cap other than
// repetition detection and running out of stored positions.
const Unbounded = -1

// descend runs the single-PV state machine starting at pos. If seed is
// non-nil, it is used as the first iteration's sorted scored moves in
// place of a store lookup, letting a multi-PV root expansion reuse the
// child ScoredMoves already fetched during its tie-break step.
func descend(store Store, pos *chess.Position, maxLen int, seed *cdbval.SortedScoredMoves) ([]string, error) {
	var line []string
	seen := map[uint64]bool{}
	cur := pos

	for maxLen == Unbounded || len(line) < maxLen {
		h := cur.Hash
		if seen[h] {
			break
		}
		seen[h] = true

		var sm cdbval.SortedScoredMoves
		if seed != nil {
			sm = *seed
			seed = nil
		} else {
			got, found, err := LookupSorted(store, cur)
			if err != nil {
				return nil, err
			}
			if !found {
				break
			}
			sm = got
		}

		best := sm.BestMoves()
		if len(best) == 0 {
			break
		}

		chosen := best[0]
		if len(best) > 1 {
			var err error
			chosen, err = selectTiebreak(store, cur, best)
			if err != nil {
				return nil, err
			}
		}

		next, err := apply(cur, chosen)
		if err != nil {
			return nil, err
		}
		line = append(line, chosen.UCI())
		cur = next
	}

	return line, nil
}

// SinglePV runs a principal-variation descent from pos and returns the
// line as UCI moves. maxLen bounds the number of plies; pass Unbounded
// for no cap beyond repetition detection.
func SinglePV(store Store, pos *chess.Position, maxLen int) ([]string, error) {
	return descend(store, pos, maxLen, nil)
}

// RootMove is one expanded multi-PV root candidate: the move to play
// from the root and its already-decoded child scored moves, ready to
// seed a single-PV descent without a redundant store read.
type RootMove struct {
	Move        cdbval.ScoredMove
	ChildScored *cdbval.SortedScoredMoves
}

// ExpandRoot performs steps 1-3 of the multi-PV procedure: look up the
// root's sorted scored moves, take its best-n prefix, rank that prefix
// by the one-ply tie-break, and truncate to n. The caller (the query
// dispatcher) is responsible for running a descent from each returned
// RootMove — concurrently if it chooses — and joining the results.
//
// The second return is false if the root position is absent from the
// store, or if fewer than n moves are stored and the position has more
// legal moves than are stored (the request cannot be satisfied).
func ExpandRoot(store Store, pos *chess.Position, n int) ([]RootMove, bool, error) {
	root, found, err := LookupSorted(store, pos)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	if root.Len() < n {
		legalCount := pos.GenerateLegalMoves().Len()
		if root.Len() < legalCount {
			return nil, false, nil
		}
	}

	prefix := root.BestPrefix(n)
	ranked, err := tiebreakRank(store, pos, prefix)
	if err != nil {
		return nil, false, err
	}

	sortTiebroken(ranked)
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]RootMove, len(ranked))
	for i, r := range ranked {
		out[i] = RootMove{Move: r.Move, ChildScored: r.ChildScored}
	}
	return out, true, nil
}

// sortTiebroken orders ranked candidates by descending score, then by
// ascending good-move count of the resulting child.
func sortTiebroken(ranked []TiebrokenMove) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Move.Score != ranked[j].Move.Score {
			return ranked[i].Move.Score > ranked[j].Move.Score
		}
		return ranked[i].goodMoves() < ranked[j].goodMoves()
	})
}

// DescendFrom runs a single-PV descent seeded from an already-ranked
// multi-PV root move, reusing its cached child scored moves as the
// first iteration's lookup.
func DescendFrom(store Store, rootPos *chess.Position, r RootMove, maxLen int) ([]string, error) {
	child, err := apply(rootPos, r.Move)
	if err != nil {
		return nil, err
	}
	rest, err := descend(store, child, decrementBound(maxLen), r.ChildScored)
	if err != nil {
		return nil, err
	}
	return append([]string{r.Move.UCI()}, rest...), nil
}

func decrementBound(maxLen int) int {
	if maxLen == Unbounded {
		return Unbounded
	}
	if maxLen > 0 {
		return maxLen - 1
	}
	return 0
}
