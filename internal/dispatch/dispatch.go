// Package dispatch is the async front-end that hands PV queries to a
// fixed-size blocking worker pool. The PV engine itself is entirely
// synchronous; this package is the only place in the module where
// suspension points exist: the initial request await, the handoff onto
// the worker pool, and joining concurrent multi-PV subtasks.
package dispatch

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/cdbserver/internal/cdberr"
	"github.com/hailam/cdbserver/internal/chess"
	"github.com/hailam/cdbserver/internal/pv"
)

// Multi-PV request bounds.
const (
	MinMultiPV = 1
	MaxMultiPV = 5
)

// Dispatcher submits PV lookups to a blocking worker pool, sized once
// at construction, shared across every query.
type Dispatcher struct {
	store  pv.Store
	maxLen int
	sem    chan struct{}
}

// New returns a Dispatcher reading from store. poolSize sizes the
// blocking worker pool; zero or negative auto-sizes to GOMAXPROCS.
// maxLen bounds every PV descent's length in plies; pass pv.Unbounded
// for no cap beyond repetition detection.
func New(store pv.Store, poolSize, maxLen int) *Dispatcher {
	if poolSize <= 0 {
		poolSize = runtime.GOMAXPROCS(0)
	}
	return &Dispatcher{
		store:  store,
		maxLen: maxLen,
		sem:    make(chan struct{}, poolSize),
	}
}

// PVLine is one principal variation: its root score and the UCI move
// sequence that realizes it.
type PVLine struct {
	Score int16
	Line  []string
}

// Response is the outcome of a QueryPV call. A nil PVs slice means the
// position, or a multi-PV expansion large enough to satisfy the
// request, is absent from the store — which is not an error.
type Response struct {
	PVs []PVLine
}

// QueryPV validates multiPV, parses fen (accepting both classic and
// Shredder castling notation), and runs the multi-PV engine on the
// blocking worker pool. Root expansions run as independent blocking
// jobs and are joined back into request order.
func (d *Dispatcher) QueryPV(ctx context.Context, fen string, multiPV int) (Response, error) {
	if multiPV < MinMultiPV || multiPV > MaxMultiPV {
		return Response{}, fmt.Errorf("%w: multi_pv=%d", cdberr.ErrMultiPvRange, multiPV)
	}

	pos, err := chess.ParseFEN(fen)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", cdberr.ErrBadPosition, err)
	}

	if err := d.acquire(ctx); err != nil {
		return Response{}, err
	}
	roots, found, err := pv.ExpandRoot(d.store, pos, multiPV)
	d.release()
	if err != nil {
		return Response{}, err
	}
	if !found {
		return Response{}, nil
	}

	lines := make([]PVLine, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range roots {
		i, r := i, r
		g.Go(func() error {
			if err := d.acquire(gctx); err != nil {
				return err
			}
			defer d.release()
			line, err := pv.DescendFrom(d.store, pos, r, d.maxLen)
			if err != nil {
				return err
			}
			lines[i] = PVLine{Score: r.Move.Score, Line: line}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	return Response{PVs: lines}, nil
}

func (d *Dispatcher) acquire(ctx context.Context) error {
	select {
	case d.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) release() {
	<-d.sem
}
