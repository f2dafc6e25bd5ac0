package energy

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/breakerview/breakerview/pkg/log"
	"github.com/breakerview/breakerview/pkg/types"
)

// LeafSeries is the outcome of decoding one leaf group. Exactly one of KWH and
// Err is set.
type LeafSeries struct {
	Group *types.Group
	KWH   []float64
	Err   error
}

// DecodeLeaves decodes every leaf independently and returns the results in
// the order of leaves. A leaf that fails to decode does not stop its siblings;
// its error is reported on its own LeafSeries. At most limit leaves are
// decoded at once; limit <= 0 uses GOMAXPROCS. The only error returned is the
// context's.
func DecodeLeaves(ctx context.Context, leaves []*types.Group, limit int) ([]LeafSeries, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	out := make([]LeafSeries, len(leaves))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, leaf := range leaves {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			kwh, err := DecodeGroup(leaf)
			// each goroutine owns out[i]
			out[i] = LeafSeries{Group: leaf, KWH: kwh, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var failed int
	for _, s := range out {
		if s.Err != nil {
			failed++
			log.Ctx(ctx).WarnContext(ctx, "failed to decode leaf group", slog.Any("error", s.Err))
		}
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"decoded leaf groups",
		slog.Int("leaves", len(out)),
		slog.Int("failed", failed),
	)
	return out, nil
}

// Samples converts decoded leaves to their storable form.
func Samples(series []LeafSeries) []types.LeafSamples {
	out := make([]types.LeafSamples, len(series))
	for i, s := range series {
		var name string
		if s.Group != nil {
			name = s.Group.Name
		}
		out[i] = types.LeafSamples{Name: name, KWH: s.KWH}
		if s.Err != nil {
			out[i].Error = s.Err.Error()
		}
	}
	return out
}
