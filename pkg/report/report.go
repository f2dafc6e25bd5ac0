// Package report combines the monitoring service, the decoders and the
// topology model into the documents printed by the command.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/breakerview/breakerview/pkg/energy"
	"github.com/breakerview/breakerview/pkg/log"
	"github.com/breakerview/breakerview/pkg/monitor"
	"github.com/breakerview/breakerview/pkg/storage"
	"github.com/breakerview/breakerview/pkg/topology"
	"github.com/breakerview/breakerview/pkg/types"
)

// Reporter builds reports for the default breaker group of an account.
type Reporter struct {
	monitor     monitor.Service
	db          storage.Database
	indexing    topology.SpaceIndexing
	decodeLimit int
}

// New returns a Reporter. db may be nil, in which case series are not
// archived. decodeLimit bounds parallel leaf decoding; <= 0 uses GOMAXPROCS.
func New(svc monitor.Service, db storage.Database, indexing topology.SpaceIndexing, decodeLimit int) *Reporter {
	if db == nil {
		db = storage.Discard{}
	}
	return &Reporter{
		monitor:     svc,
		db:          db,
		indexing:    indexing,
		decodeLimit: decodeLimit,
	}
}

// Summary returns the from-grid energy of the default group for the day,
// month and year containing now.
func (r *Reporter) Summary(ctx context.Context, now time.Time) (types.Summary, error) {
	group, err := r.monitor.DefaultGroup(ctx)
	if err != nil {
		return types.Summary{}, fmt.Errorf("failed to get default group: %w", err)
	}

	views := []types.View{types.ViewDay, types.ViewMonth, types.ViewYear}
	totals := make([]float64, len(views))

	eg, ectx := errgroup.WithContext(ctx)
	for i, view := range views {
		eg.Go(func() error {
			doc, err := r.monitor.Energy(ectx, group.ID, view, now)
			if err != nil {
				return fmt.Errorf("failed to get %s energy: %w", view, err)
			}
			totals[i] = energy.JoulesToKWH(doc.FromGrid)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return types.Summary{}, err
	}

	s := types.Summary{
		GroupID:   group.ID,
		GroupName: group.Name,
		Timestamp: now,
		DayKWH:    totals[0],
		MonthKWH:  totals[1],
		YearKWH:   totals[2],
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"summary",
		slog.String("groupID", s.GroupID),
		slog.Float64("dayKWH", s.DayKWH),
		slog.Float64("monthKWH", s.MonthKWH),
		slog.Float64("yearKWH", s.YearKWH),
	)
	return s, nil
}

// Series decodes every leaf of the default group's energy tree for the period
// of view containing now and archives the result. Leaves that fail to decode
// carry their error instead of samples. A period that ended before now is
// served from the archive when it holds a series of the current version.
func (r *Reporter) Series(ctx context.Context, view types.View, now time.Time) (types.EnergySeries, error) {
	group, err := r.monitor.DefaultGroup(ctx)
	if err != nil {
		return types.EnergySeries{}, fmt.Errorf("failed to get default group: %w", err)
	}
	start := r.monitor.PeriodStart(view, now)

	if !monitor.PeriodEnd(view, start).After(now) {
		archived, err := r.db.GetSeries(ctx, group.ID, view, start)
		switch {
		case err == nil && archived.Version == types.CurrentSeriesVersion:
			log.Ctx(ctx).DebugContext(
				ctx,
				"series served from archive",
				slog.String("groupID", group.ID),
				slog.String("view", string(view)),
				slog.Time("start", start),
			)
			return archived, nil
		case err != nil && !errors.Is(err, storage.ErrSeriesNotFound):
			log.Ctx(ctx).WarnContext(
				ctx,
				"failed to read archived series",
				slog.String("groupID", group.ID),
				slog.String("view", string(view)),
				slog.Any("error", err),
			)
		}
	}

	doc, err := r.monitor.Energy(ctx, group.ID, view, now)
	if err != nil {
		return types.EnergySeries{}, fmt.Errorf("failed to get %s energy: %w", view, err)
	}

	decoded, err := energy.DecodeLeaves(ctx, energy.Flatten(doc.SubGroups), r.decodeLimit)
	if err != nil {
		return types.EnergySeries{}, err
	}

	series := types.EnergySeries{
		GroupID:   group.ID,
		GroupName: group.Name,
		View:      view,
		Start:     start,
		Leaves:    energy.Samples(decoded),
		Version:   types.CurrentSeriesVersion,
	}

	// archiving is best effort
	if err := r.db.UpsertSeries(ctx, series); err != nil {
		log.Ctx(ctx).WarnContext(
			ctx,
			"failed to archive series",
			slog.String("groupID", series.GroupID),
			slog.String("view", string(view)),
			slog.Any("error", err),
		)
	}
	return series, nil
}

// History returns the archived series of the default group for every period
// of view from the one containing since up to until, ordered by start.
func (r *Reporter) History(ctx context.Context, view types.View, since, until time.Time) ([]types.EnergySeries, error) {
	if until.Before(since) {
		return nil, fmt.Errorf("history ends (%s) before it starts (%s)", until, since)
	}
	group, err := r.monitor.DefaultGroup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get default group: %w", err)
	}
	start := r.monitor.PeriodStart(view, since)
	list, err := r.db.ListSeries(ctx, group.ID, view, start, until)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived series: %w", err)
	}
	if list == nil {
		list = []types.EnergySeries{}
	}
	return list, nil
}

// Panels builds the panel topology from the account configuration.
func (r *Reporter) Panels(ctx context.Context) (*topology.Topology, error) {
	cfg, err := r.monitor.Config(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	return topology.Build(ctx, cfg, r.indexing)
}
