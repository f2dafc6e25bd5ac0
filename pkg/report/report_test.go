package report

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/breakerview/breakerview/pkg/energy"
	"github.com/breakerview/breakerview/pkg/log"
	"github.com/breakerview/breakerview/pkg/monitor/monitormock"
	"github.com/breakerview/breakerview/pkg/storage"
	"github.com/breakerview/breakerview/pkg/storage/storagemock"
	"github.com/breakerview/breakerview/pkg/topology"
	"github.com/breakerview/breakerview/pkg/types"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

var (
	testNow   = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	testGroup = types.Group{ID: "bg1", Name: "House"}
)

func TestSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(testGroup, nil)
		svc.On("Energy", mock.Anything, "bg1", types.ViewDay, testNow).Return(types.Group{FromGrid: 7_200_000}, nil)
		svc.On("Energy", mock.Anything, "bg1", types.ViewMonth, testNow).Return(types.Group{FromGrid: 36_000_000}, nil)
		svc.On("Energy", mock.Anything, "bg1", types.ViewYear, testNow).Return(types.Group{FromGrid: 1_800_000}, nil)

		r := New(svc, nil, topology.SpaceIndexingExclusive, 0)
		s, err := r.Summary(ctx, testNow)
		require.NoError(t, err)
		assert.Equal(t, types.Summary{
			GroupID:   "bg1",
			GroupName: "House",
			Timestamp: testNow,
			DayKWH:    2,
			MonthKWH:  10,
			YearKWH:   0.5,
		}, s)
		svc.AssertExpectations(t)
	})

	t.Run("EnergyError", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(testGroup, nil)
		svc.On("Energy", mock.Anything, "bg1", mock.Anything, testNow).Return(types.Group{}, errors.New("boom"))

		r := New(svc, nil, topology.SpaceIndexingExclusive, 0)
		_, err := r.Summary(ctx, testNow)
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("NoGroup", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(types.Group{}, errors.New("no groups"))

		r := New(svc, nil, topology.SpaceIndexingExclusive, 0)
		_, err := r.Summary(ctx, testNow)
		assert.ErrorContains(t, err, "failed to get default group")
	})
}

func energyDoc() types.Group {
	return types.Group{
		ID:   "bg1",
		Name: "House",
		SubGroups: []types.Group{
			{Name: "Kitchen", SubGroups: []types.Group{
				{Name: "Fridge", Blocks: &types.Blocks{Base64: "QEAAAA=="}},
			}},
			{Name: "Broken", Blocks: &types.Blocks{Base64: "QEAA"}},
			{Name: "Garage", Blocks: &types.Blocks{Base64: "AAAAAA=="}},
		},
	}
}

func TestSeries(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("DecodesAndArchives", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(testGroup, nil)
		svc.On("Energy", mock.Anything, "bg1", types.ViewDay, testNow).Return(energyDoc(), nil)

		db := &storagemock.MockDatabase{}
		db.On("UpsertSeries", mock.Anything, mock.MatchedBy(func(s types.EnergySeries) bool {
			return s.GroupID == "bg1" && s.View == types.ViewDay && s.Start.Equal(start) && len(s.Leaves) == 3
		})).Return(nil)

		r := New(svc, db, topology.SpaceIndexingExclusive, 2)
		s, err := r.Series(ctx, types.ViewDay, testNow)
		require.NoError(t, err)

		assert.Equal(t, "House", s.GroupName)
		assert.Equal(t, types.CurrentSeriesVersion, s.Version)
		require.Len(t, s.Leaves, 3)

		assert.Equal(t, "Fridge", s.Leaves[0].Name)
		assert.Equal(t, []float64{energy.JoulesToKWH(3)}, s.Leaves[0].KWH)
		assert.Empty(t, s.Leaves[0].Error)

		assert.Equal(t, "Broken", s.Leaves[1].Name)
		assert.Nil(t, s.Leaves[1].KWH)
		assert.NotEmpty(t, s.Leaves[1].Error)

		assert.Equal(t, "Garage", s.Leaves[2].Name)
		assert.Equal(t, []float64{0}, s.Leaves[2].KWH)

		db.AssertExpectations(t)
	})

	t.Run("ArchiveFailureIgnored", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(testGroup, nil)
		svc.On("Energy", mock.Anything, "bg1", types.ViewDay, testNow).Return(energyDoc(), nil)

		db := &storagemock.MockDatabase{}
		db.On("UpsertSeries", mock.Anything, mock.Anything).Return(errors.New("unavailable"))

		r := New(svc, db, topology.SpaceIndexingExclusive, 0)
		s, err := r.Series(ctx, types.ViewDay, testNow)
		require.NoError(t, err)
		assert.Len(t, s.Leaves, 3)
	})

	t.Run("Canceled", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(testGroup, nil)
		svc.On("Energy", mock.Anything, "bg1", types.ViewDay, testNow).Return(energyDoc(), nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		r := New(svc, nil, topology.SpaceIndexingExclusive, 0)
		_, err := r.Series(cctx, types.ViewDay, testNow)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSeriesCompletedPeriod(t *testing.T) {
	ctx := context.Background()
	yesterday := testNow.AddDate(0, 0, -1)
	start := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("FromArchive", func(t *testing.T) {
		archived := types.EnergySeries{
			GroupID: "bg1",
			View:    types.ViewDay,
			Start:   start,
			Leaves:  []types.LeafSamples{{Name: "Fridge", KWH: []float64{1}}},
			Version: types.CurrentSeriesVersion,
		}
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(testGroup, nil)

		db := &storagemock.MockDatabase{}
		db.On("GetSeries", mock.Anything, "bg1", types.ViewDay, start).Return(archived, nil)

		s, err := New(svc, db, topology.SpaceIndexingExclusive, 0).Series(ctx, types.ViewDay, yesterday)
		require.NoError(t, err)
		assert.Equal(t, archived, s)
		svc.AssertNotCalled(t, "Energy", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		db.AssertNotCalled(t, "UpsertSeries", mock.Anything, mock.Anything)
	})

	t.Run("NotArchived", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(testGroup, nil)
		svc.On("Energy", mock.Anything, "bg1", types.ViewDay, yesterday).Return(energyDoc(), nil)

		db := &storagemock.MockDatabase{}
		db.On("GetSeries", mock.Anything, "bg1", types.ViewDay, start).Return(types.EnergySeries{}, storage.ErrSeriesNotFound)
		db.On("UpsertSeries", mock.Anything, mock.Anything).Return(nil)

		s, err := New(svc, db, topology.SpaceIndexingExclusive, 0).Series(ctx, types.ViewDay, yesterday)
		require.NoError(t, err)
		assert.True(t, s.Start.Equal(start))
		assert.Len(t, s.Leaves, 3)
		db.AssertExpectations(t)
	})

	t.Run("OldVersionRefetched", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(testGroup, nil)
		svc.On("Energy", mock.Anything, "bg1", types.ViewDay, yesterday).Return(energyDoc(), nil)

		db := &storagemock.MockDatabase{}
		db.On("GetSeries", mock.Anything, "bg1", types.ViewDay, start).Return(types.EnergySeries{GroupID: "bg1", Version: 0}, nil)
		db.On("UpsertSeries", mock.Anything, mock.Anything).Return(nil)

		s, err := New(svc, db, topology.SpaceIndexingExclusive, 0).Series(ctx, types.ViewDay, yesterday)
		require.NoError(t, err)
		assert.Equal(t, types.CurrentSeriesVersion, s.Version)
		assert.Len(t, s.Leaves, 3)
		db.AssertExpectations(t)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	since := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("Lists", func(t *testing.T) {
		want := []types.EnergySeries{
			{GroupID: "bg1", View: types.ViewDay, Start: start},
			{GroupID: "bg1", View: types.ViewDay, Start: start.AddDate(0, 0, 1)},
		}
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(testGroup, nil)
		db := &storagemock.MockDatabase{}
		db.On("ListSeries", mock.Anything, "bg1", types.ViewDay, start, testNow).Return(want, nil)

		got, err := New(svc, db, topology.SpaceIndexingExclusive, 0).History(ctx, types.ViewDay, since, testNow)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Empty", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("DefaultGroup", mock.Anything).Return(testGroup, nil)

		got, err := New(svc, nil, topology.SpaceIndexingExclusive, 0).History(ctx, types.ViewDay, since, testNow)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Backwards", func(t *testing.T) {
		svc := &monitormock.MockService{}
		_, err := New(svc, nil, topology.SpaceIndexingExclusive, 0).History(ctx, types.ViewDay, testNow, since)
		assert.ErrorContains(t, err, "before it starts")
	})
}

func TestPanels(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{
		Panels: []types.PanelDescriptor{{Index: 0, Name: "Main", Spaces: 4}},
		BreakerGroups: []types.Group{{
			ID:   "bg1",
			Name: "House",
			SubGroups: []types.Group{
				{Name: "Lights", Breakers: []types.Breaker{{Panel: 0, Space: 1, Name: "Lights"}}},
				{Name: "Dryer", Breakers: []types.Breaker{{Panel: 0, Space: 3, Name: "Dryer"}}},
			},
		}},
	}

	t.Run("Exclusive", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("Config", mock.Anything).Return(cfg, nil)

		topo, err := New(svc, nil, topology.SpaceIndexingExclusive, 0).Panels(ctx)
		require.NoError(t, err)
		p, ok := topo.Panel(0)
		require.True(t, ok)
		assert.Equal(t, []int{1, 2, 3}, p.SpaceMap().Spaces())
		assert.Len(t, p.Breakers(), 2)
	})

	t.Run("UnknownPanel", func(t *testing.T) {
		bad := cfg
		bad.BreakerGroups = []types.Group{{Name: "x", Breakers: []types.Breaker{{Panel: 9, Space: 1}}}}
		svc := &monitormock.MockService{}
		svc.On("Config", mock.Anything).Return(bad, nil)

		_, err := New(svc, nil, topology.SpaceIndexingInclusive, 0).Panels(ctx)
		var upe *topology.UnknownPanelError
		assert.ErrorAs(t, err, &upe)
	})

	t.Run("ConfigError", func(t *testing.T) {
		svc := &monitormock.MockService{}
		svc.On("Config", mock.Anything).Return(types.Config{}, errors.New("down"))

		_, err := New(svc, nil, topology.SpaceIndexingExclusive, 0).Panels(ctx)
		assert.ErrorContains(t, err, "failed to get config")
	})
}
