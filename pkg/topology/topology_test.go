package topology

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/breakerview/breakerview/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configDoc = `{
	"panels": [
		{"account_id": 7, "name": "Main", "index": 0, "spaces": 20, "meter": 0},
		{"account_id": 7, "name": "Garage", "index": 1, "spaces": 8, "meter": 1}
	],
	"breaker_groups": [
		{"_id": "bg", "name": "House", "sub_groups": [
			{"name": "Kitchen", "sub_groups": [
				{"name": "Fridge", "breakers": [{"panel": 0, "space": 1, "name": "Fridge", "size_amps": 20}]},
				{"name": "Oven", "breakers": [
					{"panel": 0, "space": 3, "name": "Oven L1", "size_amps": 40, "double_power": true},
					{"panel": 0, "space": 5, "name": "Oven L2", "size_amps": 40, "double_power": true}
				]}
			]},
			{"name": "EV", "breakers": [{"panel": 1, "space": 2, "name": "Charger", "size_amps": 50}]},
			{"name": "Spare", "sub_groups": []}
		]}
	]
}`

func TestBuild(t *testing.T) {
	var cfg types.Config
	require.NoError(t, json.Unmarshal([]byte(configDoc), &cfg))

	t.Run("Assembles", func(t *testing.T) {
		top, err := Build(context.Background(), cfg, SpaceIndexingExclusive)
		require.NoError(t, err)

		assert.Equal(t, []int{0, 1}, top.Indexes())
		main, ok := top.Panel(0)
		require.True(t, ok)
		assert.Equal(t, "Main", main.Name)
		assert.Equal(t, 7, main.AccountID)

		var got []string
		for _, b := range main.Breakers() {
			got = append(got, b.Name)
		}
		assert.Equal(t, []string{"Fridge", "Oven L1", "Oven L2"}, got, "breakers keep document order")

		garage := top.Panels()[1]
		require.NotNil(t, garage)
		b, ok := garage.SpaceMap().Breaker(2)
		require.True(t, ok)
		assert.Equal(t, "Charger", b.Name)
		assert.Equal(t, 7, garage.SpaceMap().Len())

		assert.Empty(t, top.Collisions())

		_, ok = top.Panel(9)
		assert.False(t, ok)
	})

	t.Run("UnknownPanel", func(t *testing.T) {
		bad := cfg
		bad.BreakerGroups = []types.Group{{
			Name:     "Shed",
			Breakers: []types.Breaker{{Panel: 4, Space: 1, Name: "Shed"}},
		}}
		_, err := Build(context.Background(), bad, SpaceIndexingExclusive)
		var ue *UnknownPanelError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, 4, ue.Breaker.Panel)
		assert.Contains(t, err.Error(), "unknown panel 4")
	})

	t.Run("LastSpace", func(t *testing.T) {
		withLast := cfg
		withLast.BreakerGroups = []types.Group{{
			Name:     "Edge",
			Breakers: []types.Breaker{{Panel: 1, Space: 8, Name: "Edge"}},
		}}
		_, err := Build(context.Background(), withLast, SpaceIndexingExclusive)
		var se *SpaceOutOfRangeError
		assert.True(t, errors.As(err, &se))

		top, err := Build(context.Background(), withLast, SpaceIndexingInclusive)
		require.NoError(t, err)
		p, _ := top.Panel(1)
		b, ok := p.SpaceMap().Breaker(8)
		require.True(t, ok)
		assert.Equal(t, "Edge", b.Name)
	})

	t.Run("Collisions", func(t *testing.T) {
		dup := cfg
		dup.BreakerGroups = []types.Group{{
			Name: "Dup",
			Breakers: []types.Breaker{
				{Panel: 0, Space: 4, Name: "A"},
				{Panel: 0, Space: 4, Name: "B"},
			},
		}}
		top, err := Build(context.Background(), dup, SpaceIndexingExclusive)
		require.NoError(t, err)
		c := top.Collisions()
		require.Len(t, c[0], 1)
		assert.Equal(t, "A", c[0][0].Previous.Name)
		assert.Equal(t, "B", c[0][0].Current.Name)
	})

	t.Run("DuplicatePanel", func(t *testing.T) {
		dup := types.Config{Panels: []types.PanelDescriptor{{Index: 0}, {Index: 0}}}
		_, err := Build(context.Background(), dup, SpaceIndexingExclusive)
		var de *DuplicatePanelError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("Empty", func(t *testing.T) {
		top, err := Build(context.Background(), types.Config{}, SpaceIndexingExclusive)
		require.NoError(t, err)
		assert.Empty(t, top.Indexes())
	})

	t.Run("JSON", func(t *testing.T) {
		top, err := Build(context.Background(), cfg, SpaceIndexingExclusive)
		require.NoError(t, err)
		out, err := json.Marshal(top)
		require.NoError(t, err)
		var got struct {
			Panels []struct {
				Index int `json:"index"`
			} `json:"panels"`
		}
		require.NoError(t, json.Unmarshal(out, &got))
		require.Len(t, got.Panels, 2)
		assert.Equal(t, 0, got.Panels[0].Index)
		assert.Equal(t, 1, got.Panels[1].Index)
	})
}
