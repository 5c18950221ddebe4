package input_test

import (
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/input"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/randengine"
)

func sample(layout *junction.Layout) *input.Scenario {
	return &input.Scenario{Cars: []input.SpawnRecord{
		input.NewSpawnRecord(layout, 3, lane.North, lane.Left, 5),
		input.NewSpawnRecord(layout, 1, lane.South, lane.Straight, 0),
		input.NewSpawnRecord(layout, 2, lane.East, lane.Right, 5),
	}}
}

func TestValidateSorts(t *testing.T) {
	s := sample(junction.Default())
	require.NoError(t, s.Validate())
	assert.Equal(t, int32(1), s.Cars[0].ID)
	assert.Equal(t, int32(2), s.Cars[1].ID)
	assert.Equal(t, int32(3), s.Cars[2].ID)
}

func TestValidateErrors(t *testing.T) {
	layout := junction.Default()
	cases := []struct {
		name string
		edit func(s *input.Scenario)
		err  error
	}{
		{"dup", func(s *input.Scenario) { s.Cars[1].ID = 3 }, input.ErrDuplicateID},
		{"lane", func(s *input.Scenario) { s.Cars[0].Lane = 4 }, input.ErrBadLane},
		{"intention", func(s *input.Scenario) { s.Cars[0].Intention = "u" }, input.ErrBadIntention},
		{"tick", func(s *input.Scenario) { s.Cars[2].CreationTick = -1 }, input.ErrBadTick},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := sample(layout)
			tc.edit(s)
			assert.ErrorIs(t, s.Validate(), tc.err)
		})
	}
}

func TestFileAndInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cars.yaml")
	layout := junction.Default()
	require.NoError(t, sample(layout).WriteFile(path))

	s, err := input.Init(config.Config{Input: config.Input{Scenario: config.InputPath{
		File: path,
		IDs:  []int32{3, 2, 99},
	}}}, "")
	require.NoError(t, err)
	require.Len(t, s.Cars, 2)
	assert.Equal(t, int32(2), s.Cars[0].ID)
	assert.Equal(t, lane.North, s.Cars[1].Lane)
	assert.Equal(t, lane.Left, s.Cars[1].Intention)
	assert.Equal(t, layout.Spawn(lane.North), s.Cars[1].Pose())
}

func TestInitFromCache(t *testing.T) {
	dir := t.TempDir()
	path := config.InputPath{DB: "sim", Col: "cars", OnlyCache: true}

	_, err := input.Init(config.Config{Input: config.Input{Scenario: path}}, dir)
	assert.Error(t, err)

	require.NoError(t, sample(junction.Default()).WriteFile(filepath.Join(dir, "sim.cars.yaml")))
	s, err := input.Init(config.Config{Input: config.Input{Scenario: path}}, dir)
	require.NoError(t, err)
	assert.Len(t, s.Cars, 3)
}

func TestInitNeedsSource(t *testing.T) {
	_, err := input.Init(config.Config{}, "")
	assert.Error(t, err)
	_, err = input.Init(config.Config{Input: config.Input{Scenario: config.InputPath{DB: "a", Col: "b"}}}, "")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	layout := junction.Default()
	g := config.Generate{Rate: 0.5, Ticks: 400}
	a := input.Generate(layout, g, randengine.New(11))
	b := input.Generate(layout, g, randengine.New(11))
	assert.Equal(t, a, b)
	require.NotEmpty(t, a.Cars)
	assert.Less(t, len(a.Cars), 400)
	require.NoError(t, a.Validate())
	for _, r := range a.Cars {
		assert.Equal(t, r.ID, r.CreationTick)
		assert.Less(t, r.CreationTick, int32(400))
		assert.Equal(t, layout.Spawn(r.Lane), r.Pose())
	}

	assert.Empty(t, input.Generate(layout, config.Generate{Ticks: 100}, randengine.New(1)).Cars)
}

func TestGenerateIntentionWeights(t *testing.T) {
	layout := junction.Default()
	g := config.Generate{Rate: 0.5, Ticks: 400, Intentions: []float64{0, 1, 3}}
	s := input.Generate(layout, g, randengine.New(5))
	require.NotEmpty(t, s.Cars)
	counts := lo.CountValues(lo.Map(s.Cars, func(r input.SpawnRecord, _ int) lane.Intention { return r.Intention }))
	assert.Zero(t, counts[lane.Left])
	assert.Greater(t, counts[lane.Right], counts[lane.Straight])
}
