package task

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/input"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/randengine"
	"gopkg.in/yaml.v2"
)

func newTestConfig(total int32) config.Config {
	var c config.Config
	c.Control.Step.Total = total
	return c
}

func scenarioOf(records ...input.SpawnRecord) *input.Scenario {
	return &input.Scenario{Cars: records}
}

func TestNewContextRejectsBadConfig(t *testing.T) {
	c := newTestConfig(10)
	c.Vehicle.Sensor = "lidar"
	_, err := NewContext(c, nil)
	assert.ErrorIs(t, err, config.ErrBadSensor)

	c = newTestConfig(10)
	c.Junction.Inner = config.Bound{MinX: 280, MinY: 280, MaxX: 900, MaxY: 490}
	_, err = NewContext(c, nil)
	assert.ErrorIs(t, err, junction.ErrInnerOutsideOuter)
}

func TestSingleCarRun(t *testing.T) {
	layout := junction.Default()
	ctx, err := NewContext(newTestConfig(400), scenarioOf(input.NewSpawnRecord(layout, 1, lane.East, lane.Straight, 0)))
	require.NoError(t, err)

	r := ctx.Run()
	assert.True(t, ctx.Finished())
	assert.Less(t, r.Ticks, int32(400))
	assert.Equal(t, 1, r.Spawned)
	assert.Equal(t, 1, r.Exited)
	assert.Zero(t, r.Pending)
	assert.Empty(t, r.Collisions)
	assert.Equal(t, 1, r.Messages["join"])
	assert.Equal(t, 1, r.Messages["departure"])
	assert.Equal(t, 1, r.Messages["welcome"])
	assert.Zero(t, r.Messages["deputy_assignment"])
	assert.Positive(t, r.Messages["info"])
	require.Len(t, r.Cars, 1)
	assert.Equal(t, "coordinator", r.Cars[0].Role.String())

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, r.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, 1, out["exited"])
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() *Report {
		layout := junction.Default()
		s := input.Generate(layout, config.Generate{Rate: 0.3, Ticks: 200}, randengine.New(7))
		require.NoError(t, s.Validate())
		ctx, err := NewContext(newTestConfig(600), s)
		require.NoError(t, err)
		return ctx.Run()
	}
	a, b := run(), run()
	assert.Equal(t, a, b)
	assert.Positive(t, a.Spawned)
	assert.Empty(t, a.Collisions)
}

// TestCrossingTrafficDoesNotCollide 垂直方向的两车以不同时间差驶入，均无碰撞地驶出
func TestCrossingTrafficDoesNotCollide(t *testing.T) {
	layout := junction.Default()
	for offset := int32(0); offset <= 10; offset++ {
		t.Run(fmt.Sprintf("offset %d", offset), func(t *testing.T) {
			ctx, err := NewContext(newTestConfig(1500), scenarioOf(
				input.NewSpawnRecord(layout, 1, lane.South, lane.Straight, 0),
				input.NewSpawnRecord(layout, 2, lane.East, lane.Straight, offset),
			))
			require.NoError(t, err)
			r := ctx.Run()
			assert.Empty(t, r.Collisions)
			assert.Equal(t, 2, r.Exited)
		})
	}
}

// TestSameLaneTrafficDoesNotCollide 同一进口车道先后生成的车辆不追尾
func TestSameLaneTrafficDoesNotCollide(t *testing.T) {
	layout := junction.Default()
	ctx, err := NewContext(newTestConfig(1500), scenarioOf(
		input.NewSpawnRecord(layout, 1, lane.South, lane.Left, 0),
		input.NewSpawnRecord(layout, 2, lane.South, lane.Straight, 1),
		input.NewSpawnRecord(layout, 3, lane.North, lane.Straight, 2),
	))
	require.NoError(t, err)
	r := ctx.Run()
	assert.Empty(t, r.Collisions)
	assert.Equal(t, 3, r.Spawned)
	assert.Equal(t, 3, r.Exited)
}

func TestDetectCollisions(t *testing.T) {
	layout := junction.Default()
	a := input.NewSpawnRecord(layout, 1, lane.South, lane.Straight, 0)
	a.InitialPosition = input.Position{X: 435, Y: 700}
	b := input.NewSpawnRecord(layout, 2, lane.East, lane.Straight, 0)
	b.InitialPosition = input.Position{X: 435, Y: 700}
	ctx, err := NewContext(newTestConfig(5), scenarioOf(a, b))
	require.NoError(t, err)

	r := ctx.Run()
	require.Len(t, r.Collisions, 1)
	assert.Equal(t, Collision{A: 1, B: 2, Tick: 0}, r.Collisions[0])
	assert.Equal(t, int32(5), r.Ticks)
}

func TestCloseStopsRun(t *testing.T) {
	layout := junction.Default()
	ctx, err := NewContext(newTestConfig(0), scenarioOf(input.NewSpawnRecord(layout, 1, lane.North, lane.Left, 0)))
	require.NoError(t, err)
	ctx.Close()
	r := ctx.Run()
	assert.Zero(t, r.Ticks)
	assert.Equal(t, 1, r.Pending)
	assert.Empty(t, r.Cars)
}
