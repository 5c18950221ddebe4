package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
	"gopkg.in/yaml.v2"
)

func TestDefaults(t *testing.T) {
	rc := config.NewRuntimeConfig(config.Config{})
	require.NoError(t, rc.Validate())
	assert.Equal(t, 0.1, rc.C.Step.Interval)
	assert.Equal(t, 2.0, rc.C.SpeedScale)
	assert.Equal(t, 56.0, rc.V.Length)
	assert.Equal(t, 28.0, rc.V.Width)
	assert.Equal(t, 4, rc.V.InfoInterval)
	assert.Equal(t, 4, rc.V.ElectionInterval)
	assert.Equal(t, config.SensorProximity, rc.V.Sensor)
	assert.Equal(t, config.Bound{MinX: 280, MinY: 280, MaxX: 490, MaxY: 490}, rc.J.Inner)
	assert.Equal(t, rc.V, rc.All.Vehicle)
}

func TestStrictYAML(t *testing.T) {
	data := []byte(`
input:
  scenario:
    file: cars.yaml
control:
  step:
    start: 0
    total: 3000
    interval: 0.05
  max_agents: 12
vehicle:
  sensor: distance
  election_interval: 8
output:
  report: out.yaml
`)
	var c config.Config
	require.NoError(t, yaml.UnmarshalStrict(data, &c))
	rc := config.NewRuntimeConfig(c)
	require.NoError(t, rc.Validate())
	assert.Equal(t, "cars.yaml", rc.All.Input.Scenario.File)
	assert.Equal(t, int32(3000), rc.C.Step.Total)
	assert.Equal(t, 0.05, rc.C.Step.Interval)
	assert.Equal(t, 12, rc.C.MaxAgents)
	assert.Equal(t, 8, rc.V.ElectionInterval)
	assert.Equal(t, 4, rc.V.InfoInterval)
	assert.Equal(t, "out.yaml", rc.All.Output.Report)

	assert.Error(t, yaml.UnmarshalStrict([]byte("control:\n  bogus: 1\n"), &c))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		edit func(c *config.Config)
		err  error
	}{
		{"sensor", func(c *config.Config) { c.Vehicle.Sensor = "lidar" }, config.ErrBadSensor},
		{"acc", func(c *config.Config) { c.Vehicle.MinAcc = 1 }, config.ErrBadVehicle},
		{"step", func(c *config.Config) { c.Control.Step.Interval = -1 }, config.ErrBadStep},
		{"lines", func(c *config.Config) { c.Junction.Lines = []float64{1, 2} }, config.ErrBadJunction},
		{"weights", func(c *config.Config) { c.Control.Generate.Intentions = []float64{1, 1} }, config.ErrBadWeights},
		{"negative weight", func(c *config.Config) { c.Control.Generate.Intentions = []float64{1, -1, 1} }, config.ErrBadWeights},
		{"zero weights", func(c *config.Config) { c.Control.Generate.Intentions = []float64{0, 0, 0} }, config.ErrBadWeights},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c config.Config
			tc.edit(&c)
			assert.ErrorIs(t, config.NewRuntimeConfig(c).Validate(), tc.err)
		})
	}
}

func TestCachePath(t *testing.T) {
	p := config.InputPath{DB: "sim", Col: "cars"}
	assert.Equal(t, "sim.cars.yaml", p.GetCachePath())
	p.Cache = "x.yaml"
	assert.Equal(t, "x.yaml", p.GetCachePath())
}
