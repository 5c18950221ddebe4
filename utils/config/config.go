package config

import (
	"errors"
	"fmt"
)

var (
	ErrBadStep     = errors.New("control.step.interval must be positive")
	ErrBadVehicle  = errors.New("vehicle parameters out of range")
	ErrBadJunction = errors.New("junction geometry out of range")
	ErrBadSensor   = errors.New("vehicle.sensor must be proximity or distance")
	ErrBadWeights  = errors.New("control.generate.intentions must be 3 non-negative weights")
)

const (
	SensorProximity = "proximity" // 逐步仿真追尾时间的车距传感器
	SensorDistance  = "distance"  // 按安全距离比例控制的车距传感器
)

// RuntimeConfig 运行时配置
// 功能：存储填充默认值后的配置
type RuntimeConfig struct {
	All Config   // 全部配置
	C   Control  // 全局控制配置
	J   Junction // 路口几何
	V   Vehicle  // 车辆参数
}

// NewRuntimeConfig 根据配置初始化全局变量
// 功能：创建运行时配置对象，为未设置的配置项填充默认值
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	c := config.Control
	if c.Step.Interval == 0 {
		c.Step.Interval = 0.1
	}
	if c.SpeedScale == 0 {
		c.SpeedScale = 2
	}

	j := config.Junction
	if j.Outer.IsZero() {
		j.Outer = Bound{MinX: 0, MinY: 0, MaxX: 768, MaxY: 768}
	}
	if j.Inner.IsZero() {
		j.Inner = Bound{MinX: 280, MinY: 280, MaxX: 490, MaxY: 490}
	}
	if len(j.Lines) == 0 {
		j.Lines = []float64{435, 345, 345, 435}
	}
	if j.SpawnMargin == 0 {
		j.SpawnMargin = 100
	}

	v := config.Vehicle
	if v.MaxSpeed == 0 {
		v.MaxSpeed = 20
	}
	if v.MaxAcc == 0 {
		v.MaxAcc = 4.2
	}
	if v.MinAcc == 0 {
		v.MinAcc = -5
	}
	if v.Length == 0 {
		v.Length = 56
	}
	if v.Width == 0 {
		v.Width = 28
	}
	if v.InfoInterval == 0 {
		v.InfoInterval = 4
	}
	if v.ElectionInterval == 0 {
		v.ElectionInterval = 4
	}
	if v.Sensor == "" {
		v.Sensor = SensorProximity
	}

	rc.All = config
	rc.All.Control, rc.All.Junction, rc.All.Vehicle = c, j, v
	rc.C, rc.J, rc.V = c, j, v
	return rc
}

// Validate 检查填充默认值后的配置
// 说明：路口几何的包含关系由junction.New进一步检查
func (rc *RuntimeConfig) Validate() error {
	if rc.C.Step.Interval <= 0 || rc.C.SpeedScale <= 0 {
		return ErrBadStep
	}
	if rc.C.Step.Total < 0 || rc.C.MaxAgents < 0 {
		return fmt.Errorf("control: negative total %d or max_agents %d", rc.C.Step.Total, rc.C.MaxAgents)
	}
	v := rc.V
	switch {
	case v.MaxSpeed <= 0:
		return fmt.Errorf("%w: max_speed %.2f", ErrBadVehicle, v.MaxSpeed)
	case v.MaxAcc <= 0 || v.MinAcc >= 0:
		return fmt.Errorf("%w: acceleration range [%.2f, %.2f]", ErrBadVehicle, v.MinAcc, v.MaxAcc)
	case v.Length <= 0 || v.Width <= 0:
		return fmt.Errorf("%w: size %.2fx%.2f", ErrBadVehicle, v.Length, v.Width)
	case v.InfoInterval < 0 || v.ElectionInterval < 0:
		return fmt.Errorf("%w: negative interval", ErrBadVehicle)
	}
	if v.Sensor != SensorProximity && v.Sensor != SensorDistance {
		return fmt.Errorf("%w: got %q", ErrBadSensor, v.Sensor)
	}
	if len(rc.J.Lines) != 4 {
		return fmt.Errorf("%w: need 4 lane lines, got %d", ErrBadJunction, len(rc.J.Lines))
	}
	if rc.J.SpawnMargin < 0 {
		return fmt.Errorf("%w: negative spawn margin", ErrBadJunction)
	}
	g := rc.C.Generate
	if g.Rate < 0 || g.Ticks < 0 {
		return fmt.Errorf("control.generate: negative rate %.3f or ticks %d", g.Rate, g.Ticks)
	}
	if len(g.Intentions) > 0 {
		sum := 0.0
		for _, w := range g.Intentions {
			if w < 0 {
				return fmt.Errorf("%w: %v", ErrBadWeights, g.Intentions)
			}
			sum += w
		}
		if len(g.Intentions) != 3 || sum <= 0 {
			return fmt.Errorf("%w: %v", ErrBadWeights, g.Intentions)
		}
	}
	return nil
}
