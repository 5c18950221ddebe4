package task

import (
	"fmt"
	"sync/atomic"

	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/crossing-sim/clock"
	"github.com/tsinghua-fib-lab/crossing-sim/entity"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/car"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/channel"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/motion"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/input"
)

// Context 模拟任务上下文
// 功能：持有时钟、路口布局、信道与车辆管理器，驱动逐步模拟
// 说明：实现entity.ITaskContext，单线程运行
type Context struct {
	closed atomic.Bool

	clock         *clock.Clock
	runtimeConfig *config.RuntimeConfig
	layout        *junction.Layout
	params        motion.Params
	paths         *motion.Paths

	channel    *channel.Channel
	carManager *car.Manager

	scenario   *input.Scenario
	collisions map[[2]int32]int32 // 发生重叠的车辆对（小ID在前）到首次重叠的步数
}

// NewLayout 根据配置创建路口布局
func NewLayout(j config.Junction) (*junction.Layout, error) {
	if len(j.Lines) != lane.Count {
		return nil, fmt.Errorf("junction: need %d lane lines, got %d", lane.Count, len(j.Lines))
	}
	bound := func(b config.Bound) orb.Bound {
		return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
	}
	return junction.New(bound(j.Outer), bound(j.Inner), [lane.Count]float64(j.Lines), j.SpawnMargin)
}

// NewParams 根据配置创建运动学参数
func NewParams(rc *config.RuntimeConfig) motion.Params {
	return motion.Params{
		TimeStep:   rc.C.Step.Interval,
		SpeedScale: rc.C.SpeedScale,
		MaxSpeed:   rc.V.MaxSpeed,
		MaxAcc:     rc.V.MaxAcc,
		MinAcc:     rc.V.MinAcc,
	}
}

// NewContext 创建模拟任务
// 参数：c-配置，scenario-已校验的车辆生成记录
// 返回：任务上下文或配置错误
func NewContext(c config.Config, scenario *input.Scenario) (*Context, error) {
	rc := config.NewRuntimeConfig(c)
	if err := rc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	layout, err := NewLayout(rc.J)
	if err != nil {
		return nil, fmt.Errorf("invalid junction: %w", err)
	}
	ctx := &Context{
		clock:         clock.New(rc.C.Step),
		runtimeConfig: rc,
		layout:        layout,
		params:        NewParams(rc),
		channel:       channel.New(),
		scenario:      scenario,
		collisions:    make(map[[2]int32]int32),
	}
	ctx.paths = motion.NewPaths(layout, ctx.params, rc.V.Width/2)
	ctx.carManager = car.NewManager(ctx)
	return ctx, nil
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Channel() entity.IChannel {
	return ctx.channel
}

func (ctx *Context) Layout() *junction.Layout {
	return ctx.layout
}

func (ctx *Context) Params() motion.Params {
	return ctx.params
}

func (ctx *Context) Paths() *motion.Paths {
	return ctx.paths
}

func (ctx *Context) AgentManager() entity.IAgentManager {
	return ctx.carManager
}

// CarManager 车辆管理器
func (ctx *Context) CarManager() *car.Manager {
	return ctx.carManager
}

// Init 重置时钟并载入生成记录
func (ctx *Context) Init() {
	ctx.clock.Init()
	cars := []input.SpawnRecord{}
	if ctx.scenario != nil {
		cars = ctx.scenario.Cars
	}
	log.Infof("Car: %v", len(cars))
	ctx.carManager.Init(cars)
}

// Close 请求在当前步结束后停止运行
func (ctx *Context) Close() {
	ctx.closed.Store(true)
}
