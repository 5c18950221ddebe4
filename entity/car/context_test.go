package car

import (
	"github.com/tsinghua-fib-lab/crossing-sim/clock"
	"github.com/tsinghua-fib-lab/crossing-sim/entity"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/channel"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/motion"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/input"
)

// testContext 单路口的测试上下文
type testContext struct {
	clock   *clock.Clock
	rc      *config.RuntimeConfig
	ch      *channel.Channel
	layout  *junction.Layout
	params  motion.Params
	paths   *motion.Paths
	manager *Manager
}

var defaultPaths *motion.Paths

func newTestContext(edit func(c *config.Config)) *testContext {
	var c config.Config
	if edit != nil {
		edit(&c)
	}
	rc := config.NewRuntimeConfig(c)
	ctx := &testContext{
		clock:  clock.New(rc.C.Step),
		rc:     rc,
		ch:     channel.New(),
		layout: junction.Default(),
		params: motion.Params{
			TimeStep:   rc.C.Step.Interval,
			SpeedScale: rc.C.SpeedScale,
			MaxSpeed:   rc.V.MaxSpeed,
			MaxAcc:     rc.V.MaxAcc,
			MinAcc:     rc.V.MinAcc,
		},
	}
	if defaultPaths == nil {
		defaultPaths = motion.NewPaths(ctx.layout, ctx.params, rc.V.Width/2)
	}
	ctx.paths = defaultPaths
	ctx.manager = NewManager(ctx)
	return ctx
}

func (ctx *testContext) Clock() *clock.Clock                  { return ctx.clock }
func (ctx *testContext) RuntimeConfig() *config.RuntimeConfig { return ctx.rc }
func (ctx *testContext) Channel() entity.IChannel             { return ctx.ch }
func (ctx *testContext) Layout() *junction.Layout             { return ctx.layout }
func (ctx *testContext) Params() motion.Params                { return ctx.params }
func (ctx *testContext) Paths() *motion.Paths                 { return ctx.paths }
func (ctx *testContext) AgentManager() entity.IAgentManager   { return ctx.manager }

// step 按任务的顺序推进一步
func (ctx *testContext) step() {
	ctx.manager.Prepare(ctx.clock.InternalStep)
	ctx.ch.DoRound()
	ctx.manager.Update()
	ctx.clock.Tick()
}

// spawnAt 在指定位置创建车辆
func (ctx *testContext) spawnAt(id int32, ln lane.Lane, i lane.Intention, x, y, speed float64) *Car {
	r := input.NewSpawnRecord(ctx.layout, id, ln, i, 0)
	r.InitialPosition = input.Position{X: x, Y: y}
	c := newCar(ctx, r)
	c.state.Speed = speed
	return c
}

// spawn 在进口车道的标准生成点创建静止车辆
func (ctx *testContext) spawn(id int32, ln lane.Lane, i lane.Intention) *Car {
	return newCar(ctx, input.NewSpawnRecord(ctx.layout, id, ln, i, 0))
}

// join 车辆加入信道并广播Join，不移动车辆
func (ctx *testContext) join(c *Car) {
	c.entered = true
	ctx.ch.Add(c)
	c.broadcast(message.NewJoin(c.id, c.state.X, c.state.Y, c.lane, c.intention, c.state.Speed, c.state.Acc))
}

// admit 将手动创建的车辆交由管理器推进
func (ctx *testContext) admit(cars ...*Car) {
	for _, c := range cars {
		ctx.manager.data[c.id] = c
		ctx.manager.cars.Add(c)
	}
	ctx.manager.cars.Prepare()
}
