package car

import (
	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossing-sim/entity"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/graph"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/motion"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/container"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/input"
)

// Observation 被跟随车辆的最新已知状态，来自Info消息
type Observation struct {
	X, Y      float64
	Speed     float64
	Acc       float64
	Heading   float64
	Lane      lane.Lane
	Intention lane.Intention
	Tick      int32 // 收到Info时的步数
}

// State 转换为运动状态
func (o Observation) State() motion.State {
	return motion.State{X: o.X, Y: o.Y, Heading: o.Heading, Speed: o.Speed, Acc: o.Acc}
}

// Snapshot 供显示与输出使用的车辆快照
type Snapshot struct {
	ID          int32          `yaml:"id"`
	X           float64        `yaml:"x"`
	Y           float64        `yaml:"y"`
	Heading     float64        `yaml:"heading"`
	Speed       float64        `yaml:"speed"`
	Acc         float64        `yaml:"acc"`
	Role        Role           `yaml:"role"`
	Coordinator int32          `yaml:"coordinator"`
	Deputy      int32          `yaml:"deputy"`
	Controller  ControllerKind `yaml:"controller"`
}

// Timeline 车辆生命周期中各事件发生的步数，-1表示尚未发生
type Timeline struct {
	Created  int32 `yaml:"created"`
	Entered  int32 `yaml:"entered"`
	Departed int32 `yaml:"departed"`
	Exited   int32 `yaml:"exited"`
}

// Car 参与无信号路口协同通行的车辆
// 功能：持有运动状态、私有优先图与跟随表，根据消息维护角色，并按控制器与车距传感器推进
// 说明：
//   - 优先图与跟随表归本车独占，收到的图总是深拷贝后使用
//   - 角色只在消息处理与选举中改变，处理函数返回新角色
//   - 所有方法只能由驱动模拟的单一线程调用
type Car struct {
	container.IncrementalItemBase

	ctx    entity.ITaskContext
	params motion.Params
	attr   config.Vehicle

	id        int32
	lane      lane.Lane
	intention lane.Intention
	origin    input.SpawnRecord // 生成时的记录
	route     motion.Route
	track     *motion.Track // 沿路线会占据的区域
	progress  int           // 在track上的行驶进度

	state motion.State

	// 协同

	role        Role
	graph       *graph.Graph
	following   map[int32]*Observation // 需要让行的车辆及其最新已知状态，nil表示尚未收到Info
	coordinator int32
	deputy      int32

	infoCounter     int
	electionCounter int

	// 控制

	controller ControllerKind
	pinned     bool // 控制器被固定，不随跟随表变化
	sensor     sensor
	pending    Action // 上一步传感器给出的动作，在本步生效

	// 生命周期

	entered     bool
	insideInner bool
	departed    bool
	exited      bool
	timeline    Timeline
}

// newCar 根据生成记录创建车辆
// 功能：初始化运动状态与协同状态，并从信道获取同车道前车作为车距传感器的目标
func newCar(ctx entity.ITaskContext, record input.SpawnRecord) *Car {
	attr := ctx.RuntimeConfig().V
	c := &Car{
		ctx:         ctx,
		params:      ctx.Params(),
		attr:        attr,
		id:          record.ID,
		lane:        record.Lane,
		intention:   record.Intention,
		origin:      record,
		route:       motion.NewRouteFrom(ctx.Layout(), record.Pose(), record.Lane, record.Intention),
		state:       motion.FromPose(record.Pose()),
		role:        Plain,
		graph:       graph.New(),
		following:   make(map[int32]*Observation),
		coordinator: graph.NoID,
		deputy:      graph.NoID,
		controller:  Accelerating,
		pending:     noAction(),
		timeline: Timeline{
			Created:  ctx.Clock().InternalStep,
			Entered:  -1,
			Departed: -1,
			Exited:   -1,
		},
	}
	c.track = motion.NewTrack(c.route, c.params, attr.Length, attr.Width, trackPad)
	ch := ctx.Channel()
	c.sensor = newSensor(attr.Sensor, ch.RecentEntering(c.lane))
	ch.SetRecentEntering(c.lane, c)
	return c
}

func (c *Car) ID() int32                 { return c.id }
func (c *Car) Lane() lane.Lane           { return c.lane }
func (c *Car) Intention() lane.Intention { return c.intention }
func (c *Car) Length() float64           { return c.attr.Length }
func (c *Car) Width() float64            { return c.attr.Width }
func (c *Car) State() motion.State       { return c.state }
func (c *Car) Entered() bool             { return c.entered }
func (c *Car) Departed() bool            { return c.departed }
func (c *Car) Exited() bool              { return c.exited }
func (c *Car) Role() Role                { return c.role }
func (c *Car) Coordinator() int32        { return c.coordinator }
func (c *Car) Deputy() int32             { return c.deputy }
func (c *Car) Origin() input.SpawnRecord { return c.origin }
func (c *Car) Timeline() Timeline        { return c.timeline }
func (c *Car) EnteredAt() int32          { return c.timeline.Entered }

// Footprint 车身包围盒
func (c *Car) Footprint() orb.Bound {
	return c.footprintAt(c.state)
}

func (c *Car) footprintAt(s motion.State) orb.Bound {
	return junction.Footprint(s.Point(), s.Heading, c.attr.Length, c.attr.Width)
}

// FullyInsideInner 车身是否完全处于冲突区内
func (c *Car) FullyInsideInner() bool {
	return junction.FullyInside(c.ctx.Layout().Inner, c.Footprint())
}

// Blocks 剩余行驶区域是否与包围盒重叠
func (c *Car) Blocks(b orb.Bound) bool {
	return c.track.Blocks(c.progress, b)
}

// Graph 本地优先图的深拷贝
func (c *Car) Graph() *graph.Graph {
	return c.graph.Clone()
}

// Following 跟随表中的车辆，按让行列表顺序
func (c *Car) Following() []int32 {
	return lo.Filter(c.graph.FollowList(c.id), func(id int32, _ int) bool {
		_, ok := c.following[id]
		return ok
	})
}

// Observed 被跟随车辆的最新已知状态
func (c *Car) Observed(id int32) (Observation, bool) {
	o, ok := c.following[id]
	if !ok || o == nil {
		return Observation{}, false
	}
	return *o, true
}

// Snapshot 当前快照
func (c *Car) Snapshot() Snapshot {
	return Snapshot{
		ID:          c.id,
		X:           c.state.X,
		Y:           c.state.Y,
		Heading:     c.state.Heading,
		Speed:       c.state.Speed,
		Acc:         c.state.Acc,
		Role:        c.role,
		Coordinator: c.coordinator,
		Deputy:      c.deputy,
		Controller:  c.controller,
	}
}

func (c *Car) broadcast(m message.Message) {
	c.ctx.Channel().Broadcast(m)
}

// Update 推进一步
// 算法说明：
// 1. 选择控制器给出加速度，与上一步传感器的建议取最小值后限幅
// 2. 制动包络检查，必要时降低加速度
// 3. 按运动学模型推进
// 4. 检查边界：驶入外边界时加入信道并广播Join；驶离冲突区时广播Departure；驶出外边界时结束
// 5. 车距传感器观察前车，建议下一步的加速度，必要时直接吸附速度，吸附后的状态同样需要通过制动包络检查
// 6. 仍在协同中时推进计数器，按间隔广播Info并检查选举
func (c *Car) Update() {
	if c.exited {
		return
	}
	action := c.propose()
	action.Update(c.pending)
	ahead := c.ahead()
	c.state.Acc = c.guard(c.params.ClampAcc(action.A), ahead)
	c.state = c.route.Advance(c.state, c.params)
	c.progress = c.track.Locate(c.progress, c.state.Point())

	c.checkBoundaries()

	c.pending = c.sensor.watch(c)
	if c.pending.SnapV {
		snapped := c.state
		snapped.Speed = motion.NextSpeed(c.pending.V, 0, c.params)
		if c.clear(snapped, ahead) {
			c.state = snapped
		}
	}

	if c.active() {
		c.tickCounters()
	}
}

// active 是否处于协同中：已驶入外边界且尚未离开冲突区
func (c *Car) active() bool {
	return c.entered && !c.departed
}

func (c *Car) checkBoundaries() {
	layout := c.ctx.Layout()
	pos := c.state.Point()
	tick := c.ctx.Clock().InternalStep
	if !c.entered && layout.InOuter(pos) {
		c.entered = true
		c.timeline.Entered = tick
		c.ctx.Channel().Add(c)
		c.broadcast(message.NewJoin(c.id, c.state.X, c.state.Y, c.lane, c.intention, c.state.Speed, c.state.Acc))
	}
	if c.entered && !c.departed && !c.insideInner && layout.InInner(pos) {
		c.insideInner = true
	}
	if c.insideInner && !c.departed && !layout.InInner(pos) {
		c.depart(tick)
	}
	if c.departed && !c.exited && !layout.InOuter(pos) {
		c.exited = true
		c.timeline.Exited = tick
		log.Debugf("car %d exited at %d", c.id, tick)
	}
}

// depart 驶离冲突区：广播离开，清空跟随表，车距传感器改为跟随出口方向的前车
func (c *Car) depart(tick int32) {
	c.departed = true
	c.timeline.Departed = tick
	c.broadcast(message.NewDeparture(c.id))
	clear(c.following)
	ch := c.ctx.Channel()
	exit := lane.Exit(c.lane, c.intention)
	c.sensor.retarget(ch.RecentLeaving(exit))
	ch.SetRecentLeaving(exit, c)
}
