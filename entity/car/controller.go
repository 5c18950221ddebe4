package car

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/crossing-sim/entity/motion"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/container"
)

// bufferSeconds 让行时在被跟随车辆通过冲突点之后额外等待的时间（秒）
const bufferSeconds = 3

// ControllerKind 控制器类型
type ControllerKind int

const (
	Idle         ControllerKind = iota // 保持速度
	Accelerating                       // 以最大加速度加速
	GraphFollow                        // 按优先图让行
)

func (k ControllerKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Accelerating:
		return "accelerating"
	case GraphFollow:
		return "graph"
	default:
		return fmt.Sprintf("controller(%d)", int(k))
	}
}

// MarshalYAML 以名称输出
func (k ControllerKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// choose 根据跟随表大小选择控制器
func choose(following int) ControllerKind {
	if following > 0 {
		return GraphFollow
	}
	return Accelerating
}

// pin 固定控制器，之后不再随跟随表切换
func (c *Car) pin(kind ControllerKind) {
	c.controller = kind
	c.pinned = true
}

// propose 本步控制器给出的动作
func (c *Car) propose() Action {
	if !c.pinned {
		c.controller = choose(len(c.following))
	}
	switch c.controller {
	case Idle:
		return Action{A: 0}
	case GraphFollow:
		return c.followGraph()
	default:
		return Action{A: c.params.MaxAcc}
	}
}

// ranked 排序中的被跟随车辆
type ranked struct {
	id    int32
	ticks int
}

// followGraph 按优先图让行
// 算法说明：
//  1. 对每辆被跟随车辆，取两车路线的冲突点，近似估计其通过冲突点所需的步数
//     - 状态未知、静止或无法估计时以最大减速度制动
//     - 已经通过的车辆不再考虑
//     - 估计从收到Info时的状态出发，扣除此后已经过的步数
//  2. 以通过步数最大的车辆为准，逐步仿真本车到达冲突点的步数
//  3. 本车会早于该车通过后的缓冲时间到达时，求出恰好在缓冲时间后到达的加速度；否则以最大加速度行驶
func (c *Car) followGraph() Action {
	layout, paths := c.ctx.Layout(), c.ctx.Paths()
	now := c.ctx.Clock().InternalStep
	margin := c.attr.Length / 2
	queue := container.NewPriorityQueue[ranked]()
	for _, id := range c.Following() {
		o := c.following[id]
		if o == nil || o.Speed == 0 {
			return Action{A: c.params.MinAcc}
		}
		p := paths.ConflictPoint(c.lane, c.intention, o.Lane, o.Intention)
		pr := motion.NewPredictor(motion.NewRoute(layout, o.Lane, o.Intention), o.State(), c.params)
		ticks := pr.ApproxPassTicks(p, margin)
		switch ticks {
		case motion.NoPrediction:
			return Action{A: c.params.MinAcc}
		case motion.AlreadyPassed:
			continue
		}
		ticks = max(ticks-int(now-o.Tick), 0)
		queue.Push(ranked{id: id, ticks: ticks}, -float64(ticks))
	}
	if queue.Len() == 0 {
		return Action{A: c.params.MaxAcc}
	}
	queue.Heapify()
	first, _ := queue.First()
	o := c.following[first.id]
	p := c.ctx.Paths().ConflictPoint(c.lane, c.intention, o.Lane, o.Intention)
	self := motion.NewPredictor(c.route, c.state, c.params).ReachTicks(p, margin)
	wait := first.ticks + c.bufferTicks()
	switch {
	case self == motion.AlreadyPassed:
		return Action{A: c.params.MaxAcc}
	case self == motion.NoPrediction || self <= wait:
		d := motion.Manhattan(c.state.Point(), p)
		return Action{A: motion.ReachAcceleration(d, c.state.Speed, wait, c.params)}
	default:
		return Action{A: c.params.MaxAcc}
	}
}

// bufferTicks 缓冲时间对应的步数
func (c *Car) bufferTicks() int {
	return int(math.Round(bufferSeconds * c.params.TicksPerSecond()))
}
