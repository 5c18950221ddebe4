package car

import (
	"github.com/paulmach/orb/planar"
	"github.com/tsinghua-fib-lab/crossing-sim/entity"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/motion"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
)

const maxCrashSteps = 10000 // 追尾预测的最大步数

// sensor 车距传感器
// 功能：只观察同车道的前车，与优先图无关
// 说明：
//   - 进口阶段跟随同一进口车道最近驶入的车辆，前车完全进入冲突区或驶出路口后解除
//   - 出口阶段跟随驶向同一出口车道最近离开的车辆，前车驶出路口后解除
type sensor struct {
	kind      string
	target    entity.IAgent
	exitPhase bool
}

func newSensor(kind string, target entity.IAgent) sensor {
	return sensor{kind: kind, target: target}
}

// retarget 进入出口阶段并更换目标
func (s *sensor) retarget(target entity.IAgent) {
	s.exitPhase = true
	s.target = target
}

// released 是否应解除对当前目标的跟随
func (s *sensor) released(self *Car) bool {
	t := s.target
	if t.Exited() {
		return true
	}
	return !s.exitPhase && !self.departed && t.FullyInsideInner()
}

// watch 观察前车，给出下一步的建议动作
func (s *sensor) watch(self *Car) Action {
	if s.target == nil {
		return noAction()
	}
	if s.released(self) {
		log.Debugf("car %d stops watching %d", self.id, s.target.ID())
		s.target = nil
		return noAction()
	}
	if s.kind == config.SensorDistance {
		return distanceRule(self, s.target)
	}
	return proximityRule(self, s.target)
}

// gap 前车车尾到本车车头的距离
func gap(self *Car, leader entity.IAgent) float64 {
	ls, ss := leader.State(), self.state
	tail := junction.Tail(ls.Point(), ls.Heading, leader.Length())
	nose := junction.Nose(ss.Point(), ss.Heading, self.attr.Length)
	return planar.Distance(tail, nose)
}

// ticksToCrash 两车保持当前速度与朝向时，车距缩小到limit以内所需的步数
// 返回：步数，超过最大步数仍未缩小到limit以内时返回-1
func ticksToCrash(self motion.State, selfLength float64, leader motion.State, leaderLength, limit float64, p motion.Params) int {
	for ticks := range maxCrashSteps {
		tail := junction.Tail(leader.Point(), leader.Heading, leaderLength)
		nose := junction.Nose(self.Point(), self.Heading, selfLength)
		if planar.Distance(tail, nose) <= limit {
			return ticks
		}
		self.X, self.Y = motion.NextPosition(self.X, self.Y, self.Heading, self.Speed, p)
		leader.X, leader.Y = motion.NextPosition(leader.X, leader.Y, leader.Heading, leader.Speed, p)
	}
	return -1
}

// proximityRule 按追尾时间控制
// 算法说明：
// 1. 本车近似静止时，加速度为0并将速度吸附到前车速度
// 2. 本车比前车快时，仿真两车保持速度直到车距不超过车长的1/4的步数T
//   - T为0时加速度为0并吸附到前车速度
//   - 否则取在T步内恰好降到前车速度的加速度
//
// 3. 否则不约束
func proximityRule(self *Car, leader entity.IAgent) Action {
	v, otherV := self.state.Speed, leader.State().Speed
	if v < self.ctx.Layout().LimitMinSpeed() {
		return Action{A: 0, SnapV: true, V: otherV}
	}
	if otherV >= v {
		return noAction()
	}
	p := self.params
	t := ticksToCrash(self.state, self.attr.Length, leader.State(), leader.Length(), self.attr.Length/4, p)
	switch {
	case t < 0:
		return noAction()
	case t == 0:
		return Action{A: 0, SnapV: true, V: otherV}
	default:
		return Action{A: (otherV - v) / (float64(t) * p.TimeStep)}
	}
}

// distanceRule 按安全距离控制
// 算法说明：
// 1. 车距不超过车长的一半时以最大减速度制动
// 2. 本车近似静止时，加速度为0并将速度吸附到前车速度
// 3. 否则取在缓冲时间内恰好行驶到安全距离处的加速度
func distanceRule(self *Car, leader entity.IAgent) Action {
	d := gap(self, leader)
	safe := self.attr.Length / 2
	if d <= safe {
		return Action{A: self.params.MinAcc}
	}
	if self.state.Speed < self.ctx.Layout().LimitMinSpeed() {
		return Action{A: 0, SnapV: true, V: leader.State().Speed}
	}
	return Action{A: motion.ReachAcceleration(d-safe, self.state.Speed, self.bufferTicks(), self.params)}
}
