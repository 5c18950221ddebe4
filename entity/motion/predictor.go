package motion

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	AlreadyPassed = -1 // 已经经过目标点
	NoPrediction  = -2 // 车辆静止且不会启动，无法给出预测

	maxPredictSteps = 5000 // 逐步仿真的最大步数
	stationarySpeed = 0.2  // 近似估计中视为静止的速度
	passMarginRatio = 1.5  // 近似估计中"通过"所需的额外距离系数
)

// Predictor 前向预测器
// 功能：复制车辆当前运动状态，在不影响原车的前提下推演未来轨迹
// 说明：值类型，所有方法都不会修改预测器本身
type Predictor struct {
	route  Route
	state  State
	params Params
}

// NewPredictor 创建前向预测器
func NewPredictor(route Route, s State, p Params) Predictor {
	return Predictor{route: route, state: s, params: p}
}

// State 预测起点状态
func (pr Predictor) State() State {
	return pr.state
}

func stationary(s State) bool {
	return s.Speed <= 0 && s.Acc <= 0
}

// ReachTicks 到达目标点所需步数（逐步仿真）
// 功能：按完整运动学模型（含转弯）逐步推演，直到与目标点的距离不再减小
// 参数：target-目标点，margin-到达判定距离，距离小于该值即视为到达
// 返回：
//   - 步数（>=0）
//   - AlreadyPassed：第0步起距离即在增大且不在判定距离内
//   - NoPrediction：车辆静止且加速度非正，或超过最大推演步数
func (pr Predictor) ReachTicks(target orb.Point, margin float64) int {
	s := pr.state
	for ticks := range maxPredictSteps {
		if stationary(s) {
			return NoPrediction
		}
		cur := planar.Distance(s.Point(), target)
		if cur < margin {
			return ticks
		}
		next := pr.route.Advance(s, pr.params)
		if planar.Distance(next.Point(), target) >= cur {
			if ticks == 0 {
				return AlreadyPassed
			}
			return ticks
		}
		s = next
	}
	return NoPrediction
}

// passed 是否已经通过目标点：距离在增大且超过判定距离
func (pr Predictor) passed(s State, target orb.Point, margin float64) bool {
	cur := planar.Distance(s.Point(), target)
	next := pr.route.Advance(s, pr.params)
	return planar.Distance(next.Point(), target) >= cur && cur > margin
}

// PassTicks 完全通过目标点所需步数（逐步仿真）
// 功能：逐步推演直到车辆远离目标点且距离超过margin（车身不再覆盖目标点）
// 返回：步数（>0），AlreadyPassed 或 NoPrediction
func (pr Predictor) PassTicks(target orb.Point, margin float64) int {
	s := pr.state
	if stationary(s) {
		return NoPrediction
	}
	if pr.passed(s, target, margin) {
		return AlreadyPassed
	}
	for ticks := range maxPredictSteps {
		if stationary(s) {
			return NoPrediction
		}
		if pr.passed(s, target, margin) {
			return ticks
		}
		s = pr.route.Advance(s, pr.params)
	}
	return NoPrediction
}

// approx 近似步数：曼哈顿距离除以单步行驶距离
func (pr Predictor) approx(target orb.Point, extra float64) int {
	s := pr.state
	v := math.Max(s.Speed, NextSpeed(s.Speed, s.Acc, pr.params))
	d := Manhattan(s.Point(), target) + extra
	return int(math.Ceil(d / pr.params.StepDistance(v)))
}

// ApproxReachTicks 到达目标点所需步数（近似估计）
// 功能：不考虑转弯，按曼哈顿距离和当前速度估计
// 返回：步数，已到达/经过时返回AlreadyPassed，近似静止时返回NoPrediction
func (pr Predictor) ApproxReachTicks(target orb.Point, margin float64) int {
	s := pr.state
	if s.Speed < stationarySpeed && s.Acc <= 0 {
		return NoPrediction
	}
	cur := planar.Distance(s.Point(), target)
	next := pr.route.Advance(s, pr.params)
	if planar.Distance(next.Point(), target) >= cur || cur < margin {
		return AlreadyPassed
	}
	return pr.approx(target, 0)
}

// ApproxPassTicks 通过目标点所需步数（近似估计）
// 功能：按曼哈顿距离加1.5倍判定距离估计，用于批量评估被跟随车辆
// 返回：步数，已通过返回AlreadyPassed，近似静止返回NoPrediction
func (pr Predictor) ApproxPassTicks(target orb.Point, margin float64) int {
	s := pr.state
	extra := passMarginRatio * margin
	if s.Speed < stationarySpeed && s.Acc <= 0 {
		return NoPrediction
	}
	if pr.passed(s, target, extra) {
		return AlreadyPassed
	}
	return pr.approx(target, extra)
}

// Manhattan 曼哈顿距离
func Manhattan(a, b orb.Point) float64 {
	return math.Abs(a[0]-b[0]) + math.Abs(a[1]-b[1])
}

// ReachAcceleration 在n步内恰好行驶distance所需的恒定加速度
// 功能：离散闭式解，每步先更新速度再前进
// 算法说明：
// 1. n步位移 = dt*scale*(n*v + a*dt*n(n+1)/2)
// 2. 解得 a = (d/(dt*scale) - n*v) * 2 / (dt*n*(n+1))
// 说明：n<=0时无法求解，返回最大减速度
func ReachAcceleration(distance, speed float64, n int, p Params) float64 {
	if n <= 0 {
		return p.MinAcc
	}
	nf := float64(n)
	return (distance/(p.TimeStep*p.SpeedScale) - nf*speed) * 2 / (p.TimeStep * nf * (nf + 1))
}
