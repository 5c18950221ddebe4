package motion

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
)

const (
	turnDegrees   = 90.0 // 转弯总角度
	snapTolerance = 2.0  // 朝向吸附到目标角度的容差（度）
	eps           = 1e-9
)

// Params 运动学参数
type Params struct {
	TimeStep   float64 // 每步时长（秒）
	SpeedScale float64 // 速度到画布距离的放大系数
	MaxSpeed   float64 // 最大速度
	MaxAcc     float64 // 最大加速度
	MinAcc     float64 // 最大减速度（负数）
}

// DefaultParams 默认运动学参数
func DefaultParams() Params {
	return Params{
		TimeStep:   0.1,
		SpeedScale: 2,
		MaxSpeed:   20,
		MaxAcc:     4.2,
		MinAcc:     -5,
	}
}

// TicksPerSecond 每秒对应的模拟步数
func (p Params) TicksPerSecond() float64 {
	return 1 / (p.TimeStep * p.SpeedScale)
}

// StepDistance 以速度v行驶一步的画布距离
func (p Params) StepDistance(v float64) float64 {
	return v * p.TimeStep * p.SpeedScale
}

// ClampAcc 将加速度限制在[MinAcc, MaxAcc]
func (p Params) ClampAcc(a float64) float64 {
	return lo.Clamp(a, p.MinAcc, p.MaxAcc)
}

// State 车辆运动状态
type State struct {
	X, Y    float64
	Heading float64 // 角度制，[0, 360)
	Speed   float64
	Acc     float64
}

// Point 当前位置
func (s State) Point() orb.Point {
	return orb.Point{s.X, s.Y}
}

// Pose 当前位姿
func (s State) Pose() junction.Pose {
	return junction.Pose{X: s.X, Y: s.Y, Heading: s.Heading}
}

// FromPose 由位姿构造静止状态
func FromPose(p junction.Pose) State {
	return State{X: p.X, Y: p.Y, Heading: NormalizeHeading(p.Heading)}
}

// NormalizeHeading 将角度归一化到[0, 360)
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360-eps {
		h = 0
	}
	return h
}

// NextSpeed 下一步速度
// 功能：v' = clamp(v + a*dt, 0, MaxSpeed)
func NextSpeed(speed, acc float64, p Params) float64 {
	return lo.Clamp(speed+acc*p.TimeStep, 0, p.MaxSpeed)
}

// NextPosition 下一步位置
// 功能：沿朝向前进 speed*dt*scale，朝向h对应的位移方向为(-sin h, -cos h)
func NextPosition(x, y, heading, speed float64, p Params) (float64, float64) {
	rad := heading * math.Pi / 180
	d := p.StepDistance(speed)
	return x - math.Sin(rad)*d, y - math.Cos(rad)*d
}

// Route 车辆在路口内的行驶路线
// 功能：由起点位姿、进口车道、意图和路口布局唯一确定转弯行为
type Route struct {
	Origin    junction.Pose
	Lane      lane.Lane
	Intention lane.Intention
	Layout    *junction.Layout
}

// NewRoute 以进口车道的生成位姿为起点创建路线
func NewRoute(layout *junction.Layout, ln lane.Lane, i lane.Intention) Route {
	return NewRouteFrom(layout, layout.Spawn(ln), ln, i)
}

// NewRouteFrom 以指定位姿为起点创建路线，转弯的横向偏移相对该起点计算
func NewRouteFrom(layout *junction.Layout, origin junction.Pose, ln lane.Lane, i lane.Intention) Route {
	origin.Heading = NormalizeHeading(origin.Heading)
	return Route{Origin: origin, Lane: ln, Intention: i, Layout: layout}
}

// TargetHeading 转弯完成后的目标朝向，直行返回起点朝向
func (r Route) TargetHeading() float64 {
	switch r.Intention {
	case lane.Left:
		return NormalizeHeading(r.Origin.Heading + turnDegrees)
	case lane.Right:
		return NormalizeHeading(r.Origin.Heading - turnDegrees)
	default:
		return NormalizeHeading(r.Origin.Heading)
	}
}

// remaining 距离目标朝向还需旋转的角度（沿转弯方向，非负）
func (r Route) remaining(heading float64) float64 {
	target := r.TargetHeading()
	var d float64
	if r.Intention == lane.Left {
		d = NormalizeHeading(target - heading)
	} else {
		d = NormalizeHeading(heading - target)
	}
	if d > turnDegrees+snapTolerance {
		// 已越过目标，不再旋转
		return 0
	}
	return d
}

// Turning 当前朝向是否处于转弯过程中（已离开起点朝向且未到达目标朝向）
func (r Route) Turning(heading float64) bool {
	if r.Intention == lane.Straight {
		return false
	}
	rem := r.remaining(heading)
	return rem > eps && rem < turnDegrees-eps
}

// TurnDone 转弯是否完成
func (r Route) TurnDone(heading float64) bool {
	return r.Intention == lane.Straight || r.remaining(heading) <= eps
}

// shouldTurn 判断本步是否旋转
// 算法说明：
// 1. 车辆越过冲突区进入边界，且横向偏移未达到转弯半径时开始/继续转弯
//   - 右转：横向偏移 > -R
//   - 左转：横向偏移 < R
//
// 2. 已开始的转弯总是继续，直到到达目标朝向
func (r Route) shouldTurn(heading float64, pos orb.Point) bool {
	if r.TurnDone(heading) {
		return false
	}
	if r.Turning(heading) {
		return true
	}
	if r.Layout.DistanceToInner(r.Lane, pos) > 0 {
		return false
	}
	radius := r.Layout.TurnRadius(r.Lane, r.Intention)
	offset := junction.LateralOffset(r.Origin, pos)
	if r.Intention == lane.Right {
		return offset > -radius
	}
	return offset < radius
}

// NextHeading 下一步朝向
// 功能：按转弯圆弧半径和本步行驶距离旋转朝向
// 参数：speed-本步速度（已更新），heading-当前朝向，pos-当前位置，p-运动学参数
// 返回：新的朝向
// 算法说明：
// 1. 每步旋转角 = 90 * v*dt*scale / (π/2 * R)，左转增加、右转减少
// 2. 旋转角不超过剩余角度
// 3. 与目标朝向相差小于2度时直接吸附到目标朝向
func (r Route) NextHeading(speed, heading float64, pos orb.Point, p Params) float64 {
	if r.Intention == lane.Straight || !r.shouldTurn(heading, pos) {
		return heading
	}
	radius := r.Layout.TurnRadius(r.Lane, r.Intention)
	if radius <= 0 {
		return heading
	}
	change := turnDegrees * p.StepDistance(speed) / (math.Pi / 2 * radius)
	rem := r.remaining(heading)
	change = math.Min(change, rem)
	if r.Intention == lane.Left {
		heading += change
	} else {
		heading -= change
	}
	heading = NormalizeHeading(heading)
	if r.remaining(heading) < snapTolerance {
		heading = r.TargetHeading()
	}
	return heading
}

// Advance 推进一步
// 功能：依次更新速度、朝向与位置，位置使用更新后的速度和朝向
func (r Route) Advance(s State, p Params) State {
	next := s
	next.Speed = NextSpeed(s.Speed, s.Acc, p)
	next.Heading = r.NextHeading(next.Speed, s.Heading, s.Point(), p)
	next.X, next.Y = NextPosition(s.X, s.Y, next.Heading, next.Speed, p)
	return next
}
