package junction

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
)

var (
	ErrInnerOutsideOuter = errors.New("inner zone must lie inside the outer boundary")
	ErrLineOutsideInner  = errors.New("lane center line must cross the inner zone")
	ErrEmptyBound        = errors.New("bound must have positive width and height")
)

// minSpeedEpsilon 最低速度阈值相对于外边界高度的比例
const minSpeedEpsilon = 0.002

// Pose 位姿
// 说明：屏幕坐标系，y轴向下；Heading为角度制，0表示朝上（-y方向），逆时针增大
type Pose struct {
	X, Y    float64
	Heading float64
}

// Point 转换为orb点
func (p Pose) Point() orb.Point {
	return orb.Point{p.X, p.Y}
}

// Layout 十字路口几何布局
// 功能：描述路口外边界（通信范围）、内部冲突区以及四个进口车道的中心线
// 说明：
//   - Outer 外边界，车辆进入后开始广播并加入协同
//   - Inner 内部冲突区，车辆驶离后广播离开消息
//   - Lines 各进口车道中心线坐标，南/北进口为x坐标，东/西进口为y坐标
//   - SpawnMargin 生成点到外边界的距离
type Layout struct {
	Outer       orb.Bound
	Inner       orb.Bound
	Lines       [lane.Count]float64
	SpawnMargin float64

	radius [lane.Count][3]float64 // 预计算的转弯半径，下标同冲突表
}

// Default 默认布局
// 功能：返回768x768画布、冲突区[280,490]的标准布局
func Default() *Layout {
	l, err := New(
		orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{768, 768}},
		orb.Bound{Min: orb.Point{280, 280}, Max: orb.Point{490, 490}},
		[lane.Count]float64{435, 345, 345, 435},
		100,
	)
	if err != nil {
		log.Panicf("junction: bad default layout: %v", err)
	}
	return l
}

// New 创建路口布局
// 功能：校验几何参数并预计算各进口、各意图的转弯半径
// 参数：outer-外边界，inner-冲突区，lines-车道中心线，spawnMargin-生成点外扩距离
// 返回：布局实例或校验错误
func New(outer, inner orb.Bound, lines [lane.Count]float64, spawnMargin float64) (*Layout, error) {
	for _, b := range []orb.Bound{outer, inner} {
		if b.Right() <= b.Left() || b.Top() <= b.Bottom() {
			return nil, ErrEmptyBound
		}
	}
	if !outer.Contains(inner.Min) || !outer.Contains(inner.Max) {
		return nil, ErrInnerOutsideOuter
	}
	for i, v := range lines {
		lo, hi := inner.Min[0], inner.Max[0]
		if lane.Lane(i) == lane.East || lane.Lane(i) == lane.West {
			lo, hi = inner.Min[1], inner.Max[1]
		}
		if v <= lo || v >= hi {
			return nil, fmt.Errorf("%w: lane %d at %.2f", ErrLineOutsideInner, i, v)
		}
	}
	l := &Layout{
		Outer:       outer,
		Inner:       inner,
		Lines:       lines,
		SpawnMargin: spawnMargin,
	}
	for _, ln := range lane.All {
		l.radius[ln][0] = math.Abs(l.Entry(ln) - l.Lines[(ln+1)%lane.Count])
		l.radius[ln][2] = math.Abs(l.Entry(ln) - l.Lines[(ln+3)%lane.Count])
	}
	return l, nil
}

// Spawn 进口车道的车辆生成位姿
// 功能：返回外边界之外SpawnMargin处、位于车道中心线上的起点与朝向
func (l *Layout) Spawn(ln lane.Lane) Pose {
	switch ln {
	case lane.South:
		return Pose{X: l.Lines[ln], Y: l.Outer.Max[1] + l.SpawnMargin, Heading: 0}
	case lane.East:
		return Pose{X: l.Outer.Max[0] + l.SpawnMargin, Y: l.Lines[ln], Heading: 90}
	case lane.North:
		return Pose{X: l.Lines[ln], Y: l.Outer.Min[1] - l.SpawnMargin, Heading: 180}
	case lane.West:
		return Pose{X: l.Outer.Min[0] - l.SpawnMargin, Y: l.Lines[ln], Heading: 270}
	}
	log.Panicf("junction: invalid lane %v", ln)
	return Pose{}
}

// Entry 进口车道进入冲突区的边界坐标
func (l *Layout) Entry(ln lane.Lane) float64 {
	switch ln {
	case lane.South:
		return l.Inner.Max[1]
	case lane.East:
		return l.Inner.Max[0]
	case lane.North:
		return l.Inner.Min[1]
	case lane.West:
		return l.Inner.Min[0]
	}
	log.Panicf("junction: invalid lane %v", ln)
	return 0
}

// DistanceToInner 沿进口方向到冲突区边界的距离
// 功能：计算车辆在进口方向上距离冲突区还有多远
// 返回：正数表示尚未到达冲突区，非正数表示已经越过进入边界
func (l *Layout) DistanceToInner(ln lane.Lane, p orb.Point) float64 {
	switch ln {
	case lane.South:
		return p[1] - l.Inner.Max[1]
	case lane.East:
		return p[0] - l.Inner.Max[0]
	case lane.North:
		return l.Inner.Min[1] - p[1]
	case lane.West:
		return l.Inner.Min[0] - p[0]
	}
	log.Panicf("junction: invalid lane %v", ln)
	return 0
}

// TurnRadius 转弯半径
// 功能：返回进口车道按给定意图转弯的圆弧半径，直行为0
// 算法说明：半径 = |冲突区进入边界 - 与转弯后行驶方向同向的进口车道中心线|
//   - 左转驶入 (ln+1)%4 进口车道的同向车道
//   - 右转驶入 (ln+3)%4 进口车道的同向车道
func (l *Layout) TurnRadius(ln lane.Lane, i lane.Intention) float64 {
	switch i {
	case lane.Left:
		return l.radius[ln][0]
	case lane.Right:
		return l.radius[ln][2]
	default:
		return 0
	}
}

// InOuter 点是否在外边界内（含边界）
func (l *Layout) InOuter(p orb.Point) bool {
	return l.Outer.Contains(p)
}

// InInner 点是否在冲突区内（含边界）
func (l *Layout) InInner(p orb.Point) bool {
	return l.Inner.Contains(p)
}

// LimitMinSpeed 传感器判定车辆近似静止的速度阈值
func (l *Layout) LimitMinSpeed() float64 {
	return math.Abs(l.Outer.Top()-l.Outer.Bottom()) * minSpeedEpsilon
}

// LateralOffset 相对初始位姿的横向偏移
// 功能：将位置投影到起点朝向的横轴上，得到车辆向左偏离起点直线的距离
// 参数：origin-起点位姿，p-当前位置
// 返回：横向偏移，正数表示向左，负数表示向右
func LateralOffset(origin Pose, p orb.Point) float64 {
	rad := origin.Heading * math.Pi / 180
	return -(p[0]-origin.X)*math.Cos(rad) + (p[1]-origin.Y)*math.Sin(rad)
}
