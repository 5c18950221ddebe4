package motion

import (
	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
)

const (
	pathSampleSpeed = 10    // 采样轨迹时使用的速度
	pathMaxSamples  = 20000 // 单条轨迹的最大采样点数
)

// Trace 采样行驶轨迹
// 功能：从起点以恒定速度运行运动学模型，直至驶出外边界
// 返回：按行驶顺序排列的轨迹折线
func (r Route) Trace(p Params) orb.LineString {
	states := r.samples(p)
	line := make(orb.LineString, len(states))
	for i, s := range states {
		line[i] = s.Point()
	}
	return line
}

// samples 以采样速度逐步推演得到的状态序列，含起点
func (r Route) samples(p Params) []State {
	s := FromPose(r.Origin)
	s.Speed = pathSampleSpeed
	states := []State{s}
	entered := false
	for range pathMaxSamples {
		s = r.Advance(s, p)
		states = append(states, s)
		in := r.Layout.InOuter(s.Point())
		if in {
			entered = true
		} else if entered {
			return states
		}
	}
	log.Warnf("route %v%s does not leave the junction after %d samples", r.Lane, r.Intention, pathMaxSamples)
	return states
}

// Paths 路口全部路线的轨迹与冲突点缓存
// 说明：只读，可被所有车辆共享
type Paths struct {
	lines     [lane.Count][3]orb.LineString
	conflicts [lane.Count][3][lane.Count][3]orb.Point
}

func intentionIndex(i lane.Intention) int {
	switch i {
	case lane.Left:
		return 0
	case lane.Straight:
		return 1
	default:
		return 2
	}
}

// NewPaths 预计算12条路线的轨迹以及两两之间的冲突点
// 参数：layout-路口布局，p-运动学参数，tolerance-判定轨迹相交的距离（通常取车宽的一半）
// 说明：
//   - 只计算冲突表中相交的路线对，其余组合的冲突点为零值
//   - 同一进口不同意图的冲突点为两条轨迹分开的位置
//   - 完全相同的路线以驶离冲突区前的最后一个点为冲突点
func NewPaths(layout *junction.Layout, p Params, tolerance float64) *Paths {
	ps := &Paths{}
	for _, ln := range lane.All {
		for _, i := range lane.Intentions {
			ps.lines[ln][intentionIndex(i)] = NewRoute(layout, ln, i).Trace(p)
		}
	}
	for _, a := range lane.All {
		for _, ai := range lane.Intentions {
			for _, b := range lane.All {
				for _, bi := range lane.Intentions {
					if !lane.Crosses(a, ai, b, bi) {
						continue
					}
					line := ps.lines[a][intentionIndex(ai)]
					cp := junction.ConflictPoint(line, ps.lines[b][intentionIndex(bi)], tolerance)
					if a == b && ai == bi {
						cp = lastInside(layout.Inner, line)
					}
					ps.conflicts[a][intentionIndex(ai)][b][intentionIndex(bi)] = cp
				}
			}
		}
	}
	return ps
}

// lastInside 轨迹驶离区域前的最后一个点，从未进入时返回终点
func lastInside(zone orb.Bound, line orb.LineString) orb.Point {
	last, inside := line[len(line)-1], false
	for _, p := range line {
		if zone.Contains(p) {
			last, inside = p, true
		} else if inside {
			break
		}
	}
	return last
}

// Line 获取路线轨迹
func (ps *Paths) Line(ln lane.Lane, i lane.Intention) orb.LineString {
	return ps.lines[ln][intentionIndex(i)]
}

// ConflictPoint 获取本车路线上与对方路线的第一个冲突点
func (ps *Paths) ConflictPoint(ln lane.Lane, i lane.Intention, other lane.Lane, otherI lane.Intention) orb.Point {
	return ps.conflicts[ln][intentionIndex(i)][other][intentionIndex(otherI)]
}
