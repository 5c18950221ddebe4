package junction

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Footprint 车辆占据的轴对齐包围盒
// 功能：计算长length、宽width、朝向heading的矩形车身在坐标轴上的包围盒
// 说明：转弯过程中包围盒大于车身，碰撞统计因此偏保守
func Footprint(center orb.Point, heading, length, width float64) orb.Bound {
	rad := heading * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	hx := length/2*sin + width/2*cos
	hy := length/2*cos + width/2*sin
	return orb.Bound{
		Min: orb.Point{center[0] - hx, center[1] - hy},
		Max: orb.Point{center[0] + hx, center[1] + hy},
	}
}

// Square 以center为中心、边长为size的正方形
func Square(center orb.Point, size float64) orb.Bound {
	return orb.Bound{Min: center, Max: center}.Pad(size / 2)
}

// FullyInside 包围盒是否完全处于区域内
func FullyInside(zone, b orb.Bound) bool {
	return zone.Contains(b.Min) && zone.Contains(b.Max)
}

// Overlap 两个包围盒是否重叠
// 说明：仅接触不算重叠
func Overlap(a, b orb.Bound) bool {
	return a.Min[0] < b.Max[0] && b.Min[0] < a.Max[0] &&
		a.Min[1] < b.Max[1] && b.Min[1] < a.Max[1]
}

// Nose 车头中点
func Nose(center orb.Point, heading, length float64) orb.Point {
	rad := heading * math.Pi / 180
	return orb.Point{center[0] - math.Sin(rad)*length/2, center[1] - math.Cos(rad)*length/2}
}

// Tail 车尾中点
func Tail(center orb.Point, heading, length float64) orb.Point {
	rad := heading * math.Pi / 180
	return orb.Point{center[0] + math.Sin(rad)*length/2, center[1] + math.Cos(rad)*length/2}
}

// ConflictPoint 两条行驶轨迹的冲突点
// 功能：沿轨迹a按行驶顺序查找第一个与轨迹b距离不超过tolerance的点
// 参数：a-本车轨迹，b-对方轨迹，tolerance-判定相交的距离
// 返回：冲突点；若两条轨迹始终不相交，返回a上距离b最近的点
// 说明：两条轨迹起点重合（同一进口）时，冲突点为两者分开前的最后一个公共点，始终不分开时为a的终点
func ConflictPoint(a, b orb.LineString, tolerance float64) orb.Point {
	if len(a) == 0 {
		return orb.Point{}
	}
	if planar.DistanceFrom(b, a[0]) <= tolerance {
		return divergence(a, b, tolerance)
	}
	best, bestD := a[0], math.Inf(1)
	for _, p := range a {
		d := planar.DistanceFrom(b, p)
		if d <= tolerance {
			return p
		}
		if d < bestD {
			best, bestD = p, d
		}
	}
	return best
}

func divergence(a, b orb.LineString, tolerance float64) orb.Point {
	for i := 1; i < len(a); i++ {
		if planar.DistanceFrom(b, a[i]) > tolerance {
			return a[i-1]
		}
	}
	return a[len(a)-1]
}
