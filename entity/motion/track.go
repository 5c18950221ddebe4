package motion

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
)

const (
	trackChunk  = 16 // 每个分块包含的采样点数
	trackWindow = 16 // 定位进度时向前搜索的采样点数
	trackBack   = 2  // 剩余轨迹从进度回退的采样点数
)

// Track 车辆沿路线行驶会占据的区域
// 功能：按采样轨迹计算每个采样点处的车身包围盒，查询进度之后的剩余部分是否与给定区域重叠
// 说明：
//   - 实际行驶速度不同于采样速度时转弯起点会有偏移，包围盒按pad外扩
//   - 包围盒按分块合并，查询时先排除不相交的分块
type Track struct {
	points orb.LineString
	boxes  []orb.Bound
	chunks []orb.Bound
}

// NewTrack 根据路线和车身尺寸创建占据区域
// 参数：r-路线，p-运动学参数，length,width-车身尺寸，pad-包围盒外扩距离
func NewTrack(r Route, p Params, length, width, pad float64) *Track {
	states := r.samples(p)
	t := &Track{
		points: make(orb.LineString, len(states)),
		boxes:  make([]orb.Bound, len(states)),
	}
	for i, s := range states {
		t.points[i] = s.Point()
		t.boxes[i] = junction.Footprint(s.Point(), s.Heading, length, width).Pad(pad)
		if i%trackChunk == 0 {
			t.chunks = append(t.chunks, t.boxes[i])
		} else {
			t.chunks[len(t.chunks)-1] = t.chunks[len(t.chunks)-1].Union(t.boxes[i])
		}
	}
	return t
}

// Len 采样点数
func (t *Track) Len() int {
	return len(t.points)
}

// Locate 定位行驶进度
// 功能：在[from, from+trackWindow]内查找距离pos最近的采样点
// 返回：采样点下标，不小于from，保证进度单调
func (t *Track) Locate(from int, pos orb.Point) int {
	best, bestD := from, planar.DistanceSquared(t.points[from], pos)
	for i := from + 1; i < len(t.points) && i <= from+trackWindow; i++ {
		if d := planar.DistanceSquared(t.points[i], pos); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Blocks 进度progress之后的剩余区域是否与b重叠
func (t *Track) Blocks(progress int, b orb.Bound) bool {
	from := max(progress-trackBack, 0)
	for c := from / trackChunk; c < len(t.chunks); c++ {
		if !junction.Overlap(t.chunks[c], b) {
			continue
		}
		end := min((c+1)*trackChunk, len(t.boxes))
		for i := max(c*trackChunk, from); i < end; i++ {
			if junction.Overlap(t.boxes[i], b) {
				return true
			}
		}
	}
	return false
}
