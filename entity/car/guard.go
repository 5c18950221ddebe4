package car

import (
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/crossing-sim/entity"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/motion"
)

const (
	trackPad        = 10   // 行驶区域包围盒的外扩距离
	guardIterations = 8    // 二分查找可行加速度的次数
	maxBrakeSteps   = 1000 // 制动推演的最大步数
)

// order 通行次序，越小越优先
// 说明：先驶入外边界者优先，同一步驶入或均未驶入时按生成顺序；与优先图中的加入顺序一致
func order(entered int32, index int) [2]int {
	if entered < 0 {
		return [2]int{math.MaxInt32, index}
	}
	return [2]int{int(entered), index}
}

func before(a, b [2]int) bool {
	return a[0] < b[0] || a[0] == b[0] && a[1] < b[1]
}

// ahead 通行次序先于本车、尚未驶出的车辆
func (c *Car) ahead() []entity.IAgent {
	agents := c.ctx.AgentManager().Agents()
	self := slices.IndexFunc(agents, func(a entity.IAgent) bool { return a.ID() == c.id })
	if self < 0 {
		return nil
	}
	mine := order(c.timeline.Entered, self)
	var ahead []entity.IAgent
	for i, a := range agents {
		if i != self && !a.Exited() && before(order(a.EnteredAt(), i), mine) {
			ahead = append(ahead, a)
		}
	}
	return ahead
}

// guard 制动包络
// 功能：在[MinAcc, a]内取最大的可行加速度
// 说明：
//   - 可行指以该加速度推进一步后立即以最大减速度制动，直到停车车身都不进入任何优先车辆的剩余行驶区域
//   - 优先车辆的剩余行驶区域只会缩小，上一步选择可行时本步以最大减速度制动必然可行，因此可以回退到MinAcc
func (c *Car) guard(a float64, ahead []entity.IAgent) float64 {
	if len(ahead) == 0 || c.clearAfter(a, ahead) {
		return a
	}
	low, high := c.params.MinAcc, a
	for range guardIterations {
		mid := (low + high) / 2
		if c.clearAfter(mid, ahead) {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}

func (c *Car) clearAfter(a float64, ahead []entity.IAgent) bool {
	s := c.state
	s.Acc = a
	return c.clear(c.route.Advance(s, c.params), ahead)
}

// clear 从状态s开始以最大减速度制动直到停车，车身是否始终不进入优先车辆的剩余行驶区域
func (c *Car) clear(s motion.State, ahead []entity.IAgent) bool {
	if len(ahead) == 0 {
		return true
	}
	s.Acc = c.params.MinAcc
	boxes := []orb.Bound{c.footprintAt(s)}
	all := boxes[0]
	for i := 0; s.Speed > 0 && i < maxBrakeSteps; i++ {
		s = c.route.Advance(s, c.params)
		b := c.footprintAt(s)
		boxes = append(boxes, b)
		all = all.Union(b)
	}
	for _, a := range ahead {
		if !a.Blocks(all) {
			continue
		}
		for _, b := range boxes {
			if a.Blocks(b) {
				return false
			}
		}
	}
	return true
}
