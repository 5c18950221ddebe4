package task

import (
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
)

// detectCollisions 检查在场车辆两两之间的车身重叠
// 说明：每对车辆只记录首次重叠
func (ctx *Context) detectCollisions() {
	cars := ctx.carManager.Cars()
	for i := 0; i < len(cars); i++ {
		a := cars[i]
		if a.Exited() {
			continue
		}
		fa := a.Footprint()
		for j := i + 1; j < len(cars); j++ {
			b := cars[j]
			if b.Exited() || !junction.Overlap(fa, b.Footprint()) {
				continue
			}
			key := [2]int32{min(a.ID(), b.ID()), max(a.ID(), b.ID())}
			if _, ok := ctx.collisions[key]; ok {
				continue
			}
			ctx.collisions[key] = ctx.clock.InternalStep
			log.Warnf("step %d: car %d and car %d collide", ctx.clock.InternalStep, key[0], key[1])
		}
	}
}
