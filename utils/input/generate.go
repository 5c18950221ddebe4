package input

import (
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/randengine"
)

// Generate 随机生成车辆记录
// 功能：在[0, ticks)的每一步抽取一次指数分布的到达间隔，满足条件时生成一辆车
// 参数：layout-路口布局，g-到达率、步数范围与意图权重，e-随机数引擎
// 返回：按生成时刻排列的记录，ID与生成时刻相同
// 算法说明：
// 1. 到达间隔 = Exp(1)/rate，间隔不超过rate时本步生成车辆
// 2. 车道均匀选取；意图按权重选取，未配置权重时均匀选取
// 3. 初始位姿为进口车道的标准生成位姿
func Generate(layout *junction.Layout, g config.Generate, e *randengine.Engine) *Scenario {
	s := &Scenario{Cars: make([]SpawnRecord, 0)}
	if g.Rate <= 0 {
		return s
	}
	for tick := range g.Ticks {
		if e.ExpFloat64()/g.Rate > g.Rate {
			continue
		}
		ln := randengine.Choice(e, lane.All)
		var i lane.Intention
		if len(g.Intentions) > 0 {
			i = lane.Intentions[e.DiscreteDistribution(g.Intentions)]
		} else {
			i = randengine.Choice(e, lane.Intentions)
		}
		s.Cars = append(s.Cars, NewSpawnRecord(layout, tick, ln, i, tick))
	}
	log.Infof("generated %d cars in %d ticks (rate %.3f)", len(s.Cars), g.Ticks, g.Rate)
	return s
}
