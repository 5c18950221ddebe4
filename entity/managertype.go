package entity

import (
	"github.com/tsinghua-fib-lab/crossing-sim/utils/input"
)

// Manager依赖倒置

// entity/car/manager.go的依赖倒置
type IAgentManager interface {
	Init(records []input.SpawnRecord) // 初始化待生成车辆

	// 输入车辆ID，查找车辆，如果不存在则panic
	Get(id int32) IAgent
	// 输入车辆ID，查找车辆，如果不存在则返回error
	GetOrError(id int32) (IAgent, error)

	Agents() []IAgent // 当前在场车辆（按生成顺序）
	Pending() int     // 尚未生成的车辆数

	Prepare(tick int32) // 准备阶段：移除驶出车辆，生成到期车辆
	Update()            // 更新阶段：逐车推进
}
