package entity

import (
	"github.com/tsinghua-fib-lab/crossing-sim/clock"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/motion"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
)

// task/task.go的依赖倒置
type ITaskContext interface {
	Clock() *clock.Clock                  // 仿真时钟
	RuntimeConfig() *config.RuntimeConfig // 填充默认值后的配置
	Channel() IChannel                    // 路口广播信道
	Layout() *junction.Layout             // 路口几何布局
	Params() motion.Params                // 运动学参数
	Paths() *motion.Paths                 // 路线轨迹与冲突点缓存
	AgentManager() IAgentManager          // 车辆管理器
}
