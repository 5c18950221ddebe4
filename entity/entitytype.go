package entity

import (
	"github.com/paulmach/orb"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/motion"
)

// entity/car/car.go的依赖倒置
type IAgent interface {
	// 自身属性

	ID() int32                 // 获取车辆ID
	Lane() lane.Lane           // 获取进口车道
	Intention() lane.Intention // 获取行驶意图
	Length() float64           // 获取车长
	Width() float64            // 获取车宽

	// 运行时状态

	State() motion.State     // 获取当前运动状态
	Footprint() orb.Bound    // 获取车身包围盒
	Entered() bool           // 是否已驶入外边界
	EnteredAt() int32        // 驶入外边界的步数，尚未驶入时为-1
	Departed() bool          // 是否已驶离冲突区并广播离开
	Exited() bool            // 是否已驶出外边界
	FullyInsideInner() bool  // 车身是否完全处于冲突区内
	Blocks(b orb.Bound) bool // 剩余行驶区域是否与包围盒重叠

	// 协同

	Receive(m message.Message) // 接收消息
	Update()                   // 推进一步
}

// entity/channel/channel.go的依赖倒置
type IChannel interface {
	Add(a IAgent)                // 加入活跃集合
	Remove(id int32)             // 从活跃集合删除
	Broadcast(m message.Message) // 广播消息（立即投递或排队到下一轮）
	DoRound()                    // 开始新一轮：投递上一轮排队的消息
	Active() []IAgent            // 活跃车辆（按加入顺序）
	Forget(a IAgent)             // 清除车道记录中对该车的引用
	RecentEntering(l lane.Lane) IAgent
	SetRecentEntering(l lane.Lane, a IAgent)
	RecentLeaving(l lane.Lane) IAgent
	SetRecentLeaving(l lane.Lane, a IAgent)
}
