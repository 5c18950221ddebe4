package channel

import (
	"slices"

	"github.com/tsinghua-fib-lab/crossing-sim/entity"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
)

// Channel 路口广播信道
// 功能：维护已驶入外边界的车辆集合，按轮次投递消息
// 说明：
//   - 立即类消息（Join/Info/Departure）在广播时同步投递给全部活跃车辆（含发送者）
//   - 延迟类消息（Welcome/DeputyAssignment）排队，在下一轮DoRound开始时投递
//   - 活跃车辆按加入顺序排列，投递顺序与之一致
//   - 另外记录每个进口车道最近驶入与最近驶离的车辆，供车距传感器选择跟随目标
//   - 只能由驱动模拟的单一线程调用
type Channel struct {
	active []entity.IAgent
	queue  []message.Message // 下一轮待投递的延迟类消息

	entering [lane.Count]entity.IAgent
	leaving  [lane.Count]entity.IAgent

	sent [message.KindDeputyAssignment + 1]int // 按消息类型统计的广播次数
}

// New 创建空信道
func New() *Channel {
	return &Channel{
		active: make([]entity.IAgent, 0),
		queue:  make([]message.Message, 0),
	}
}

// Add 车辆加入活跃集合，已存在时忽略
func (c *Channel) Add(a entity.IAgent) {
	if c.index(a.ID()) >= 0 {
		log.Debugf("agent %d already active", a.ID())
		return
	}
	c.active = append(c.active, a)
}

// Remove 从活跃集合中删除车辆，不存在时忽略
func (c *Channel) Remove(id int32) {
	if i := c.index(id); i >= 0 {
		c.active = slices.Delete(c.active, i, i+1)
	}
}

func (c *Channel) index(id int32) int {
	return slices.IndexFunc(c.active, func(a entity.IAgent) bool { return a.ID() == id })
}

// Active 活跃车辆（按加入顺序）的副本
func (c *Channel) Active() []entity.IAgent {
	return slices.Clone(c.active)
}

// Broadcast 广播消息
// 功能：立即类消息同步投递，延迟类消息排队到下一轮
// 说明：Departure投递完成后将发送者移出活跃集合
func (c *Channel) Broadcast(m message.Message) {
	c.sent[m.Kind()]++
	if m.Class() == message.Deferred {
		c.queue = append(c.queue, m)
		return
	}
	c.deliver(m)
	if m.Kind() == message.KindDeparture {
		c.Remove(m.Sender())
	}
}

// deliver 按活跃集合快照的顺序投递
func (c *Channel) deliver(m message.Message) {
	for _, a := range slices.Clone(c.active) {
		a.Receive(m)
	}
}

// DoRound 开始新一轮
// 功能：取出上一轮排队的延迟类消息并依次投递；投递过程中新产生的延迟类消息进入下一轮
func (c *Channel) DoRound() {
	current := c.queue
	c.queue = make([]message.Message, 0)
	for _, m := range current {
		c.deliver(m)
	}
}

// Queued 当前排队中的延迟类消息数量
func (c *Channel) Queued() int {
	return len(c.queue)
}

// Sent 指定类型消息的累计广播次数
func (c *Channel) Sent(k message.Kind) int {
	if int(k) < 0 || int(k) >= len(c.sent) {
		return 0
	}
	return c.sent[k]
}

// RecentEntering 最近从该进口车道驶入的车辆
func (c *Channel) RecentEntering(l lane.Lane) entity.IAgent {
	return c.entering[l]
}

// SetRecentEntering 记录最近从该进口车道驶入的车辆
func (c *Channel) SetRecentEntering(l lane.Lane, a entity.IAgent) {
	c.entering[l] = a
}

// RecentLeaving 最近驶向该出口车道的车辆
func (c *Channel) RecentLeaving(l lane.Lane) entity.IAgent {
	return c.leaving[l]
}

// SetRecentLeaving 记录最近驶向该出口车道的车辆
func (c *Channel) SetRecentLeaving(l lane.Lane, a entity.IAgent) {
	c.leaving[l] = a
}

// Forget 清除车道记录中对该车辆的引用
// 说明：车辆被销毁时调用，避免后续车辆跟随已不存在的车辆
func (c *Channel) Forget(a entity.IAgent) {
	for l := range c.entering {
		if c.entering[l] == a {
			c.entering[l] = nil
		}
		if c.leaving[l] == a {
			c.leaving[l] = nil
		}
	}
}
