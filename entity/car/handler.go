package car

import (
	"github.com/tsinghua-fib-lab/crossing-sim/entity/graph"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
)

// Receive 接收消息，按消息类型分发
// 说明：消息引用了本地不存在的车辆时视为空操作
func (c *Car) Receive(m message.Message) {
	switch m := m.(type) {
	case message.Join:
		c.onJoin(m)
	case message.Info:
		c.onInfo(m)
	case message.Departure:
		c.onDeparture(m)
	case message.Welcome:
		c.onWelcome(m)
	case message.DeputyAssignment:
		c.onDeputyAssignment(m)
	default:
		log.Errorf("car %d: unknown message %T", c.id, m)
	}
}

// onJoin 新车加入：更新本地优先图；自身加入时建立跟随表
func (c *Car) onJoin(m message.Join) {
	if c.departed {
		return
	}
	added := !c.graph.Has(m.From) && !c.graph.Departed(m.From)
	follow := c.graph.Join(m.From, m.Lane, m.Intention)
	if m.From == c.id {
		c.rebuildFollowing(follow)
	}
	c.role = behaviours[c.role].onJoin(c, m.From, added)
}

// onInfo 刷新被跟随车辆的状态，重复投递结果相同
func (c *Car) onInfo(m message.Info) {
	if _, ok := c.following[m.From]; !ok {
		return
	}
	c.following[m.From] = &Observation{
		X:         m.X,
		Y:         m.Y,
		Speed:     m.Speed,
		Acc:       m.Acc,
		Heading:   m.Heading,
		Lane:      m.Lane,
		Intention: m.Intention,
		Tick:      c.ctx.Clock().InternalStep,
	}
}

// onDeparture 车辆离开
// 算法说明：
// 1. 从优先图、跟随表中删除该车
// 2. 若为协调者，则以副协调者接替并清空副协调者；若为副协调者，则清空
// 3. 交由角色处理后续的接替与重新任命
func (c *Car) onDeparture(m message.Departure) {
	id := m.From
	if id == c.id {
		return
	}
	if !c.graph.Remove(id) {
		log.Debugf("car %d: departure of unknown %d", c.id, id)
	}
	delete(c.following, id)
	wasCoordinator, wasDeputy := id == c.coordinator, id == c.deputy
	if wasCoordinator {
		c.coordinator, c.deputy = c.deputy, graph.NoID
	} else if wasDeputy {
		c.deputy = graph.NoID
	}
	if c.departed {
		return
	}
	c.role = behaviours[c.role].onDeparture(c, id, wasCoordinator, wasDeputy)
}

// accepts 是否接受欢迎消息
// 说明：
//   - 发给自身的消息，或本车尚无协调者时接受
//   - 同时存在多个协调者时，接受标识更小的协调者广播的消息
func (c *Car) accepts(m message.Welcome) bool {
	if m.From == c.id {
		return false
	}
	if c.coordinator == graph.NoID {
		return true
	}
	if m.To != graph.NoID {
		return m.Addressed(c.id)
	}
	return m.Coordinator == m.From && m.Coordinator < c.coordinator
}

// onWelcome 采纳协调者的优先图与角色信息
func (c *Car) onWelcome(m message.Welcome) {
	if c.departed || !c.accepts(m) {
		return
	}
	if c.coordinator != graph.NoID && c.coordinator != m.Coordinator {
		log.Debugf("car %d: coordinator %d superseded by %d", c.id, c.coordinator, m.Coordinator)
	}
	c.coordinator, c.deputy = m.Coordinator, m.Deputy
	switch {
	case c.deputy == c.id:
		c.role = Deputy
	case c.coordinator != c.id:
		c.role = Plain
	}
	c.graph = graph.Merge(m.Graph.Clone(), c.graph)
	c.rebuildFollowing(c.graph.FollowList(c.id))
}

// onDeputyAssignment 当前协调者任命副协调者
func (c *Car) onDeputyAssignment(m message.DeputyAssignment) {
	if c.departed || m.From != c.coordinator {
		return
	}
	c.deputy = m.To
	if m.To == c.id && c.role == Plain {
		c.role = Deputy
	}
}

// rebuildFollowing 以新的让行列表重建跟随表，保留已知状态
func (c *Car) rebuildFollowing(follow []int32) {
	next := make(map[int32]*Observation, len(follow))
	for _, id := range follow {
		if id == c.id {
			log.Errorf("car %d follows itself", c.id)
			continue
		}
		next[id] = c.following[id]
	}
	c.following = next
}
