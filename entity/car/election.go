package car

import (
	"github.com/tsinghua-fib-lab/crossing-sim/entity/graph"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
)

// due 计数器是否到达间隔
func due(counter, interval int) bool {
	return (counter+1)%(interval+1) == 0
}

// tickCounters 推进广播与选举计数器
// 功能：到达广播间隔时广播Info；到达选举间隔且没有协调者时自荐为协调者
func (c *Car) tickCounters() {
	if due(c.infoCounter, c.attr.InfoInterval) {
		c.broadcast(message.NewInfo(
			c.id, c.state.X, c.state.Y, c.state.Speed, c.state.Heading, c.state.Acc, c.lane, c.intention,
		))
	}
	if c.coordinator == graph.NoID && due(c.electionCounter, c.attr.ElectionInterval) {
		c.elect()
	}
	c.infoCounter++
	c.electionCounter++
}

// elect 成为协调者
// 算法说明：
// 1. 以自身为协调者，按标识顺序选出自身之后的车辆为副协调者
// 2. 向所有车辆广播欢迎消息
// 3. 选出了副协调者时广播任命消息
func (c *Car) elect() {
	log.Debugf("car %d elects itself coordinator", c.id)
	c.role = Coordinator
	c.coordinator = c.id
	c.deputy = c.nextAfter(c.id)
	c.broadcast(message.NewWelcome(c.id, graph.NoID, c.graph, c.coordinator, c.deputy))
	if c.deputy != graph.NoID {
		c.broadcast(message.NewDeputyAssignment(c.id, c.deputy))
	}
}
