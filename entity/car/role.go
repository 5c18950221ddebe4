package car

import (
	"fmt"
	"slices"

	"github.com/tsinghua-fib-lab/crossing-sim/entity/graph"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
)

// Role 车辆在协同中的角色
type Role int

const (
	Plain       Role = iota // 普通车辆
	Coordinator             // 协调者：向新车发送优先图，任命副协调者
	Deputy                  // 副协调者：协调者离开时接替
)

func (r Role) String() string {
	switch r {
	case Plain:
		return "plain"
	case Coordinator:
		return "coordinator"
	case Deputy:
		return "deputy"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// MarshalYAML 以名称输出
func (r Role) MarshalYAML() (any, error) {
	return r.String(), nil
}

// behaviour 角色相关的消息处理
// 说明：每个处理函数返回处理后的新角色，由调用方统一赋值
type behaviour struct {
	// onJoin 处理加入消息，added表示该车是本次新加入本地优先图的
	onJoin func(c *Car, id int32, added bool) Role
	// onDeparture 处理离开消息，此时公共的图剪枝与协调者/副协调者字段更新已经完成
	onDeparture func(c *Car, id int32, wasCoordinator, wasDeputy bool) Role
}

var behaviours = [...]behaviour{
	Plain: {
		onJoin:      func(*Car, int32, bool) Role { return Plain },
		onDeparture: func(*Car, int32, bool, bool) Role { return Plain },
	},
	Coordinator: {
		onJoin: func(c *Car, id int32, added bool) Role {
			if !added || id == c.id {
				return Coordinator
			}
			c.broadcast(message.NewWelcome(c.id, id, c.graph, c.coordinator, c.deputy))
			if c.deputy == graph.NoID {
				c.appoint(c.nextAfter(c.id))
			}
			return Coordinator
		},
		onDeparture: func(c *Car, id int32, _, wasDeputy bool) Role {
			if wasDeputy {
				c.appoint(c.nextAfter(id))
			}
			return Coordinator
		},
	},
	Deputy: {
		onJoin: func(*Car, int32, bool) Role { return Deputy },
		onDeparture: func(c *Car, id int32, wasCoordinator, _ bool) Role {
			if !wasCoordinator {
				return Deputy
			}
			log.Debugf("car %d takes over from departed coordinator %d", c.id, id)
			c.coordinator = c.id
			c.appoint(c.nextAfter(c.id))
			return Coordinator
		},
	},
}

// appoint 任命副协调者并广播，deputy为空时只清空记录
func (c *Car) appoint(deputy int32) {
	c.deputy = deputy
	if deputy != graph.NoID {
		c.broadcast(message.NewDeputyAssignment(c.id, deputy))
	}
}

// nextAfter 副协调者候选
// 功能：将本地优先图中除自身外的全部车辆升序排列，取第一个大于ref的标识，不存在时回绕到最小标识
// 返回：候选标识，没有其他车辆时返回graph.NoID
func (c *Car) nextAfter(ref int32) int32 {
	ids := slices.DeleteFunc(c.graph.IDs(), func(id int32) bool { return id == c.id })
	if len(ids) == 0 {
		return graph.NoID
	}
	if i, _ := slices.BinarySearch(ids, ref+1); i < len(ids) {
		return ids[i]
	}
	return ids[0]
}
