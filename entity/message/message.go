package message

import (
	"fmt"

	"github.com/tsinghua-fib-lab/crossing-sim/entity/graph"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
)

// Class 消息投递类别
type Class int

const (
	Immediate Class = iota // 本轮立即投递
	Deferred               // 排队到下一轮开始时投递
)

// Kind 消息类型
type Kind int

const (
	KindJoin Kind = iota
	KindInfo
	KindDeparture
	KindWelcome
	KindDeputyAssignment
)

func (k Kind) String() string {
	switch k {
	case KindJoin:
		return "join"
	case KindInfo:
		return "info"
	case KindDeparture:
		return "departure"
	case KindWelcome:
		return "welcome"
	case KindDeputyAssignment:
		return "deputy_assignment"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Message 车辆间广播的消息
// 说明：封闭接口，只有本包定义的五种消息实现；所有字段在构造时确定，之后不再修改
type Message interface {
	Sender() int32
	Kind() Kind
	Class() Class
	sealed()
}

type header struct {
	From int32
}

func (h header) Sender() int32 { return h.From }
func (header) sealed()         {}

// Join 新车加入消息
// 说明：车辆驶入外边界时广播，接收者据此将其加入优先图
type Join struct {
	header
	X, Y      float64
	Lane      lane.Lane
	Intention lane.Intention
	Speed     float64
	Acc       float64
}

func (Join) Kind() Kind   { return KindJoin }
func (Join) Class() Class { return Immediate }

// NewJoin 构造加入消息
func NewJoin(from int32, x, y float64, ln lane.Lane, i lane.Intention, speed, acc float64) Join {
	return Join{header: header{From: from}, X: x, Y: y, Lane: ln, Intention: i, Speed: speed, Acc: acc}
}

// Info 周期性状态消息
// 说明：跟随者据此刷新被跟随车辆的最新状态
type Info struct {
	header
	X, Y      float64
	Speed     float64
	Heading   float64
	Acc       float64
	Intention lane.Intention
	Lane      lane.Lane
}

func (Info) Kind() Kind   { return KindInfo }
func (Info) Class() Class { return Immediate }

// NewInfo 构造状态消息
func NewInfo(from int32, x, y, speed, heading, acc float64, ln lane.Lane, i lane.Intention) Info {
	return Info{header: header{From: from}, X: x, Y: y, Speed: speed, Heading: heading, Acc: acc, Lane: ln, Intention: i}
}

// Departure 离开消息，只携带发送者标识
type Departure struct {
	header
}

func (Departure) Kind() Kind   { return KindDeparture }
func (Departure) Class() Class { return Immediate }

// NewDeparture 构造离开消息
func NewDeparture(from int32) Departure {
	return Departure{header: header{From: from}}
}

// Welcome 欢迎消息
// 说明：协调者广播自己的优先图与角色信息；To为graph.NoID时发往所有车辆
type Welcome struct {
	header
	To          int32
	Graph       *graph.Graph // 发送时的深拷贝，接收者需再次拷贝后使用
	Coordinator int32
	Deputy      int32
}

func (Welcome) Kind() Kind   { return KindWelcome }
func (Welcome) Class() Class { return Deferred }

// NewWelcome 构造欢迎消息，g会被深拷贝
func NewWelcome(from, to int32, g *graph.Graph, coordinator, deputy int32) Welcome {
	return Welcome{
		header:      header{From: from},
		To:          to,
		Graph:       g.Clone(),
		Coordinator: coordinator,
		Deputy:      deputy,
	}
}

// Addressed 消息是否发给指定车辆（广播给所有车辆时总是成立）
func (m Welcome) Addressed(id int32) bool {
	return m.To == graph.NoID || m.To == id
}

// DeputyAssignment 副协调者任命消息
type DeputyAssignment struct {
	header
	To int32
}

func (DeputyAssignment) Kind() Kind   { return KindDeputyAssignment }
func (DeputyAssignment) Class() Class { return Deferred }

// NewDeputyAssignment 构造任命消息
func NewDeputyAssignment(from, to int32) DeputyAssignment {
	return DeputyAssignment{header: header{From: from}, To: to}
}
