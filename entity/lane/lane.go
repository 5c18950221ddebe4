package lane

import (
	"fmt"
)

// Lane 进口车道编号
// 功能：标识车辆驶入路口的方向
// 说明：0-南进口（自下向上行驶），1-东进口，2-北进口，3-西进口，按逆时针编号
type Lane int32

const (
	South Lane = iota // 南进口
	East              // 东进口
	North             // 北进口
	West              // 西进口
)

// Count 进口车道数量
const Count = 4

// All 全部进口车道，按编号升序
var All = []Lane{South, East, North, West}

// Valid 检查编号是否合法
func (l Lane) Valid() bool {
	return l >= South && l <= West
}

func (l Lane) String() string {
	switch l {
	case South:
		return "south"
	case East:
		return "east"
	case North:
		return "north"
	case West:
		return "west"
	default:
		return fmt.Sprintf("lane(%d)", int32(l))
	}
}

// Offset 计算两条进口车道的相对编号
// 功能：返回 (l - other) mod 4，结果总在[0, 4)内
func (l Lane) Offset(other Lane) int {
	return ((int(l)-int(other))%Count + Count) % Count
}

// Intention 车辆在路口的行驶意图
type Intention string

const (
	Left     Intention = "l" // 左转
	Straight Intention = "s" // 直行
	Right    Intention = "r" // 右转
)

// Intentions 全部行驶意图，顺序与冲突表的行列顺序一致
var Intentions = []Intention{Left, Straight, Right}

// Valid 检查意图是否合法
func (i Intention) Valid() bool {
	return i == Left || i == Straight || i == Right
}

// index 意图在冲突表中的行列下标
func (i Intention) index() int {
	switch i {
	case Left:
		return 0
	case Straight:
		return 1
	case Right:
		return 2
	default:
		log.Panicf("lane: invalid intention %q", string(i))
		return -1
	}
}

// Exit 驶出路口时所在一侧的进口编号
// 功能：根据进口车道和意图计算车辆离开路口时经过的路口边
// 参数：l-进口车道，i-行驶意图
// 返回：驶出边对应的进口编号（该边上的出口车道与此进口车道共线）
// 算法说明：
// 1. 直行：对向进口 (l+2)%4
// 2. 左转：(l+3)%4
// 3. 右转：(l+1)%4
func Exit(l Lane, i Intention) Lane {
	switch i {
	case Straight:
		return (l + 2) % Count
	case Left:
		return (l + 3) % Count
	case Right:
		return (l + 1) % Count
	default:
		log.Panicf("lane: invalid intention %q", string(i))
		return l
	}
}
