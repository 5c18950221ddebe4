package graph

import (
	"slices"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
)

// NoID 空标识，用于表示协调者/副协调者不存在或消息发往所有车辆
const NoID int32 = -1

// Node 优先图节点
// 功能：记录一辆车的进口车道、意图以及它需要让行的车辆列表
// 说明：除离开时的剪枝外，节点创建后内容不再变化
type Node struct {
	ID        int32
	Lane      lane.Lane
	Intention lane.Intention
	Follow    []int32 // 需要让行的车辆，按加入时的遍历顺序排列
}

// clone 深拷贝节点
func (n *Node) clone() *Node {
	c := *n
	c.Follow = slices.Clone(n.Follow)
	return &c
}

// Graph 优先图
// 功能：每辆车独立持有的让行关系图，支持增量加入与离开剪枝
// 说明：
//   - nodes 标识到节点的映射
//   - order 节点加入顺序，用于合并时按原顺序补充节点
//   - leaves 尚未被任何节点跟随的车辆集合，作为新车加入时广度优先搜索的起点
//   - departed 已离开车辆的墓碑集合，标识不会复用
type Graph struct {
	nodes    map[int32]*Node
	order    []int32
	leaves   map[int32]struct{}
	departed map[int32]struct{}
}

// New 创建空优先图
func New() *Graph {
	return &Graph{
		nodes:    make(map[int32]*Node),
		order:    make([]int32, 0),
		leaves:   make(map[int32]struct{}),
		departed: make(map[int32]struct{}),
	}
}

// Len 节点数量
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Has 是否包含节点
func (g *Graph) Has(id int32) bool {
	_, ok := g.nodes[id]
	return ok
}

// Departed 车辆是否已离开
func (g *Graph) Departed(id int32) bool {
	_, ok := g.departed[id]
	return ok
}

// Get 获取节点，不存在时返回nil
func (g *Graph) Get(id int32) *Node {
	return g.nodes[id]
}

// FollowList 获取节点的让行列表副本
func (g *Graph) FollowList(id int32) []int32 {
	if n, ok := g.nodes[id]; ok {
		return slices.Clone(n.Follow)
	}
	return nil
}

// IDs 全部节点标识，升序
func (g *Graph) IDs() []int32 {
	ids := lo.Keys(g.nodes)
	slices.Sort(ids)
	return ids
}

// Order 节点加入顺序
func (g *Graph) Order() []int32 {
	return slices.Clone(g.order)
}

// Leaves 叶子集合，升序
func (g *Graph) Leaves() []int32 {
	ids := lo.Keys(g.leaves)
	slices.Sort(ids)
	return ids
}

// IsLeaf 是否为叶子
func (g *Graph) IsLeaf(id int32) bool {
	_, ok := g.leaves[id]
	return ok
}

// Join 新车加入
// 功能：计算新车需要让行的车辆并插入节点
// 参数：id-新车标识，ln-进口车道，i-意图
// 返回：新车的让行列表
// 算法说明：
// 1. 从叶子集合（升序）出发进行广度优先遍历
// 2. 若被访问节点与新车路径相交，加入让行列表，并将该节点的让行列表标记为已访问（已被传递支配）
// 3. 若不相交，继续遍历该节点的让行列表
// 4. 从叶子集合中移除让行列表中的车辆，将新车加入叶子集合
// 说明：节点已存在或已离开时不做修改；让行列表不会包含自身
func (g *Graph) Join(id int32, ln lane.Lane, i lane.Intention) []int32 {
	if n, ok := g.nodes[id]; ok {
		return slices.Clone(n.Follow)
	}
	if g.Departed(id) {
		log.Debugf("ignore join of departed %d", id)
		return nil
	}
	follow := make([]int32, 0)
	visited := make(map[int32]struct{})
	queue := g.Leaves()
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}
		node, ok := g.nodes[cur]
		if !ok || cur == id {
			continue
		}
		if lane.Crosses(ln, i, node.Lane, node.Intention) {
			follow = append(follow, cur)
			for _, f := range node.Follow {
				visited[f] = struct{}{}
			}
		} else {
			queue = append(queue, node.Follow...)
		}
	}
	for _, f := range follow {
		delete(g.leaves, f)
	}
	g.leaves[id] = struct{}{}
	g.nodes[id] = &Node{ID: id, Lane: ln, Intention: i, Follow: follow}
	g.order = append(g.order, id)
	return slices.Clone(follow)
}

// Remove 车辆离开
// 功能：从图中删除节点，并从所有节点的让行列表中剪除该车
// 参数：id-离开车辆标识
// 返回：节点原本是否存在
// 算法说明：
// 1. 记录墓碑，删除节点、叶子与加入顺序
// 2. 从所有让行列表中删除该车
// 3. 原本只被该车跟随的节点重新成为叶子
func (g *Graph) Remove(id int32) bool {
	g.departed[id] = struct{}{}
	node, ok := g.nodes[id]
	if !ok {
		return false
	}
	delete(g.nodes, id)
	delete(g.leaves, id)
	g.order = slices.DeleteFunc(g.order, func(x int32) bool { return x == id })
	for _, n := range g.nodes {
		n.Follow = slices.DeleteFunc(n.Follow, func(x int32) bool { return x == id })
	}
	for _, f := range node.Follow {
		if _, exist := g.nodes[f]; !exist {
			continue
		}
		if !g.followed(f) {
			g.leaves[f] = struct{}{}
		}
	}
	return true
}

// followed 是否有节点需要让行id
func (g *Graph) followed(id int32) bool {
	for _, n := range g.nodes {
		if slices.Contains(n.Follow, id) {
			return true
		}
	}
	return false
}

// Clone 深拷贝
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:    make(map[int32]*Node, len(g.nodes)),
		order:    slices.Clone(g.order),
		leaves:   make(map[int32]struct{}, len(g.leaves)),
		departed: make(map[int32]struct{}, len(g.departed)),
	}
	for id, n := range g.nodes {
		c.nodes[id] = n.clone()
	}
	for id := range g.leaves {
		c.leaves[id] = struct{}{}
	}
	for id := range g.departed {
		c.departed[id] = struct{}{}
	}
	return c
}

// Merge 以收到的图为基础合并本地图
// 功能：采纳协调者的图，同时保留本地已知但对方尚未知道的车辆
// 参数：received-收到的图（调用方保证已深拷贝），local-本地图
// 返回：合并后的图（即received）
// 算法说明：
// 1. 合并双方的墓碑集合，删除对方图中本地已知离开的车辆
// 2. 按本地加入顺序，将对方图中缺失且未离开的本地节点重新执行Join
func Merge(received, local *Graph) *Graph {
	for id := range local.departed {
		received.Remove(id)
	}
	for _, id := range local.order {
		if received.Has(id) || received.Departed(id) {
			continue
		}
		n := local.nodes[id]
		received.Join(n.ID, n.Lane, n.Intention)
	}
	return received
}
