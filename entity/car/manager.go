package car

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossing-sim/entity"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/container"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/input"
)

// Manager 车辆管理器
// 功能：按生成记录生成车辆，维护在场车辆的顺序，逐车推进并回收驶出的车辆
// 说明：
//   - 在场车辆按生成顺序排列，更新顺序与之一致
//   - 到期记录的生成点与同车道最近驶入车辆重叠时进入等待队列，之后每步优先重试
//   - 在场车辆达到上限时暂停生成
type Manager struct {
	ctx entity.ITaskContext

	data map[int32]*Car // 所有生成过的车辆（含已驶出）

	// 在场车辆
	cars *container.IncrementalArray[*Car]

	records []input.SpawnRecord // 尚未到期的记录，按生成时刻排序
	waiting []input.SpawnRecord // 已到期但因重叠暂缓生成的记录

	maxAgents int
	spawned   int
}

// NewManager 创建车辆管理器
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:       ctx,
		data:      make(map[int32]*Car),
		cars:      container.NewIncrementalArray[*Car](),
		records:   make([]input.SpawnRecord, 0),
		waiting:   make([]input.SpawnRecord, 0),
		maxAgents: ctx.RuntimeConfig().C.MaxAgents,
	}
}

// Init 设置生成记录
// 参数：records-按生成时刻排序的记录
func (m *Manager) Init(records []input.SpawnRecord) {
	m.records = slices.Clone(records)
	m.waiting = m.waiting[:0]
}

// Get 根据ID获取车辆，如果不存在则panic
func (m *Manager) Get(id int32) entity.IAgent {
	if c, ok := m.data[id]; !ok {
		log.Panicf("no id %d in car data", id)
		return nil
	} else {
		return c
	}
}

// GetOrError 根据ID获取车辆，如果不存在则返回错误
func (m *Manager) GetOrError(id int32) (entity.IAgent, error) {
	if c, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in car data", id)
	} else {
		return c, nil
	}
}

// Car 根据ID获取车辆实体
func (m *Manager) Car(id int32) (*Car, bool) {
	c, ok := m.data[id]
	return c, ok
}

// Cars 在场车辆，按生成顺序
func (m *Manager) Cars() []*Car {
	return m.cars.Data()
}

// Agents 在场车辆，按生成顺序
func (m *Manager) Agents() []entity.IAgent {
	return lo.Map(m.cars.Data(), func(c *Car, _ int) entity.IAgent { return c })
}

// All 所有生成过的车辆，按ID升序
func (m *Manager) All() []*Car {
	ids := lo.Keys(m.data)
	slices.Sort(ids)
	return lo.Map(ids, func(id int32, _ int) *Car { return m.data[id] })
}

// Pending 尚未生成的车辆数
func (m *Manager) Pending() int {
	return len(m.records) + len(m.waiting)
}

// Spawned 已生成的车辆数
func (m *Manager) Spawned() int {
	return m.spawned
}

// Exited 已驶出的车辆数
func (m *Manager) Exited() int {
	return lo.CountBy(lo.Values(m.data), func(c *Car) bool { return c.Exited() })
}

// Live 在场且尚未驶出的车辆数
func (m *Manager) Live() int {
	return lo.CountBy(m.cars.Data(), func(c *Car) bool { return !c.Exited() })
}

// Prepare 准备阶段
// 算法说明：
// 1. 回收上一步驶出的车辆，并清除信道车道记录中的引用
// 2. 先重试等待队列，再处理本步到期的记录
// 3. 执行增量更新，新车在本步参与更新
func (m *Manager) Prepare(tick int32) {
	for _, c := range m.cars.Data() {
		if c.Exited() {
			m.cars.Remove(c)
			m.ctx.Channel().Forget(c)
		}
	}
	live := m.cars.Len() - m.removing()

	queue := m.waiting
	m.waiting = make([]input.SpawnRecord, 0, len(queue))
	for len(m.records) > 0 && m.records[0].CreationTick <= tick {
		queue = append(queue, m.records[0])
		m.records = m.records[1:]
	}
	for _, r := range queue {
		if m.maxAgents > 0 && live >= m.maxAgents {
			m.waiting = append(m.waiting, r)
			continue
		}
		if m.blocked(r) {
			m.waiting = append(m.waiting, r)
			continue
		}
		m.spawn(r)
		live++
	}
	m.cars.Prepare()
}

func (m *Manager) removing() int {
	_, remove := m.cars.Pending()
	return remove
}

// blocked 生成点是否被同车道最近驶入的车辆占据
// 说明：以该车车长为边长、生成点为中心的正方形与其车身重叠即视为占据；没有最近驶入车辆时不占据
func (m *Manager) blocked(r input.SpawnRecord) bool {
	recent := m.ctx.Channel().RecentEntering(r.Lane)
	if recent == nil {
		return false
	}
	spawn := junction.Square(r.Pose().Point(), recent.Length())
	return junction.Overlap(spawn, recent.Footprint())
}

func (m *Manager) spawn(r input.SpawnRecord) *Car {
	if _, ok := m.data[r.ID]; ok {
		log.Panicf("Car ID %v already exists!", r.ID)
	}
	c := newCar(m.ctx, r)
	m.data[r.ID] = c
	m.cars.Add(c)
	m.spawned++
	log.Debugf("spawn car %d on lane %v (%s)", r.ID, r.Lane, r.Intention)
	return c
}

// Update 更新阶段：按生成顺序逐车推进
func (m *Manager) Update() {
	for _, c := range m.cars.Data() {
		c.Update()
	}
}
