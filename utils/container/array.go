package container

import (
	"sync"
)

// IIncrementalItem 支持增量更新的元素接口
// 功能：定义支持增量更新的元素必须实现的方法
// 说明：用于增量数组中元素的索引管理，确保元素能够正确跟踪自己在数组中的位置
type IIncrementalItem interface {
	Index() int         // 获取元素的索引
	SetIndex(index int) // 设置元素的索引
}

// IncrementalItemBase 增量元素基类
// 说明：可以作为其他结构体的嵌入字段，快速实现IIncrementalItem接口
type IncrementalItemBase struct {
	index int // 元素在数组中的索引
}

// Index 获取元素的索引
func (b *IncrementalItemBase) Index() int {
	return b.index
}

// SetIndex 设置元素的索引
func (b *IncrementalItemBase) SetIndex(index int) {
	b.index = index
}

// IncrementalArray 增量数组，支持增量维护元素的数组
// 功能：缓存一个步长内的添加与删除，在Prepare时统一执行
// 说明：Prepare后元素保持原有相对顺序，新元素按添加顺序追加到末尾，
// 遍历顺序因此是确定的（按加入时间）
type IncrementalArray[T IIncrementalItem] struct {
	data        []T        // 主数据数组
	add         []T        // 待添加的元素列表
	remove      []T        // 待删除的元素列表
	addMutex    sync.Mutex // 添加操作的互斥锁
	removeMutex sync.Mutex // 删除操作的互斥锁
}

// NewIncrementalArray 创建增量数组
func NewIncrementalArray[T IIncrementalItem]() *IncrementalArray[T] {
	return &IncrementalArray[T]{
		data:   make([]T, 0),
		add:    make([]T, 0),
		remove: make([]T, 0),
	}
}

// Len 获取当前数组长度
func (a *IncrementalArray[T]) Len() int {
	return len(a.data)
}

// Data 获取当前数据
// 说明：返回内部数组，调用方不得修改
func (a *IncrementalArray[T]) Data() []T {
	return a.data
}

// Add 增加元素（等到Prepare时才会真正增加）
func (a *IncrementalArray[T]) Add(value T) {
	a.addMutex.Lock()
	defer a.addMutex.Unlock()
	a.add = append(a.add, value)
}

// Remove 删除元素（等到Prepare时才会真正删除）
// 说明：元素必须已经在主数组中
func (a *IncrementalArray[T]) Remove(value T) {
	a.removeMutex.Lock()
	defer a.removeMutex.Unlock()
	a.remove = append(a.remove, value)
}

// Pending 待执行的添加与删除数量
func (a *IncrementalArray[T]) Pending() (add, remove int) {
	return len(a.add), len(a.remove)
}

// Prepare 执行增量操作
// 算法说明：
// 1. 按索引标记待删除元素，重复删除只生效一次
// 2. 单次遍历压缩主数组，保留元素的相对顺序
// 3. 按添加顺序追加新元素
// 4. 重新设置所有元素的索引并清空待处理列表
func (a *IncrementalArray[T]) Prepare() {
	if len(a.remove) > 0 {
		drop := make([]bool, len(a.data))
		for _, x := range a.remove {
			ind := x.Index()
			if ind < 0 || ind >= len(a.data) {
				log.Panicf("container: remove index %d out of range [0, %d)", ind, len(a.data))
			}
			drop[ind] = true
		}
		kept := a.data[:0]
		for i, x := range a.data {
			if !drop[i] {
				kept = append(kept, x)
			}
		}
		clear(a.data[len(kept):])
		a.data = kept
	}
	a.data = append(a.data, a.add...)
	for i, x := range a.data {
		x.SetIndex(i)
	}
	a.add = a.add[:0]
	a.remove = a.remove[:0]
}
