package car

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/graph"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
)

// joinAll 依次加入车辆：第一辆车加入后自荐为协调者，之后每辆车加入后执行一轮投递
func joinAll(ctx *testContext, cars []*Car) {
	for i, c := range cars {
		ctx.join(c)
		if i == 0 {
			c.elect()
		}
		ctx.ch.DoRound()
	}
}

func TestTwoAgentsSameLane(t *testing.T) {
	ctx := newTestContext(nil)
	a := ctx.spawn(1, lane.South, lane.Straight)
	b := ctx.spawn(2, lane.South, lane.Straight)
	joinAll(ctx, []*Car{a, b})

	for _, c := range []*Car{a, b} {
		g := c.Graph()
		assert.Empty(t, g.FollowList(1))
		assert.Equal(t, []int32{1}, g.FollowList(2))
		assert.Equal(t, []int32{2}, g.Leaves())
	}
	assert.Empty(t, a.Following())
	assert.Equal(t, []int32{1}, b.Following())
}

func TestSixAgentsShareGraph(t *testing.T) {
	ctx := newTestContext(nil)
	lanes := []lane.Lane{0, 2, 1, 2, 3, 2}
	intentions := []lane.Intention{"s", "s", "r", "s", "l", "l"}
	cars := make([]*Car, len(lanes))
	for i := range lanes {
		cars[i] = ctx.spawn(int32(i+1), lanes[i], intentions[i])
	}
	joinAll(ctx, cars)

	expected := map[int32][]int32{
		1: {},
		2: {},
		3: {1},
		4: {2},
		5: {3, 4},
		6: {5},
	}
	for _, c := range cars {
		g := c.Graph()
		for id, follow := range expected {
			assert.ElementsMatch(t, follow, g.FollowList(id), "car %d view of %d", c.ID(), id)
		}
		assert.Equal(t, []int32{6}, g.Leaves(), "car %d", c.ID())
		assert.Equal(t, int32(1), c.Coordinator())
		assert.Equal(t, int32(2), c.Deputy())
	}
	assert.Equal(t, Coordinator, cars[0].Role())
	assert.Equal(t, Deputy, cars[1].Role())
	for _, c := range cars[2:] {
		assert.Equal(t, Plain, c.Role())
	}
}

func TestElectionWithoutOthers(t *testing.T) {
	ctx := newTestContext(nil)
	c := ctx.spawnAt(1, lane.South, lane.Straight, 435, 700, 0)
	c.pin(Idle)
	interval := ctx.rc.V.ElectionInterval
	for i := 0; i < interval; i++ {
		c.Update()
		ctx.ch.DoRound()
		require.True(t, c.Entered())
		assert.Equal(t, Plain, c.Role(), "update %d", i+1)
		assert.Equal(t, graph.NoID, c.Coordinator())
	}
	c.Update()
	ctx.ch.DoRound()
	assert.Equal(t, Coordinator, c.Role())
	assert.Equal(t, int32(1), c.Coordinator())
	assert.Equal(t, graph.NoID, c.Deputy())
	assert.Equal(t, 1, ctx.ch.Sent(message.KindWelcome))
	assert.Zero(t, ctx.ch.Sent(message.KindDeputyAssignment))
}

func TestCoordinatorDeparture(t *testing.T) {
	ctx := newTestContext(nil)
	a := ctx.spawn(1, lane.South, lane.Straight)
	b := ctx.spawn(2, lane.South, lane.Straight)
	c := ctx.spawn(3, lane.South, lane.Straight)
	joinAll(ctx, []*Car{a, b, c})
	require.Equal(t, Coordinator, a.Role())
	require.Equal(t, Deputy, b.Role())
	require.Equal(t, int32(2), c.Deputy())

	a.departed = true
	a.broadcast(message.NewDeparture(1))

	// 同一轮内副协调者接替并任命新的副协调者
	assert.Equal(t, Coordinator, b.Role())
	assert.Equal(t, int32(2), b.Coordinator())
	assert.Equal(t, int32(3), b.Deputy())
	assert.Equal(t, int32(2), c.Coordinator())
	assert.False(t, b.Graph().Has(1))
	assert.False(t, c.Graph().Has(1))
	assert.Equal(t, 1, ctx.ch.Queued())

	ctx.ch.DoRound()
	assert.Equal(t, Deputy, c.Role())
	assert.Equal(t, int32(3), c.Deputy())
	assert.Equal(t, []int32{2}, c.Following())
	assert.Empty(t, b.Following())
}

func TestDeputyDepartureReappoints(t *testing.T) {
	ctx := newTestContext(nil)
	cars := []*Car{
		ctx.spawn(1, lane.South, lane.Straight),
		ctx.spawn(2, lane.South, lane.Straight),
		ctx.spawn(3, lane.South, lane.Straight),
	}
	joinAll(ctx, cars)

	cars[1].departed = true
	cars[1].broadcast(message.NewDeparture(2))
	assert.Equal(t, int32(3), cars[0].Deputy())
	assert.Equal(t, graph.NoID, cars[2].Deputy())
	ctx.ch.DoRound()
	assert.Equal(t, Deputy, cars[2].Role())
	assert.Equal(t, int32(1), cars[2].Coordinator())
	// 剪枝不会传递让行关系
	assert.Empty(t, cars[2].Following())
	assert.Equal(t, []int32{1, 3}, cars[2].Graph().Leaves())
}

func TestDepartureOfUnknownIsNoop(t *testing.T) {
	ctx := newTestContext(nil)
	cars := []*Car{
		ctx.spawn(1, lane.South, lane.Straight),
		ctx.spawn(2, lane.North, lane.Straight),
	}
	joinAll(ctx, cars)
	before := cars[1].Graph()
	cars[1].Receive(message.NewDeparture(42))
	assert.Equal(t, before.IDs(), cars[1].Graph().IDs())
	assert.Equal(t, int32(1), cars[1].Coordinator())
	assert.Equal(t, Deputy, cars[1].Role())
	// 墓碑生效后，迟到的Join不再加入
	cars[1].Receive(message.NewJoin(42, 0, 0, lane.East, lane.Left, 0, 0))
	assert.False(t, cars[1].Graph().Has(42))
}

func TestInfoIsIdempotent(t *testing.T) {
	ctx := newTestContext(nil)
	a := ctx.spawn(1, lane.South, lane.Straight)
	b := ctx.spawn(2, lane.South, lane.Straight)
	joinAll(ctx, []*Car{a, b})

	_, ok := b.Observed(1)
	assert.False(t, ok)

	m := message.NewInfo(1, 435, 800, 12, 0, 1.5, lane.South, lane.Straight)
	b.Receive(m)
	first, ok := b.Observed(1)
	require.True(t, ok)
	b.Receive(m)
	second, _ := b.Observed(1)
	assert.Equal(t, first, second)
	assert.Equal(t, Observation{X: 435, Y: 800, Speed: 12, Acc: 1.5, Lane: lane.South, Intention: lane.Straight}, first)

	// 不在跟随表中的车辆的Info被忽略
	a.Receive(message.NewInfo(2, 435, 900, 3, 0, 0, lane.South, lane.Straight))
	_, ok = a.Observed(2)
	assert.False(t, ok)
}

func TestWelcomeTieBreak(t *testing.T) {
	ctx := newTestContext(nil)
	c := ctx.spawn(2, lane.South, lane.Straight)
	ctx.join(c)
	c.elect()
	require.Equal(t, Coordinator, c.Role())

	// 标识更大的协调者的广播被忽略
	other := graph.New()
	other.Join(3, lane.North, lane.Left)
	c.Receive(message.NewWelcome(3, graph.NoID, other, 3, graph.NoID))
	assert.Equal(t, int32(2), c.Coordinator())
	assert.False(t, c.Graph().Has(3))

	// 发往其他车辆的欢迎消息被忽略
	c.Receive(message.NewWelcome(1, 7, other, 1, graph.NoID))
	assert.Equal(t, int32(2), c.Coordinator())

	// 标识更小的协调者胜出，并采纳其图
	smaller := graph.New()
	smaller.Join(1, lane.East, lane.Straight)
	smaller.Join(2, lane.South, lane.Straight)
	c.Receive(message.NewWelcome(1, graph.NoID, smaller, 1, 2))
	assert.Equal(t, int32(1), c.Coordinator())
	assert.Equal(t, Deputy, c.Role())
	assert.Equal(t, []int32{1}, c.Following())

	// 收到的图被深拷贝
	smaller.Remove(1)
	assert.True(t, c.Graph().Has(1))
}

func TestDeputyAssignmentFromStranger(t *testing.T) {
	ctx := newTestContext(nil)
	cars := []*Car{
		ctx.spawn(1, lane.South, lane.Straight),
		ctx.spawn(2, lane.South, lane.Straight),
		ctx.spawn(3, lane.South, lane.Straight),
	}
	joinAll(ctx, cars)
	cars[2].Receive(message.NewDeputyAssignment(2, 3))
	assert.Equal(t, Plain, cars[2].Role())
	assert.Equal(t, int32(2), cars[2].Deputy())
}

func TestNextAfter(t *testing.T) {
	ctx := newTestContext(nil)
	c := ctx.spawn(5, lane.South, lane.Straight)
	assert.Equal(t, graph.NoID, c.nextAfter(5))
	c.graph.Join(1, lane.North, lane.Straight)
	c.graph.Join(2, lane.East, lane.Straight)
	c.graph.Join(5, lane.South, lane.Straight)

	assert.Equal(t, int32(1), c.nextAfter(5))
	assert.Equal(t, int32(2), c.nextAfter(1))
	assert.Equal(t, int32(1), c.nextAfter(2))
	assert.Equal(t, int32(1), c.nextAfter(0))
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "coordinator", Coordinator.String())
	assert.Equal(t, "deputy", Deputy.String())
	assert.Equal(t, "plain", Plain.String())
	v, err := Deputy.MarshalYAML()
	assert.NoError(t, err)
	assert.Equal(t, "deputy", v)
}
