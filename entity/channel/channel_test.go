package channel_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crossing-sim/entity"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/channel"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/graph"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/motion"
)

// recorder 记录收到消息的测试车辆
type recorder struct {
	id       int32
	log      *[]string
	onJoin   func(m message.Message) // 收到Join时的附加动作
	received []message.Kind
}

func (r *recorder) ID() int32                 { return r.id }
func (r *recorder) Lane() lane.Lane           { return lane.South }
func (r *recorder) Intention() lane.Intention { return lane.Straight }
func (r *recorder) Length() float64           { return 56 }
func (r *recorder) Width() float64            { return 28 }
func (r *recorder) State() motion.State       { return motion.State{} }
func (r *recorder) Footprint() orb.Bound      { return orb.Bound{} }
func (r *recorder) Entered() bool             { return true }
func (r *recorder) EnteredAt() int32          { return 0 }
func (r *recorder) Departed() bool            { return false }
func (r *recorder) Exited() bool              { return false }
func (r *recorder) FullyInsideInner() bool    { return false }
func (r *recorder) Blocks(orb.Bound) bool     { return false }
func (r *recorder) Update()                   {}

func (r *recorder) Receive(m message.Message) {
	r.received = append(r.received, m.Kind())
	if r.log != nil {
		*r.log = append(*r.log, m.Kind().String())
	}
	if m.Kind() == message.KindJoin && r.onJoin != nil {
		r.onJoin(m)
	}
}

var _ entity.IAgent = (*recorder)(nil)

func TestImmediateReachesEveryoneIncludingSender(t *testing.T) {
	c := channel.New()
	a, b := &recorder{id: 1}, &recorder{id: 2}
	c.Add(a)
	c.Add(b)
	c.Add(a)
	require.Len(t, c.Active(), 2)

	c.Broadcast(message.NewInfo(1, 0, 0, 1, 0, 0, lane.South, lane.Straight))
	assert.Equal(t, []message.Kind{message.KindInfo}, a.received)
	assert.Equal(t, []message.Kind{message.KindInfo}, b.received)
	assert.Equal(t, 1, c.Sent(message.KindInfo))
}

func TestDeferredWaitsForNextRound(t *testing.T) {
	var order []string
	c := channel.New()
	a := &recorder{id: 1, log: &order}
	c.Add(a)

	c.Broadcast(message.NewWelcome(1, graph.NoID, graph.New(), 1, graph.NoID))
	c.Broadcast(message.NewDeputyAssignment(1, 2))
	assert.Empty(t, a.received)
	assert.Equal(t, 2, c.Queued())

	c.DoRound()
	c.Broadcast(message.NewJoin(1, 0, 0, lane.South, lane.Straight, 0, 0))
	assert.Equal(t, []string{"welcome", "deputy_assignment", "join"}, order)
	assert.Equal(t, 0, c.Queued())

	c.DoRound()
	assert.Len(t, a.received, 3)
}

func TestDeferredSentDuringRoundGoesToNextRound(t *testing.T) {
	c := channel.New()
	a := &recorder{id: 1}
	c.Add(a)
	b := &recorder{id: 2, onJoin: func(message.Message) {
		c.Broadcast(message.NewWelcome(2, 1, graph.New(), 2, graph.NoID))
	}}
	c.Add(b)

	c.Broadcast(message.NewJoin(1, 0, 0, lane.South, lane.Straight, 0, 0))
	assert.Equal(t, []message.Kind{message.KindJoin}, a.received)
	assert.Equal(t, 1, c.Queued())
	c.DoRound()
	assert.Equal(t, []message.Kind{message.KindJoin, message.KindWelcome}, a.received)
}

func TestDepartureRemovesSenderAfterDelivery(t *testing.T) {
	c := channel.New()
	a, b, d := &recorder{id: 1}, &recorder{id: 2}, &recorder{id: 3}
	c.Add(a)
	c.Add(b)
	c.Add(d)

	c.Broadcast(message.NewDeparture(2))
	assert.Equal(t, []message.Kind{message.KindDeparture}, b.received)
	assert.Equal(t, []message.Kind{message.KindDeparture}, d.received)
	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, int32(1), active[0].ID())
	assert.Equal(t, int32(3), active[1].ID())

	c.Remove(42)
	assert.Len(t, c.Active(), 2)
}

func TestRecentTrackers(t *testing.T) {
	c := channel.New()
	a, b := &recorder{id: 1}, &recorder{id: 2}
	assert.Nil(t, c.RecentEntering(lane.East))

	c.SetRecentEntering(lane.East, a)
	c.SetRecentLeaving(lane.North, a)
	c.SetRecentLeaving(lane.West, b)
	assert.Equal(t, entity.IAgent(a), c.RecentEntering(lane.East))
	assert.Equal(t, entity.IAgent(a), c.RecentLeaving(lane.North))

	c.Forget(a)
	assert.Nil(t, c.RecentEntering(lane.East))
	assert.Nil(t, c.RecentLeaving(lane.North))
	assert.Equal(t, entity.IAgent(b), c.RecentLeaving(lane.West))
}
