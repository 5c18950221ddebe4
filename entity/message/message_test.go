package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/graph"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
)

func TestClasses(t *testing.T) {
	g := graph.New()
	msgs := []message.Message{
		message.NewJoin(1, 0, 0, lane.South, lane.Left, 0, 0),
		message.NewInfo(1, 0, 0, 0, 0, 0, lane.South, lane.Left),
		message.NewDeparture(1),
		message.NewWelcome(1, graph.NoID, g, 1, graph.NoID),
		message.NewDeputyAssignment(1, 2),
	}
	classes := []message.Class{
		message.Immediate, message.Immediate, message.Immediate,
		message.Deferred, message.Deferred,
	}
	for i, m := range msgs {
		assert.Equal(t, int32(1), m.Sender())
		assert.Equal(t, classes[i], m.Class(), m.Kind().String())
		assert.Equal(t, message.Kind(i), m.Kind())
	}
}

func TestWelcomeSnapshotsGraph(t *testing.T) {
	g := graph.New()
	g.Join(1, lane.South, lane.Straight)
	w := message.NewWelcome(1, 2, g, 1, graph.NoID)
	g.Join(2, lane.South, lane.Straight)
	assert.Equal(t, 1, w.Graph.Len())
	assert.True(t, w.Addressed(2))
	assert.False(t, w.Addressed(3))
	all := message.NewWelcome(1, graph.NoID, g, 1, graph.NoID)
	assert.True(t, all.Addressed(3))
}
