package task

import (
	"cmp"
	"fmt"
	"os"
	"slices"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/car"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/message"
	"gopkg.in/yaml.v2"
)

// Collision 一次车身重叠
type Collision struct {
	A    int32 `yaml:"a"`
	B    int32 `yaml:"b"`
	Tick int32 `yaml:"tick"`
}

// CarReport 单车运行结果
type CarReport struct {
	ID        int32          `yaml:"id"`
	Lane      lane.Lane      `yaml:"lane"`
	Intention lane.Intention `yaml:"intention"`
	Timeline  car.Timeline   `yaml:"timeline"`
	Role      car.Role       `yaml:"role"`
}

// Report 运行报告
type Report struct {
	Ticks      int32          `yaml:"ticks"`
	Spawned    int            `yaml:"spawned"`
	Exited     int            `yaml:"exited"`
	Pending    int            `yaml:"pending"`
	Collisions []Collision    `yaml:"collisions"`
	Messages   map[string]int `yaml:"messages"`
	Cars       []CarReport    `yaml:"cars"`
}

// Report 生成当前的运行报告
func (ctx *Context) Report() *Report {
	m := ctx.carManager
	r := &Report{
		Ticks:    ctx.clock.Elapsed(),
		Spawned:  m.Spawned(),
		Exited:   m.Exited(),
		Pending:  m.Pending(),
		Messages: make(map[string]int),
	}
	for pair, tick := range ctx.collisions {
		r.Collisions = append(r.Collisions, Collision{A: pair[0], B: pair[1], Tick: tick})
	}
	slices.SortFunc(r.Collisions, func(a, b Collision) int {
		return cmp.Or(cmp.Compare(a.Tick, b.Tick), cmp.Compare(a.A, b.A), cmp.Compare(a.B, b.B))
	})
	for k := message.KindJoin; k <= message.KindDeputyAssignment; k++ {
		r.Messages[k.String()] = ctx.channel.Sent(k)
	}
	r.Cars = lo.Map(m.All(), func(c *car.Car, _ int) CarReport {
		return CarReport{
			ID:        c.ID(),
			Lane:      c.Lane(),
			Intention: c.Intention(),
			Timeline:  c.Timeline(),
			Role:      c.Role(),
		}
	})
	return r
}

// WriteFile 将报告写入YAML文件
func (r *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
