package input

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossing-sim/entity/lane"
	"gopkg.in/yaml.v2"
)

var (
	ErrDuplicateID  = errors.New("duplicated car id")
	ErrBadLane      = errors.New("lane must be in [0, 4)")
	ErrBadIntention = errors.New("intention must be one of l, s, r")
	ErrBadTick      = errors.New("creation tick must be non-negative")
)

// Position 生成时的初始位置
type Position struct {
	X float64 `yaml:"x" bson:"x"`
	Y float64 `yaml:"y" bson:"y"`
}

// SpawnRecord 车辆生成记录
type SpawnRecord struct {
	ID              int32          `yaml:"id" bson:"id"`
	Lane            lane.Lane      `yaml:"lane" bson:"lane"`
	Intention       lane.Intention `yaml:"intention" bson:"intention"`
	CreationTick    int32          `yaml:"creation_tick" bson:"creation_tick"`
	InitialPosition Position       `yaml:"initial_position" bson:"initial_position"`
	InitialHeading  float64        `yaml:"initial_heading" bson:"initial_heading"`
}

// Pose 初始位姿
func (r SpawnRecord) Pose() junction.Pose {
	return junction.Pose{X: r.InitialPosition.X, Y: r.InitialPosition.Y, Heading: r.InitialHeading}
}

// NewSpawnRecord 以进口车道的标准生成位姿构造记录
func NewSpawnRecord(layout *junction.Layout, id int32, ln lane.Lane, i lane.Intention, tick int32) SpawnRecord {
	pose := layout.Spawn(ln)
	return SpawnRecord{
		ID:              id,
		Lane:            ln,
		Intention:       i,
		CreationTick:    tick,
		InitialPosition: Position{X: pose.X, Y: pose.Y},
		InitialHeading:  pose.Heading,
	}
}

// Scenario 一次模拟的全部车辆生成记录
type Scenario struct {
	Cars []SpawnRecord `yaml:"cars"`
}

// Validate 检查生成记录
// 功能：检查ID唯一、车道与意图合法、生成时刻非负，并按(生成时刻, ID)排序
func (s *Scenario) Validate() error {
	seen := make(map[int32]struct{}, len(s.Cars))
	for _, r := range s.Cars {
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = struct{}{}
		if !r.Lane.Valid() {
			return fmt.Errorf("%w: car %d has lane %d", ErrBadLane, r.ID, r.Lane)
		}
		if !r.Intention.Valid() {
			return fmt.Errorf("%w: car %d has intention %q", ErrBadIntention, r.ID, r.Intention)
		}
		if r.CreationTick < 0 {
			return fmt.Errorf("%w: car %d at %d", ErrBadTick, r.ID, r.CreationTick)
		}
	}
	slices.SortStableFunc(s.Cars, func(a, b SpawnRecord) int {
		return cmp.Or(cmp.Compare(a.CreationTick, b.CreationTick), cmp.Compare(a.ID, b.ID))
	})
	return nil
}

// Filter 只保留指定ID的车辆，ids为空时不做修改
// 返回：不存在的ID
func (s *Scenario) Filter(ids []int32) (failedIDs []int32) {
	dataMap := lo.SliceToMap(s.Cars, func(r SpawnRecord) (int32, SpawnRecord) {
		return r.ID, r
	})
	s.Cars, failedIDs = find(dataMap, s.Cars, ids)
	return
}

// ReadFile 从YAML文件读取生成记录
func ReadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

// WriteFile 将生成记录写入YAML文件
func (s *Scenario) WriteFile(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scenario %s: %w", path, err)
	}
	return nil
}
