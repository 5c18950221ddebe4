package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 说明：File非空时从YAML文件读取，否则从MongoDB的DB.Col集合读取
type InputPath struct {
	DB        string  `yaml:"db,omitempty"`         // 数据库名
	Col       string  `yaml:"col,omitempty"`        // 集合名
	Cache     string  `yaml:"cache,omitempty"`      // 缓存文件名，为空则采用默认路径{db}.{col}.yaml
	OnlyCache bool    `yaml:"only_cache,omitempty"` // 只从缓存中获取
	File      string  `yaml:"file,omitempty"`       // 文件路径（优先级高于MongoDB）
	IDs       []int32 `yaml:"ids,omitempty"`        // 只加载指定ID的车辆，为空则全部加载
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// GetCachePath 获取缓存文件路径
// 说明：未指定时使用默认命名规则：{数据库名}.{集合名}.yaml
func (p InputPath) GetCachePath() string {
	if p.Cache != "" {
		return p.Cache
	}
	return p.DB + "." + p.Col + ".yaml"
}

// Input 指定模拟器所有输入数据的配置项
type Input struct {
	URI      string    `yaml:"uri,omitempty"` // MongoDB连接字符串
	Scenario InputPath `yaml:"scenario"`      // 车辆生成记录
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Generate 随机生成车辆记录的配置项
type Generate struct {
	Rate       float64   `yaml:"rate"`                 // 每步的到达率
	Ticks      int32     `yaml:"ticks"`                // 生成车辆的时间范围[0, ticks)
	Intentions []float64 `yaml:"intentions,omitempty"` // 左转、直行、右转的权重，为空时等概率
}

// Control 模拟器控制配置
type Control struct {
	Step       ControlStep `yaml:"step"`
	SpeedScale float64     `yaml:"speed_scale,omitempty"` // 速度到画布距离的放大系数
	Seed       uint64      `yaml:"seed,omitempty"`        // 随机种子
	MaxAgents  int         `yaml:"max_agents,omitempty"`  // 同时在场车辆上限，0表示不限
	Generate   Generate    `yaml:"generate,omitempty"`
}

// Bound 轴对齐矩形
type Bound struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

// IsZero 是否未配置
func (b Bound) IsZero() bool {
	return b == Bound{}
}

// Junction 路口几何配置
type Junction struct {
	Outer       Bound     `yaml:"outer,omitempty"`        // 外边界（通信范围）
	Inner       Bound     `yaml:"inner,omitempty"`        // 冲突区
	Lines       []float64 `yaml:"lines,omitempty"`        // 南、东、北、西进口车道中心线坐标
	SpawnMargin float64   `yaml:"spawn_margin,omitempty"` // 生成点到外边界的距离
}

// Vehicle 车辆参数配置
type Vehicle struct {
	MaxSpeed         float64 `yaml:"max_speed,omitempty"`
	MaxAcc           float64 `yaml:"max_acc,omitempty"`
	MinAcc           float64 `yaml:"min_acc,omitempty"` // 最大减速度（负数）
	Length           float64 `yaml:"length,omitempty"`
	Width            float64 `yaml:"width,omitempty"`
	InfoInterval     int     `yaml:"info_interval,omitempty"`     // Info消息广播间隔（步）
	ElectionInterval int     `yaml:"election_interval,omitempty"` // 协调者选举检查间隔（步）
	Sensor           string  `yaml:"sensor,omitempty"`            // 车距传感器类型：proximity或distance
}

// Output 输出配置
type Output struct {
	Report string `yaml:"report,omitempty"` // 运行报告路径，为空则不输出
}

// Config YAML配置文件的根结构
type Config struct {
	Input    Input    `yaml:"input"`              // 输入
	Control  Control  `yaml:"control"`            // 模拟过程控制
	Junction Junction `yaml:"junction,omitempty"` // 路口几何
	Vehicle  Vehicle  `yaml:"vehicle,omitempty"`  // 车辆参数
	Output   Output   `yaml:"output,omitempty"`   // 输出
}
