package car

import "math"

// Action 车辆动作
// 功能：描述一个控制器或传感器对本步加速度的建议
type Action struct {
	A float64 // 加速度

	SnapV bool    // 是否直接将速度设为V
	V     float64 // 目标速度，仅当SnapV为true时有意义
}

// noAction 不施加任何约束的动作
func noAction() Action {
	return Action{A: math.Inf(1)}
}

// Update 更新车辆动作
// 功能：采用取最小的方式设置加速度，处理多个动作的冲突
// 说明：速度吸附取最先给出的一个
func (a *Action) Update(others ...Action) {
	for _, o := range others {
		if o.A < a.A {
			a.A = o.A
		}
		if o.SnapV && !a.SnapV {
			a.SnapV = true
			a.V = o.V
		}
	}
}

// Constrained 是否给出了有限的加速度
func (a Action) Constrained() bool {
	return !math.IsInf(a.A, 1)
}
