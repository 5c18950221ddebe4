package task

import (
	"flag"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：输出心跳日志，回收驶出车辆并生成到期车辆
func (ctx *Context) prepare() {
	step := ctx.clock.InternalStep
	if *heartBeatInterval > 0 && step%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		log.Infof(
			"STEP: %d(%d:%d:%.2f)",
			step,
			hour, minute, second,
		)
	}
	ctx.carManager.Prepare(step)
	log.Debugf("step %d: prepare complete", step)
}

// update 更新阶段，每步执行一次
// 算法说明：
// 1. 信道开始新一轮，投递上一轮排队的延迟类消息
// 2. 按生成顺序逐车推进，立即类消息在推进过程中同步投递
// 3. 检查车身重叠
func (ctx *Context) update() {
	ctx.channel.DoRound()
	ctx.carManager.Update()
	ctx.detectCollisions()
	for _, c := range ctx.carManager.Cars() {
		log.Tracef("step %d: %+v", ctx.clock.InternalStep, c.Snapshot())
	}
}

// Step 执行一步模拟并推进时钟
func (ctx *Context) Step() {
	ctx.prepare()
	ctx.update()
	ctx.clock.Tick()
}

// Finished 所有车辆都已生成并驶出
func (ctx *Context) Finished() bool {
	return ctx.carManager.Pending() == 0 && ctx.carManager.Live() == 0
}

// Run 运行
// 功能：初始化后逐步模拟，直到到达结束步、所有车辆驶出或被Close
// 返回：运行报告
func (ctx *Context) Run() *Report {
	ctx.Init()
	for !ctx.clock.Done() && !ctx.closed.Load() {
		ctx.Step()
		if ctx.Finished() {
			log.Infof("all %d cars exited at step %d", ctx.carManager.Spawned(), ctx.clock.InternalStep)
			break
		}
	}
	log.Infof("engine complete")
	return ctx.Report()
}
