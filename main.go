package main

import (
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
	"github.com/tsinghua-fib-lab/crossing-sim/task"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/config"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/input"
	"github.com/tsinghua-fib-lab/crossing-sim/utils/randengine"
	"gopkg.in/yaml.v2"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 数据加载input的缓存地址，设置为空则禁用缓存功能
	// 缓存：将生成记录根据数据库db和col序列化到本地文件系统，并总是先试图从文件系统中加载
	cacheDir = flag.String("cache", "data/", "input cache dir path (empty means disable cache)")
	// 只生成车辆记录并写入该路径，不运行模拟
	generatePath = flag.String("generate", "", "generate spawn records into this file and exit")
	// 运行报告输出路径，覆盖配置中的output.report
	outputPath = flag.String("output", "", "report output path (overrides output.report)")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "crossing")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", c)

	if *generatePath != "" {
		generate(c, *generatePath)
		return
	}

	var scenario *input.Scenario
	if c.Input.Scenario.File == "" && c.Input.Scenario.Col == "" && c.Control.Generate.Rate > 0 {
		scenario = newScenario(c)
	} else if scenario, err = input.Init(c, *cacheDir); err != nil {
		log.Panicf("input load err: %v", err)
	}

	t, err := task.NewContext(c, scenario)
	if err != nil {
		log.Panicf("task init err: %v", err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		log.Warnf("received %v, stopping", sig)
		t.Close()
	}()

	report := t.Run()
	log.Infof("spawned %d, exited %d, collisions %d", report.Spawned, report.Exited, len(report.Collisions))

	path := c.Output.Report
	if *outputPath != "" {
		path = *outputPath
	}
	if path != "" {
		if err := report.WriteFile(path); err != nil {
			log.Panicf("report write err: %v", err)
		}
		log.Infof("report written to %s", path)
	}
}

// newScenario 按control.generate随机生成车辆记录
func newScenario(c config.Config) *input.Scenario {
	layout, err := task.NewLayout(config.NewRuntimeConfig(c).J)
	if err != nil {
		log.Panicf("junction init err: %v", err)
	}
	return input.Generate(layout, c.Control.Generate, randengine.New(c.Control.Seed))
}

// generate 生成车辆记录写入文件，配置了MongoDB集合时同时上传
func generate(c config.Config, path string) {
	s := newScenario(c)
	if err := s.WriteFile(path); err != nil {
		log.Panicf("scenario write err: %v", err)
	}
	log.Infof("%d spawn records written to %s", len(s.Cars), path)
	if c.Input.URI != "" && c.Input.Scenario.DB != "" && c.Input.Scenario.Col != "" {
		if err := input.Save(c.Input.URI, c.Input.Scenario, s); err != nil {
			log.Panicf("scenario upload err: %v", err)
		}
	}
}
