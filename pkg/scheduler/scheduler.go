package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Job 定时任务
// cron表达式为带秒的六段格式; Run 内部必须自行兜住瞬时错误, 只记日志不panic,
// 队列状态留给下一轮tick重试
type Job interface {
	Name() string
	CronExpression() string
	Enabled() bool
	Run()
}

// Scheduler 任务调度器
// 在启动阶段构建的显式注册表, 不依赖进程级全局状态; 各任务彼此并发执行,
// 单一任务自身的tick不重叠
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

// NewScheduler 创建任务调度器
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
	}
}

// Register 注册任务, 未启用的任务记日志后跳过
func (s *Scheduler) Register(jobs ...Job) error {
	logger := cron.PrintfLogger(log.Default())

	for _, job := range jobs {
		if !job.Enabled() {
			log.Printf("任务 %s 未启用, 跳过注册\n", job.Name())
			continue
		}

		wrapped := cron.NewChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		).Then(cron.FuncJob(job.Run))

		if _, err := s.cron.AddJob(job.CronExpression(), wrapped); err != nil {
			return fmt.Errorf("注册任务 %s 失败: %w", job.Name(), err)
		}

		s.jobs = append(s.jobs, job)
		log.Printf("任务 %s 已注册 (%s)\n", job.Name(), job.CronExpression())
	}

	return nil
}

// Jobs 返回已注册的任务列表
func (s *Scheduler) Jobs() []Job {
	return s.jobs
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度器, 等待执行中的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
