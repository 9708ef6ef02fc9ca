package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name    string
	expr    string
	enabled bool
	runs    atomic.Int32
}

func (j *stubJob) Name() string           { return j.name }
func (j *stubJob) CronExpression() string { return j.expr }
func (j *stubJob) Enabled() bool          { return j.enabled }
func (j *stubJob) Run()                   { j.runs.Add(1) }

func TestRegisterSkipsDisabled(t *testing.T) {
	s := NewScheduler()

	enabled := &stubJob{name: "enabled", expr: "* * * * * *", enabled: true}
	disabled := &stubJob{name: "disabled", expr: "* * * * * *", enabled: false}

	require.NoError(t, s.Register(enabled, disabled))

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "enabled", jobs[0].Name())
}

func TestRegisterInvalidExpression(t *testing.T) {
	s := NewScheduler()

	// 五段表达式少了秒, 注册时就报错而不是启动后才发现
	bad := &stubJob{name: "bad", expr: "* * * * *", enabled: true}
	assert.Error(t, s.Register(bad))
}

func TestSchedulerRunsJob(t *testing.T) {
	s := NewScheduler()

	job := &stubJob{name: "tick", expr: "* * * * * *", enabled: true}
	require.NoError(t, s.Register(job))

	s.Start()
	time.Sleep(1500 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, job.runs.Load(), int32(1))
}
