package jobs

import (
	"log"

	"StockRadar/pkg/database"
	"StockRadar/pkg/messaging"
	"StockRadar/pkg/model"
	"StockRadar/pkg/resolver"
)

// ConsumeStockChangeJob 每分钟消费一笔 pending 的股价变动任务
// 查价成功写回 completed, 失败标记 failed 等待人工重置; 任何错误只记日志
type ConsumeStockChangeJob struct {
	queue     *database.StockChangeDB
	resolver  *resolver.PriceResolver
	publisher *messaging.Publisher
	enabled   bool
}

// NewConsumeStockChangeJob 创建任务消费job
func NewConsumeStockChangeJob(
	db *database.DB,
	priceResolver *resolver.PriceResolver,
	publisher *messaging.Publisher,
	enabled bool,
) *ConsumeStockChangeJob {
	return &ConsumeStockChangeJob{
		queue:     db.StockChanges(),
		resolver:  priceResolver,
		publisher: publisher,
		enabled:   enabled,
	}
}

func (j *ConsumeStockChangeJob) Name() string {
	return "consume_stock_change"
}

func (j *ConsumeStockChangeJob) CronExpression() string {
	return "0 * * * * *" // 每分钟执行一次
}

func (j *ConsumeStockChangeJob) Enabled() bool {
	return j.enabled
}

// Run 取一笔待处理任务并解析起讫价格
func (j *ConsumeStockChangeJob) Run() {
	change, err := j.queue.DequeueOnePending()
	if err != nil {
		log.Printf("取出待处理任务失败: %v\n", err)
		return
	}
	if change == nil {
		return // 没有任务, 直接返回
	}

	key := change.Key()
	info, err := j.resolver.ResolveChange(key)
	if err != nil {
		log.Printf("解析股价变动失败: %v, stock_no: %s\n", err, key.StockNo)
		if err := j.queue.MarkFailed(key); err != nil {
			log.Printf("标记任务失败状态失败: %v\n", err)
		}
		j.publishEvent(key, model.StatusFailed, nil)
		return
	}

	if err := j.queue.MarkCompleted(*info); err != nil {
		log.Printf("完成任务失败: %v\n", err)
		return
	}
	j.publishEvent(key, model.StatusCompleted, &info.Change)

	log.Printf("任务完成: %s %s~%s 价差 %.2f\n",
		key.StockNo, key.StartDate, key.EndDate, info.Change)
}

// publishEvent 尽力而为地发布状态事件, 失败不影响任务结果
func (j *ConsumeStockChangeJob) publishEvent(key model.StockChangeKey, status model.ChangeStatus, change *float64) {
	if j.publisher == nil {
		return
	}
	event := model.NewStockChangeEvent(key, status, change)
	if err := j.publisher.PublishChangeEvent(event); err != nil {
		log.Printf("发布任务状态事件失败: %v\n", err)
	}
}
