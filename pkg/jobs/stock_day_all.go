package jobs

import (
	"log"
	"time"

	"StockRadar/pkg/collector"
	"StockRadar/pkg/database"
	"StockRadar/pkg/rocdate"
)

// StockDayAllJob 每天两次同步全市场行情并抓取库藏股公告
//
// 先刷新日均价快照与每日成交行情, 再抓 [今天, 三个月后] 的库藏股买回
// 公告写进买回期间表 (首次写入后不更新)。三段工作互相独立, 任一段失败
// 不影响其余两段。
type StockDayAllJob struct {
	client   *collector.TWSEClient
	stocks   *database.StockDB
	dayAll   *database.DayAllDB
	buybacks *database.BuybackPeriodDB
	enabled  bool
}

// NewStockDayAllJob 创建全市场同步job
func NewStockDayAllJob(db *database.DB, client *collector.TWSEClient, enabled bool) *StockDayAllJob {
	return &StockDayAllJob{
		client:   client,
		stocks:   db.Stocks(),
		dayAll:   db.DayAll(),
		buybacks: db.BuybackPeriods(),
		enabled:  enabled,
	}
}

func (j *StockDayAllJob) Name() string {
	return "stock_day_all"
}

func (j *StockDayAllJob) CronExpression() string {
	return "0 0 8,20 * * *" // UTC+8 的 16:00 & 04:00 执行
}

func (j *StockDayAllJob) Enabled() bool {
	return j.enabled
}

func (j *StockDayAllJob) Run() {
	j.syncStockAvgSnapshot()
	j.syncDayAll()
	j.syncBuybackPeriods()
}

// syncStockAvgSnapshot 刷新全市场日均价快照
func (j *StockDayAllJob) syncStockAvgSnapshot() {
	rows, err := j.client.FetchStockDayAvgAll()
	if err != nil {
		log.Printf("抓取全市场日均价失败: %v\n", err)
		return
	}

	count, err := j.stocks.SaveBatch(collector.ConvertStockAvgRows(rows))
	if err != nil {
		log.Printf("写入股票快照失败: %v\n", err)
		return
	}
	log.Printf("股票快照同步成功, 共 %d 档\n", count)
}

// syncDayAll 同步全市场每日成交行情
func (j *StockDayAllJob) syncDayAll() {
	rows, err := j.client.FetchStockDayAll()
	if err != nil {
		log.Printf("抓取每日行情失败: %v\n", err)
		return
	}

	count, err := j.dayAll.UpsertBatch(collector.ConvertDayAllRows(time.Now(), rows))
	if err != nil {
		log.Printf("写入每日行情失败: %v\n", err)
		return
	}
	log.Printf("每日行情同步成功, 共 %d 笔\n", count)
}

// syncBuybackPeriods 抓未来三个月内的库藏股买回公告
func (j *StockDayAllJob) syncBuybackPeriods() {
	d1 := rocdate.Today()
	d2 := rocdate.MonthsFromNow(3)

	html, err := j.client.FetchBuybackListing(d1, d2)
	if err != nil {
		log.Printf("抓取库藏股公告失败: %v\n", err)
		return
	}

	records := collector.ParseBuybackListing(html)
	if _, err := j.buybacks.BulkInsert(records); err != nil {
		log.Printf("写入买回期间失败: %v\n", err)
		return
	}
	log.Printf("库藏股公告同步成功, 区间 %s ~ %s, 共 %d 笔\n", d1, d2, len(records))
}
