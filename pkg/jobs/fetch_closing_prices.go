package jobs

import (
	"log"

	"StockRadar/pkg/collector"
	"StockRadar/pkg/database"
)

// FetchClosingPricesJob 每分钟回填一档缺起始日价格的库藏股标的
// 一次只处理一档, 靠固定节奏慢慢补齐, 避免对证交所打太多请求
type FetchClosingPricesJob struct {
	buybacks *database.BuybackPeriodDB
	prices   *database.ClosingPriceDB
	fetcher  collector.PriceFetcher
	enabled  bool
}

// NewFetchClosingPricesJob 创建历史收盘价回填job
func NewFetchClosingPricesJob(db *database.DB, fetcher collector.PriceFetcher, enabled bool) *FetchClosingPricesJob {
	return &FetchClosingPricesJob{
		buybacks: db.BuybackPeriods(),
		prices:   db.ClosingPrices(),
		fetcher:  fetcher,
		enabled:  enabled,
	}
}

func (j *FetchClosingPricesJob) Name() string {
	return "fetch_closing_prices"
}

func (j *FetchClosingPricesJob) CronExpression() string {
	return "30 * * * * *" // 每分钟执行一次, 与消费job错开半分钟
}

func (j *FetchClosingPricesJob) Enabled() bool {
	return j.enabled
}

// Run 定时打外部API取历史收盘价
func (j *FetchClosingPricesJob) Run() {
	periods, err := j.buybacks.MissingStartPrice(1)
	if err != nil {
		log.Printf("查询缺起始价的买回期间失败: %v\n", err)
		return
	}
	if len(periods) == 0 {
		return
	}

	period := periods[0]
	date := period.StartDate.Format("20060102")

	resp, err := j.fetcher.FetchDayAvg(period.StockNo, date)
	if err != nil {
		log.Printf("抓取日均价失败: %v, stock_no: %s, date: %s\n", err, period.StockNo, date)
		return
	}

	// 一次外部调用拿到整月资料, 全部写进缓存
	prices := collector.ParseDayAvgResponse(resp, period.StockNo)
	if err := j.prices.UpsertBatch(prices); err != nil {
		log.Printf("写入收盘价失败: %v\n", err)
		return
	}

	log.Printf("%s %s 收盘价回填成功, 共 %d 笔\n", period.StockNo, date, len(prices))
}
