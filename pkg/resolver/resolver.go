package resolver

import (
	"fmt"
	"math"
	"time"

	"StockRadar/pkg/apperrs"
	"StockRadar/pkg/collector"
	"StockRadar/pkg/database"
	"StockRadar/pkg/model"
	"StockRadar/pkg/rocdate"
)

// 查价时向前后各看几天找替代价格
const windowDays = 3

// PriceResolver 历史股价查询器
//
// 先查收盘价缓存, 在 ±3 天窗口内按 精确命中 > 向前最近 > 向后最近 的
// 优先级取价; 整个窗口都没资料才打证交所API, 把抓回的整月资料写进缓存后
// 再找一次。取不到时返回 ErrStockPriceNotFound。
type PriceResolver struct {
	prices  *database.ClosingPriceDB
	stocks  *database.StockDB
	fetcher collector.PriceFetcher

	now func() time.Time
}

// NewPriceResolver 创建历史股价查询器
func NewPriceResolver(db *database.DB, fetcher collector.PriceFetcher) *PriceResolver {
	return &PriceResolver{
		prices:  db.ClosingPrices(),
		stocks:  db.Stocks(),
		fetcher: fetcher,
		now:     time.Now,
	}
}

// ResolvePrice 查询个股在指定日期的收盘价
func (r *PriceResolver) ResolvePrice(stockNo string, date time.Time) (*model.StockClosingPrice, error) {
	date = dateOnly(date)

	// 未来日期直接拒绝, 不打外部API
	if date.After(dateOnly(r.now())) {
		return nil, fmt.Errorf("%w: 查询日期 %s 尚未到来",
			apperrs.ErrInvalidContent, date.Format("2006-01-02"))
	}

	from := date.AddDate(0, 0, -windowDays)
	to := date.AddDate(0, 0, windowDays)

	cached, err := r.prices.GetRange(stockNo, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrs.ErrInternal, err)
	}
	if price := pickClosest(cached, date); price != nil {
		return price, nil
	}

	// 缓存未命中, 打证交所拿该月整批日均价回填
	resp, err := r.fetcher.FetchDayAvg(stockNo, date.Format("20060102"))
	if err != nil {
		return nil, err
	}
	fetched := collector.ParseDayAvgResponse(resp, stockNo)
	if err := r.prices.UpsertBatch(fetched); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrs.ErrInternal, err)
	}

	if price := pickClosest(inWindow(fetched, from, to), date); price != nil {
		return price, nil
	}

	return nil, fmt.Errorf("%w: %s %s",
		apperrs.ErrStockPriceNotFound, stockNo, date.Format("2006-01-02"))
}

// ResolveChange 计算一笔任务的起讫价格与价差
func (r *PriceResolver) ResolveChange(key model.StockChangeKey) (*model.StockChangeInfo, error) {
	startDate, err := rocdate.Parse(key.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := rocdate.Parse(key.EndDate)
	if err != nil {
		return nil, err
	}

	startPrice, err := r.ResolvePrice(key.StockNo, startDate)
	if err != nil {
		return nil, err
	}
	endPrice, err := r.ResolvePrice(key.StockNo, endDate)
	if err != nil {
		return nil, err
	}

	// 股票名称取自全市场快照, 快照还没有这档股票时先用代号占位
	name := key.StockNo
	if stock, err := r.stocks.GetByCode(key.StockNo); err == nil && stock != nil {
		name = stock.Name
	}

	change := math.Round((endPrice.ClosePrice-startPrice.ClosePrice)*100) / 100

	return &model.StockChangeInfo{
		StockChangeKey: key,
		StockName:      name,
		StartPrice:     startPrice.ClosePrice,
		EndPrice:       endPrice.ClosePrice,
		Change:         change,
	}, nil
}

// pickClosest 按 精确命中 > 向前最近 > 向后最近 取价
// 向前的价格反映参考时点之前的市况, 作为替代值比向后的价格保守
func pickClosest(rows []model.StockClosingPrice, date time.Time) *model.StockClosingPrice {
	var before, after *model.StockClosingPrice
	for i := range rows {
		d := dateOnly(rows[i].Date)
		switch {
		case d.Equal(date):
			return &rows[i]
		case d.Before(date):
			if before == nil || d.After(dateOnly(before.Date)) {
				before = &rows[i]
			}
		default:
			if after == nil || d.Before(dateOnly(after.Date)) {
				after = &rows[i]
			}
		}
	}

	if before != nil {
		return before
	}
	return after
}

// inWindow 过滤出窗口内的行
func inWindow(rows []model.StockClosingPrice, from, to time.Time) []model.StockClosingPrice {
	var result []model.StockClosingPrice
	for _, row := range rows {
		d := dateOnly(row.Date)
		if !d.Before(from) && !d.After(to) {
			result = append(result, row)
		}
	}
	return result
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
