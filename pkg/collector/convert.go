package collector

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"StockRadar/pkg/model"
)

// ConvertStockAvgRows 将开放API的字符串行转为快照模型
// 解析失败的数值按 0 处理, 不中断整批
func ConvertStockAvgRows(rows []model.TWSEStockAvg) []model.Stock {
	stocks := make([]model.Stock, 0, len(rows))
	for _, row := range rows {
		stocks = append(stocks, model.Stock{
			Code:                row.Code,
			Name:                row.Name,
			ClosingPrice:        parseFloatOrZero(row.ClosingPrice),
			MonthlyAveragePrice: parseFloatOrZero(row.MonthlyAveragePrice),
		})
	}

	return stocks
}

// ConvertDayAllRows 将开放API的字符串行转为每日行情模型
// 停牌等情况数值栏为 "--", 对应字段留空
func ConvertDayAllRows(tradeDate time.Time, rows []model.TWSEDayAll) []model.StockDayAll {
	result := make([]model.StockDayAll, 0, len(rows))
	for _, row := range rows {
		if row.Code == "" {
			continue
		}

		var txCount *int32
		if n := parseInt(row.Transaction); n != nil {
			v := int32(*n)
			txCount = &v
		}

		result = append(result, model.StockDayAll{
			TradeDate:        tradeDate,
			StockCode:        row.Code,
			StockName:        row.Name,
			TradeVolume:      parseInt(row.TradeVolume),
			TradeAmount:      parseInt(row.TradeValue),
			OpenPrice:        parseDecimal(row.OpeningPrice),
			HighPrice:        parseDecimal(row.HighestPrice),
			LowPrice:         parseDecimal(row.LowestPrice),
			ClosePrice:       parseDecimal(row.ClosingPrice),
			PriceChange:      parseDecimal(row.Change),
			TransactionCount: txCount,
		})
	}

	return result
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) *int64 {
	v, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseDecimal(s string) *decimal.Decimal {
	v, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil
	}
	return &v
}
