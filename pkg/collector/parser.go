package collector

import (
	"log"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"StockRadar/pkg/model"
	"StockRadar/pkg/rocdate"
)

// 公告列表一行至少要有11格, 代号在第2格, 买回起讫日在第10/11格
const minBuybackCells = 11

// ParseBuybackListing 解析库藏股买回公告HTML为任务键列表
// 格数不足或字段为空的行直接跳过, 部分坏行不会中断整批解析
func ParseBuybackListing(html string) []model.StockChangeKey {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("解析公告HTML失败: %v\n", err)
		return nil
	}

	// 正常情况资料行带 odd/even class, 退化时退回抓所有 tr
	rowSelector, err := cascadia.Compile("tr.odd, tr.even")
	if err != nil {
		log.Printf("编译行选择器失败: %v\n", err)
		rowSelector = cascadia.MustCompile("tr")
	}

	var records []model.StockChangeKey
	doc.FindMatcher(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minBuybackCells {
			return
		}

		cellText := func(index int) string {
			return strings.TrimSpace(cells.Eq(index).Text())
		}

		stockNo := cellText(1)
		startDate := strings.ReplaceAll(cellText(9), "/", "")
		endDate := strings.ReplaceAll(cellText(10), "/", "")

		if stockNo == "" || startDate == "" || endDate == "" {
			return
		}

		records = append(records, model.StockChangeKey{
			StockNo:   stockNo,
			StartDate: startDate,
			EndDate:   endDate,
		})
	})

	return records
}

// ParseDayAvgResponse 解析个股日均价响应为收盘价缓存行
// data 末尾的月平均行与无法解析的行一律跳过, 输出顺序不保证有序
func ParseDayAvgResponse(resp *model.DayAvgResponse, stockNo string) []model.StockClosingPrice {
	if resp == nil {
		return nil
	}

	var prices []model.StockClosingPrice
	for _, row := range resp.Data {
		// 正常行固定是 [日期, 收盘均价] 两栏
		if len(row) != 2 {
			continue
		}

		date, err := rocdate.Parse(strings.ReplaceAll(row[0], "/", ""))
		if err != nil {
			continue
		}

		price, err := strconv.ParseFloat(strings.ReplaceAll(row[1], ",", ""), 64)
		if err != nil {
			continue
		}

		prices = append(prices, model.StockClosingPrice{
			StockNo:    stockNo,
			Date:       date,
			ClosePrice: price,
		})
	}

	return prices
}
