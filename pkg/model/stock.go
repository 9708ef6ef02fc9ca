package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChangeStatus 股价变动查询任务的生命周期状态
type ChangeStatus string

const (
	StatusPending   ChangeStatus = "pending"
	StatusCompleted ChangeStatus = "completed"
	StatusFailed    ChangeStatus = "failed"
)

// StockChangeKey 任务自然键: 股票代号 + 民国日期区间
type StockChangeKey struct {
	StockNo   string `json:"stock_no" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// StockChange 股价变动查询任务 (排程队列行)
type StockChange struct {
	ID        int          `gorm:"primaryKey" json:"id"`
	StockNo   string       `gorm:"type:varchar(10);not null;uniqueIndex:idx_stock_change_key" json:"stock_no"`
	StartDate string       `gorm:"type:varchar(7);not null;uniqueIndex:idx_stock_change_key" json:"start_date"` // 民国日期 1140504
	EndDate   string       `gorm:"type:varchar(7);not null;uniqueIndex:idx_stock_change_key" json:"end_date"`
	Status    ChangeStatus `gorm:"type:varchar(10);not null;default:pending;index" json:"status"`

	// completed 时四个字段都有值; pending/failed 保留前次部分结果不清空
	StockName  *string  `json:"stock_name,omitempty"`
	StartPrice *float64 `json:"start_price,omitempty"`
	EndPrice   *float64 `json:"end_price,omitempty"`
	Change     *float64 `json:"change,omitempty"` // end_price - start_price

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StockChange) TableName() string {
	return "stock_changes"
}

// Key 取任务自然键
func (s *StockChange) Key() StockChangeKey {
	return StockChangeKey{StockNo: s.StockNo, StartDate: s.StartDate, EndDate: s.EndDate}
}

// StockChangeInfo 完成一笔任务所需的计算结果
type StockChangeInfo struct {
	StockChangeKey
	StockName  string  `json:"stock_name"`
	StartPrice float64 `json:"start_price"`
	EndPrice   float64 `json:"end_price"`
	Change     float64 `json:"change"`
}

// StockClosingPrice 个股单日收盘价缓存行, 同一 (stock_no, date) 只覆盖不重复
type StockClosingPrice struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	StockNo    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_closing_price_key" json:"stock_no"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:idx_closing_price_key" json:"date"`
	ClosePrice float64   `gorm:"not null" json:"close_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (StockClosingPrice) TableName() string {
	return "stock_closing_prices"
}

// StockBuybackPeriod 库藏股买回期间公告, 首次写入后不再更新
type StockBuybackPeriod struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	StockNo   string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_buyback_period_key" json:"stock_no"`
	StartDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_buyback_period_key" json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null;uniqueIndex:idx_buyback_period_key" json:"end_date"`
}

func (StockBuybackPeriod) TableName() string {
	return "stock_buyback_periods"
}

// Stock 全市场日均价快照, 用于股票名称等基础资料查询
type Stock struct {
	ID                  int       `gorm:"primaryKey" json:"id"`
	Code                string    `gorm:"type:varchar(10);not null;uniqueIndex" json:"code"`
	Name                string    `gorm:"not null" json:"name"`
	ClosingPrice        float64   `json:"closing_price"`
	MonthlyAveragePrice float64   `json:"monthly_average_price"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (Stock) TableName() string {
	return "stocks"
}

// StockDayAll 全市场每日成交行情
type StockDayAll struct {
	ID               int              `gorm:"primaryKey" json:"id"`
	TradeDate        time.Time        `gorm:"type:date;not null;uniqueIndex:idx_day_all_key" json:"trade_date"`
	StockCode        string           `gorm:"type:varchar(10);not null;uniqueIndex:idx_day_all_key" json:"stock_code"`
	StockName        string           `gorm:"not null" json:"stock_name"`
	TradeVolume      *int64           `json:"trade_volume"`
	TradeAmount      *int64           `json:"trade_amount"`
	OpenPrice        *decimal.Decimal `gorm:"type:decimal(10,2)" json:"open_price"`
	HighPrice        *decimal.Decimal `gorm:"type:decimal(10,2)" json:"high_price"`
	LowPrice         *decimal.Decimal `gorm:"type:decimal(10,2)" json:"low_price"`
	ClosePrice       *decimal.Decimal `gorm:"type:decimal(10,2)" json:"close_price"`
	PriceChange      *decimal.Decimal `gorm:"type:decimal(10,2)" json:"price_change"`
	TransactionCount *int32           `json:"transaction_count"`
}

func (StockDayAll) TableName() string {
	return "stock_day_all"
}

// DayAvgResponse 证交所个股日均价API的响应结构
type DayAvgResponse struct {
	Stat   string     `json:"stat"`
	Title  string     `json:"title"`
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"` // [日期, 收盘均价], 末尾掺有月平均行
	Notes  []string   `json:"notes"`
}

// TWSEStockAvg 证交所 STOCK_DAY_AVG_ALL 开放API的原始行 (数值为字符串)
type TWSEStockAvg struct {
	Code                string `json:"Code"`
	Name                string `json:"Name"`
	ClosingPrice        string `json:"ClosingPrice"`
	MonthlyAveragePrice string `json:"MonthlyAveragePrice"`
}

// TWSEDayAll 证交所 STOCK_DAY_ALL 开放API的原始行 (数值为字符串)
type TWSEDayAll struct {
	Code         string `json:"Code"`
	Name         string `json:"Name"`
	TradeVolume  string `json:"TradeVolume"`
	TradeValue   string `json:"TradeValue"`
	OpeningPrice string `json:"OpeningPrice"`
	HighestPrice string `json:"HighestPrice"`
	LowestPrice  string `json:"LowestPrice"`
	ClosingPrice string `json:"ClosingPrice"`
	Change       string `json:"Change"`
	Transaction  string `json:"Transaction"`
}
