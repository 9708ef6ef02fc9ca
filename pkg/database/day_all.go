package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"StockRadar/pkg/model"
)

// DayAllDB 全市场每日成交行情
type DayAllDB struct {
	db *gorm.DB
}

// UpsertBatch 批量 upsert 行情, 以 (trade_date, stock_code) 为冲突键
func (d *DayAllDB) UpsertBatch(rows []model.StockDayAll) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	err := d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "trade_date"}, {Name: "stock_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stock_name", "trade_volume", "trade_amount",
			"open_price", "high_price", "low_price", "close_price",
			"price_change", "transaction_count",
		}),
	}).CreateInBatches(&rows, 500).Error
	if err != nil {
		return 0, fmt.Errorf("写入每日行情失败: %w", err)
	}

	return len(rows), nil
}

// List 查询行情, 代号与交易日皆为可选条件
func (d *DayAllDB) List(stockCode string, tradeDate *time.Time) ([]model.StockDayAll, error) {
	var rows []model.StockDayAll
	query := d.db.Order("trade_date DESC")
	if stockCode != "" {
		query = query.Where("stock_code = ?", stockCode)
	}
	if tradeDate != nil {
		query = query.Where("trade_date = ?", *tradeDate)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询每日行情失败: %w", err)
	}

	return rows, nil
}
