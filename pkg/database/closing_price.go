package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"StockRadar/pkg/model"
)

// ClosingPriceDB 个股收盘价缓存
// 只通过幂等 upsert 写入, 同一 (stock_no, date) 冲突时覆盖价格, 不产生重复行
type ClosingPriceDB struct {
	db *gorm.DB
}

// UpsertBatch 批量写入收盘价
func (c *ClosingPriceDB) UpsertBatch(prices []model.StockClosingPrice) error {
	if len(prices) == 0 {
		return nil // 无资料可写入
	}

	err := c.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stock_no"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"close_price", "updated_at",
		}),
	}).CreateInBatches(&prices, 500).Error
	if err != nil {
		return fmt.Errorf("写入收盘价失败: %w", err)
	}

	return nil
}

// GetRange 查询个股一段日期区间内的收盘价, 按日期升序
func (c *ClosingPriceDB) GetRange(stockNo string, from, to time.Time) ([]model.StockClosingPrice, error) {
	var prices []model.StockClosingPrice
	err := c.db.Where("stock_no = ? AND date BETWEEN ? AND ?", stockNo, from, to).
		Order("date ASC").
		Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("查询收盘价区间失败: %w", err)
	}

	return prices, nil
}

// GetByDate 查询个股单日收盘价, 查无返回 nil
func (c *ClosingPriceDB) GetByDate(stockNo string, date time.Time) (*model.StockClosingPrice, error) {
	var price model.StockClosingPrice
	err := c.db.Where("stock_no = ? AND date = ?", stockNo, date).First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询收盘价失败: %w", err)
	}

	return &price, nil
}

// ListByStock 查询个股全部收盘价, 按日期降序
func (c *ClosingPriceDB) ListByStock(stockNo string) ([]model.StockClosingPrice, error) {
	var prices []model.StockClosingPrice
	query := c.db.Order("date DESC")
	if stockNo != "" {
		query = query.Where("stock_no = ?", stockNo)
	}
	if err := query.Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("查询收盘价列表失败: %w", err)
	}

	return prices, nil
}
