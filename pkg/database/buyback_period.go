package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"StockRadar/pkg/model"
	"StockRadar/pkg/rocdate"
)

// BuybackPeriodDB 库藏股买回期间
// 同一 (stock_no, start_date, end_date) 只写入一次, 冲突忽略
type BuybackPeriodDB struct {
	db *gorm.DB
}

// BulkInsert 批量写入买回期间, 民国日期先转西元
func (b *BuybackPeriodDB) BulkInsert(keys []model.StockChangeKey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	periods := make([]model.StockBuybackPeriod, 0, len(keys))
	for _, key := range keys {
		startDate, err := rocdate.Parse(key.StartDate)
		if err != nil {
			return 0, err
		}
		endDate, err := rocdate.Parse(key.EndDate)
		if err != nil {
			return 0, err
		}
		periods = append(periods, model.StockBuybackPeriod{
			StockNo:   key.StockNo,
			StartDate: startDate,
			EndDate:   endDate,
		})
	}

	err := b.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "stock_no"}, {Name: "start_date"}, {Name: "end_date"},
		},
		DoNothing: true,
	}).CreateInBatches(&periods, 500).Error
	if err != nil {
		return 0, fmt.Errorf("写入买回期间失败: %w", err)
	}

	return len(periods), nil
}

// MissingStartPrice 找出起始日已到但收盘价缓存还没有起始日价格的买回期间
func (b *BuybackPeriodDB) MissingStartPrice(limit int) ([]model.StockBuybackPeriod, error) {
	var periods []model.StockBuybackPeriod
	err := b.db.Table("stock_buyback_periods AS bp").
		Select("bp.*").
		Joins("LEFT JOIN stock_closing_prices AS cp ON cp.stock_no = bp.stock_no AND cp.date = bp.start_date").
		Where("cp.id IS NULL AND bp.start_date <= ?", time.Now()).
		Limit(limit).
		Find(&periods).Error
	if err != nil {
		return nil, fmt.Errorf("查询缺起始价的买回期间失败: %w", err)
	}

	return periods, nil
}

// List 查询全部买回期间
func (b *BuybackPeriodDB) List() ([]model.StockBuybackPeriod, error) {
	var periods []model.StockBuybackPeriod
	err := b.db.Order("start_date DESC").Find(&periods).Error
	if err != nil {
		return nil, fmt.Errorf("查询买回期间失败: %w", err)
	}

	return periods, nil
}
