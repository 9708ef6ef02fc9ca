package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"StockRadar/pkg/model"
)

// StockDB 全市场日均价快照
type StockDB struct {
	db *gorm.DB
}

// SaveBatch 批量 upsert 快照, 以股票代号为冲突键
func (s *StockDB) SaveBatch(stocks []model.Stock) (int, error) {
	if len(stocks) == 0 {
		return 0, nil
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "closing_price", "monthly_average_price", "updated_at",
		}),
	}).CreateInBatches(&stocks, 500).Error
	if err != nil {
		return 0, fmt.Errorf("写入股票快照失败: %w", err)
	}

	return len(stocks), nil
}

// GetByCode 按代号查询, 查无返回 nil
func (s *StockDB) GetByCode(code string) (*model.Stock, error) {
	var stock model.Stock
	err := s.db.Where("code = ?", code).First(&stock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询股票失败: %w", err)
	}

	return &stock, nil
}
