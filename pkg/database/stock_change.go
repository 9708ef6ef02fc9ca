package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"StockRadar/pkg/model"
	"StockRadar/pkg/rocdate"
)

// 自然键 (stock_no, start_date, end_date) 的冲突目标
var stockChangeKeyColumns = []clause.Column{
	{Name: "stock_no"},
	{Name: "start_date"},
	{Name: "end_date"},
}

// StockChangeDB 股价变动任务队列
//
// 状态机: pending -> completed (成功) / pending -> failed (外部查询失败) /
// failed -> pending (人工批量重置)。completed 行不再变化, 重新提交同一自然键
// 会以 upsert 方式回到 pending 重新处理。
type StockChangeDB struct {
	db *gorm.DB
}

// Enqueue 新增一笔 pending 任务
// 同键已有 pending 行时直接返回该行; 其余情况以自然键 upsert 回 pending
func (s *StockChangeDB) Enqueue(key model.StockChangeKey) (*model.StockChange, error) {
	var existing model.StockChange
	err := s.db.Where(
		"stock_no = ? AND start_date = ? AND end_date = ? AND status = ?",
		key.StockNo, key.StartDate, key.EndDate, model.StatusPending,
	).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}

	change := model.StockChange{
		StockNo:   key.StockNo,
		StartDate: key.StartDate,
		EndDate:   key.EndDate,
		Status:    model.StatusPending,
	}
	// 同键已完成的行重新排入 pending, 保留前次价格字段
	err = s.db.Clauses(clause.OnConflict{
		Columns: stockChangeKeyColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     model.StatusPending,
			"updated_at": time.Now(),
		}),
	}).Create(&change).Error
	if err != nil {
		return nil, fmt.Errorf("新增任务失败: %w", err)
	}

	return &change, nil
}

// BulkInsertPending 批量写入 pending 任务, 已存在的键忽略
func (s *StockChangeDB) BulkInsertPending(keys []model.StockChangeKey) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	changes := make([]model.StockChange, 0, len(keys))
	for _, key := range keys {
		changes = append(changes, model.StockChange{
			StockNo:   key.StockNo,
			StartDate: key.StartDate,
			EndDate:   key.EndDate,
			Status:    model.StatusPending,
		})
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   stockChangeKeyColumns,
		DoNothing: true,
	}).CreateInBatches(&changes, 500).Error
	if err != nil {
		return 0, fmt.Errorf("批量写入任务失败: %w", err)
	}

	return len(changes), nil
}

// DequeueOnePending 取一笔可处理的 pending 任务, 没有则返回 nil
//
// 只取 end_date 已经到期的任务 (定宽民国日期字符串可直接按字典序比较)。
// Postgres 上加 FOR UPDATE SKIP LOCKED, 多实例并发时同一行不会被重复取走。
func (s *StockChangeDB) DequeueOnePending() (*model.StockChange, error) {
	var change model.StockChange

	err := s.db.Transaction(func(tx *gorm.DB) error {
		query := tx.Where(
			"status = ? AND end_date <= ?",
			model.StatusPending, rocdate.Today(),
		)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{
				Strength: clause.LockingStrengthUpdate,
				Options:  clause.LockingOptionsSkipLocked,
			})
		}
		return query.First(&change).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("取出待处理任务失败: %w", err)
	}

	return &change, nil
}

// MarkCompleted 以计算结果完成任务, 幂等 upsert
// 重复调用同样输入只会留下一行, 终值等于最后一次的参数
func (s *StockChangeDB) MarkCompleted(info model.StockChangeInfo) error {
	change := model.StockChange{
		StockNo:    info.StockNo,
		StartDate:  info.StartDate,
		EndDate:    info.EndDate,
		Status:     model.StatusCompleted,
		StockName:  &info.StockName,
		StartPrice: &info.StartPrice,
		EndPrice:   &info.EndPrice,
		Change:     &info.Change,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: stockChangeKeyColumns,
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "stock_name", "start_price", "end_price", "change", "updated_at",
		}),
	}).Create(&change).Error
	if err != nil {
		return fmt.Errorf("完成任务失败: %w", err)
	}

	return nil
}

// MarkFailed 将任务标记为 failed, 已填的价格字段保留
func (s *StockChangeDB) MarkFailed(key model.StockChangeKey) error {
	err := s.db.Model(&model.StockChange{}).
		Where("stock_no = ? AND start_date = ? AND end_date = ?",
			key.StockNo, key.StartDate, key.EndDate).
		Update("status", model.StatusFailed).Error
	if err != nil {
		return fmt.Errorf("标记任务失败状态失败: %w", err)
	}

	return nil
}

// ResetFailedToPending 将所有 failed 任务批量重置回 pending
func (s *StockChangeDB) ResetFailedToPending() (int64, error) {
	result := s.db.Model(&model.StockChange{}).
		Where("status = ?", model.StatusFailed).
		Update("status", model.StatusPending)
	if result.Error != nil {
		return 0, fmt.Errorf("重置失败任务失败: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// ResetOnePending 将指定任务重置回 pending 并清空计算结果
func (s *StockChangeDB) ResetOnePending(id int) error {
	result := s.db.Model(&model.StockChange{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.StatusPending,
			"stock_name":  nil,
			"start_price": nil,
			"end_price":   nil,
			"change":      nil,
		})
	if result.Error != nil {
		return fmt.Errorf("重置任务失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// GetByKey 按自然键查询任务
func (s *StockChangeDB) GetByKey(key model.StockChangeKey) (*model.StockChange, error) {
	var change model.StockChange
	err := s.db.Where(
		"stock_no = ? AND start_date = ? AND end_date = ?",
		key.StockNo, key.StartDate, key.EndDate,
	).First(&change).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}

	return &change, nil
}

// List 查询任务列表, status 为空时不过滤
func (s *StockChangeDB) List(status string) ([]model.StockChange, error) {
	var changes []model.StockChange
	query := s.db.Order("start_date DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&changes).Error; err != nil {
		return nil, fmt.Errorf("查询任务列表失败: %w", err)
	}

	return changes, nil
}
