package model

import (
	"time"

	"github.com/google/uuid"
)

// StockChangeEvent 任务状态变更事件, 发布到NATS供下游订阅
type StockChangeEvent struct {
	ID        string       `json:"id"`
	StockNo   string       `json:"stock_no"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Status    ChangeStatus `json:"status"`
	Change    *float64     `json:"change,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewStockChangeEvent 创建任务状态变更事件
func NewStockChangeEvent(key StockChangeKey, status ChangeStatus, change *float64) StockChangeEvent {
	return StockChangeEvent{
		ID:        uuid.New().String(),
		StockNo:   key.StockNo,
		StartDate: key.StartDate,
		EndDate:   key.EndDate,
		Status:    status,
		Change:    change,
		Timestamp: time.Now(),
	}
}
