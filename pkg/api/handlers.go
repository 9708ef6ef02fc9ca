package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"StockRadar/pkg/apperrs"
	"StockRadar/pkg/collector"
	"StockRadar/pkg/database"
	"StockRadar/pkg/model"
	"StockRadar/pkg/rocdate"
	"StockRadar/pkg/scheduler"
)

// Handlers API处理程序
type Handlers struct {
	db        *database.DB
	client    *collector.TWSEClient
	scheduler *scheduler.Scheduler
}

// NewHandlers 创建新的API处理程序
func NewHandlers(db *database.DB, client *collector.TWSEClient, sched *scheduler.Scheduler) *Handlers {
	return &Handlers{
		db:        db,
		client:    client,
		scheduler: sched,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// CreateStockChange 新增 pending 的股价变动查询任务
func (h *Handlers) CreateStockChange(c *gin.Context) {
	var req model.StockChangeKey
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	if err := rocdate.Validate(req.StartDate); err != nil {
		abortWithError(c, err)
		return
	}
	if err := rocdate.Validate(req.EndDate); err != nil {
		abortWithError(c, err)
		return
	}

	change, err := h.db.StockChanges().Enqueue(req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": change,
	})
}

// ListStockChanges 查询任务列表, 可按 status 过滤
func (h *Handlers) ListStockChanges(c *gin.Context) {
	changes, err := h.db.StockChanges().List(c.Query("status"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": changes,
	})
}

// ResetFailedStockChanges 将所有 failed 任务批量重置回 pending
func (h *Handlers) ResetFailedStockChanges(c *gin.Context) {
	count, err := h.db.StockChanges().ResetFailedToPending()
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"reset":  count,
	})
}

// ResetOneStockChange 将指定任务重置回 pending 并清空计算结果
func (h *Handlers) ResetOneStockChange(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的任务ID",
		})
		return
	}

	if err := h.db.StockChanges().ResetOnePending(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			abortWithError(c, apperrs.ErrNotFound)
			return
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
	})
}

// ScrapeRequest 库藏股公告抓取请求
type ScrapeRequest struct {
	StartDate string `json:"start_date" binding:"required"` // 民国日期 1140504
	EndDate   string `json:"end_date" binding:"required"`
}

// ScrapeBuybacks 依指定区间抓取库藏股公告并入库
func (h *Handlers) ScrapeBuybacks(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	startDate, err := rocdate.Parse(req.StartDate)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := rocdate.Validate(req.EndDate); err != nil {
		abortWithError(c, err)
		return
	}
	// 查询窗口的起点不能在未来
	if startDate.After(time.Now()) {
		abortWithError(c, fmt.Errorf("%w: 起始日期 %s 尚未到来",
			apperrs.ErrInvalidContent, req.StartDate))
		return
	}

	html, err := h.client.FetchBuybackListing(req.StartDate, req.EndDate)
	if err != nil {
		abortWithError(c, err)
		return
	}

	records := collector.ParseBuybackListing(html)

	// 买回期间与待查询任务都批次写入, 重复键各自忽略
	if _, err := h.db.BuybackPeriods().BulkInsert(records); err != nil {
		abortWithError(c, err)
		return
	}
	if _, err := h.db.StockChanges().BulkInsertPending(records); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": records,
	})
}

// ListBuybackPeriods 查询买回期间列表
func (h *Handlers) ListBuybackPeriods(c *gin.Context) {
	periods, err := h.db.BuybackPeriods().List()
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": periods,
	})
}

// ListClosingPrices 查询收盘价缓存
func (h *Handlers) ListClosingPrices(c *gin.Context) {
	prices, err := h.db.ClosingPrices().ListByStock(c.Query("stock_no"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": prices,
	})
}

// ListDayAll 查询每日行情
func (h *Handlers) ListDayAll(c *gin.Context) {
	var tradeDate *time.Time
	if raw := c.Query("trade_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "无效的交易日期: " + raw,
			})
			return
		}
		tradeDate = &parsed
	}

	rows, err := h.db.DayAll().List(c.Query("stock_code"), tradeDate)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": rows,
	})
}

// JobStatus 调度器任务状态
type JobStatus struct {
	Name           string `json:"name"`
	CronExpression string `json:"cron_expression"`
}

// ListJobs 查看已注册的定时任务
func (h *Handlers) ListJobs(c *gin.Context) {
	var statuses []JobStatus
	for _, job := range h.scheduler.Jobs() {
		statuses = append(statuses, JobStatus{
			Name:           job.Name(),
			CronExpression: job.CronExpression(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"data": statuses,
	})
}

// abortWithError 按错误分类返回对应状态码
func abortWithError(c *gin.Context, err error) {
	c.JSON(apperrs.HTTPStatus(err), gin.H{
		"error": err.Error(),
	})
}
