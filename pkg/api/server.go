package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server API服务器
type Server struct {
	router *gin.Engine
	srv    *http.Server
}

// NewServer 创建新的API服务器
func NewServer(port string, readTimeout, writeTimeout time.Duration) *Server {
	router := gin.Default()

	// 设置中间件
	router.Use(gin.Recovery())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return &Server{
		router: router,
		srv:    srv,
	}
}

// SetupRoutes 设置路由
func (s *Server) SetupRoutes(handlers *Handlers) {
	// 健康检查
	s.router.GET("/health", handlers.HealthCheck)

	// API v1 路由组
	v1 := s.router.Group("/api/v1")
	{
		// 股价变动任务队列
		v1.POST("/stock-changes", handlers.CreateStockChange)
		v1.GET("/stock-changes", handlers.ListStockChanges)
		v1.PATCH("/stock-changes/reset-failed", handlers.ResetFailedStockChanges)
		v1.PATCH("/stock-changes/:id/pending", handlers.ResetOneStockChange)

		// 库藏股公告
		v1.POST("/buybacks/scrape", handlers.ScrapeBuybacks)
		v1.GET("/buybacks", handlers.ListBuybackPeriods)

		// 收盘价缓存与每日行情
		v1.GET("/closing-prices", handlers.ListClosingPrices)
		v1.GET("/day-all", handlers.ListDayAll)

		// 调度器状态
		v1.GET("/jobs", handlers.ListJobs)
	}
}

// Start 启动服务器 (非阻塞)
func (s *Server) Start() {
	go func() {
		log.Printf("API服务器启动在 %s\n", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务器失败: %v\n", err)
		}
	}()
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("服务器关闭失败: %v\n", err)
		return
	}

	log.Println("服务器已关闭")
}
