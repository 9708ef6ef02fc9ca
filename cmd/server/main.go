package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockRadar/pkg/api"
	"StockRadar/pkg/collector"
	"StockRadar/pkg/config"
	"StockRadar/pkg/database"
	"StockRadar/pkg/jobs"
	"StockRadar/pkg/messaging"
	"StockRadar/pkg/resolver"
	"StockRadar/pkg/scheduler"
)

func main() {
	log.Println("启动股价同步服务...")

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	// 连接数据库
	db, err := database.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("连接数据库失败: %v\n", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		log.Fatalf("同步表结构失败: %v\n", err)
	}

	// 连接NATS, 失败时降级为不发事件继续运行
	var publisher *messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = messaging.NewPublisher(cfg.NATS.URL, cfg.NATS.ClientID)
		if err != nil {
			log.Printf("警告: 连接NATS失败, 任务状态事件将不发布: %v\n", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	// 创建证交所客户端与股价查询器
	client := collector.NewTWSEClient(cfg)
	priceResolver := resolver.NewPriceResolver(db, client)

	// 注册定时任务
	sched := scheduler.NewScheduler()
	err = sched.Register(
		jobs.NewConsumeStockChangeJob(db, priceResolver, publisher,
			config.JobEnabled(cfg.Jobs.ConsumeStockChange)),
		jobs.NewStockDayAllJob(db, client,
			config.JobEnabled(cfg.Jobs.StockDayAll)),
		jobs.NewFetchClosingPricesJob(db, client,
			config.JobEnabled(cfg.Jobs.FetchClosingPrices)),
	)
	if err != nil {
		log.Fatalf("注册定时任务失败: %v\n", err)
	}
	sched.Start()

	// 创建并启动API服务器
	handlers := api.NewHandlers(db, client, sched)
	server := api.NewServer(cfg.API.Port,
		time.Duration(cfg.API.ReadTimeout), time.Duration(cfg.API.WriteTimeout))
	server.SetupRoutes(handlers)
	server.Start()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务...")

	server.Shutdown()
	sched.Stop()

	log.Println("服务已关闭")
}
