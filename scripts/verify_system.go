package main

import (
	"log"
	"os"
	"time"

	"StockRadar/pkg/collector"
	"StockRadar/pkg/config"
	"StockRadar/pkg/database"
	"StockRadar/pkg/messaging"
	"StockRadar/pkg/model"
	"StockRadar/pkg/resolver"
	"StockRadar/pkg/rocdate"
)

func main() {
	log.Println("开始系统验证...")

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/dev/app.yaml"
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
		log.Fatalf("迁移数据库失败: %v\n", err)
	}

	// 创建NATS发布器
	publisher, err := messaging.NewPublisher(cfg.NATS.URL, cfg.NATS.ClientID+"-verifier")
	if err != nil {
		log.Printf("连接NATS失败: %v, 跳过NATS相关测试\n", err)
	} else {
		defer publisher.Close()
	}

	// 创建证交所客户端
	client := collector.NewTWSEClient(cfg)

	// 测试民国日期转换
	testROCDate()

	// 测试证交所数据采集
	testDataCollection(client)

	// 测试任务队列
	testStockChangeQueue(db)

	// 测试股价解析
	testResolver(db, client)

	// 测试NATS（如果可用）
	if publisher != nil {
		testNATS(publisher)
	}

	log.Println("系统验证完成")
}

// 测试民国日期转换
func testROCDate() {
	log.Println("测试民国日期转换...")

	today := rocdate.Today()
	date, err := rocdate.Parse(today)
	if err != nil {
		log.Printf("解析今天的民国日期失败: %v\n", err)
		return
	}
	log.Printf("今天: %s (民国 %s)\n", date.Format("2006-01-02"), today)
	log.Printf("三个月后: %s\n", rocdate.MonthsFromNow(3))
}

// 测试证交所数据采集
func testDataCollection(client *collector.TWSEClient) {
	log.Println("测试证交所数据采集...")

	stocks, err := client.FetchStockDayAvgAll()
	if err != nil {
		log.Printf("抓取全市场日均价失败: %v\n", err)
		return
	}
	log.Printf("成功获取%d档股票快照\n", len(stocks))

	d1 := rocdate.Today()
	d2 := rocdate.MonthsFromNow(3)
	html, err := client.FetchBuybackListing(d1, d2)
	if err != nil {
		log.Printf("抓取库藏股公告失败: %v\n", err)
		return
	}

	records := collector.ParseBuybackListing(html)
	log.Printf("区间 %s ~ %s 共解析出%d笔买回公告\n", d1, d2, len(records))
}

// 测试任务队列
func testStockChangeQueue(db *database.DB) {
	log.Println("测试任务队列...")

	key := model.StockChangeKey{
		StockNo:   "2330",
		StartDate: rocdate.Format(time.Now().AddDate(0, -2, 0)),
		EndDate:   rocdate.Format(time.Now().AddDate(0, 0, -1)),
	}

	change, err := db.StockChanges().Enqueue(key)
	if err != nil {
		log.Printf("入队失败: %v\n", err)
		return
	}
	log.Printf("入队成功: id=%d, status=%s\n", change.ID, change.Status)

	dequeued, err := db.StockChanges().DequeueOnePending()
	if err != nil {
		log.Printf("出队失败: %v\n", err)
		return
	}
	if dequeued == nil {
		log.Println("队列中没有可处理的任务")
		return
	}
	log.Printf("出队成功: %s %s~%s\n", dequeued.StockNo, dequeued.StartDate, dequeued.EndDate)

	// 清理测试任务
	if err := db.StockChanges().ResetOnePending(dequeued.ID); err != nil {
		log.Printf("重置测试任务失败: %v\n", err)
	}
}

// 测试股价解析
func testResolver(db *database.DB, client *collector.TWSEClient) {
	log.Println("测试股价解析...")

	r := resolver.NewPriceResolver(db, client)
	date := time.Now().AddDate(0, 0, -7)

	price, err := r.ResolvePrice("2330", date)
	if err != nil {
		log.Printf("查价失败: %v\n", err)
		return
	}
	log.Printf("2330 在 %s 附近的收盘价: %.2f (%s)\n",
		date.Format("2006-01-02"), price.ClosePrice, price.Date.Format("2006-01-02"))
}

// 测试NATS
func testNATS(publisher *messaging.Publisher) {
	log.Println("测试NATS消息队列...")

	key := model.StockChangeKey{
		StockNo:   "2330",
		StartDate: "1140504",
		EndDate:   "1140704",
	}
	change := 50.5
	event := model.NewStockChangeEvent(key, model.StatusCompleted, &change)

	if err := publisher.PublishChangeEvent(event); err != nil {
		log.Printf("发布任务状态事件失败: %v\n", err)
		return
	}
	log.Println("发布任务状态事件成功")
}
