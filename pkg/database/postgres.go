package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"StockRadar/pkg/config"
	"StockRadar/pkg/model"
)

// DB 数据库连接
type DB struct {
	db *gorm.DB
}

// NewPostgres 创建新的Postgres连接
func NewPostgres(cfg *config.Config) (*DB, error) {
	pgCfg := cfg.Database.Postgres

	// 构建连接字符串
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pgCfg.Host, pgCfg.Port, pgCfg.User, pgCfg.Password, pgCfg.DBName, pgCfg.SSLMode,
	)

	// 连接数据库
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("测试数据库连接失败: %w", err)
	}

	return &DB{db: db}, nil
}

// NewWithGorm 用现成的gorm连接构建, 测试用
func NewWithGorm(db *gorm.DB) *DB {
	return &DB{db: db}
}

// AutoMigrate 同步表结构
func (d *DB) AutoMigrate() error {
	return d.db.AutoMigrate(
		&model.StockChange{},
		&model.StockClosingPrice{},
		&model.StockBuybackPeriod{},
		&model.Stock{},
		&model.StockDayAll{},
	)
}

// Close 关闭数据库连接
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StockChanges 股价变动任务队列
func (d *DB) StockChanges() *StockChangeDB {
	return &StockChangeDB{db: d.db}
}

// ClosingPrices 收盘价缓存
func (d *DB) ClosingPrices() *ClosingPriceDB {
	return &ClosingPriceDB{db: d.db}
}

// BuybackPeriods 库藏股买回期间
func (d *DB) BuybackPeriods() *BuybackPeriodDB {
	return &BuybackPeriodDB{db: d.db}
}

// Stocks 全市场日均价快照
func (d *DB) Stocks() *StockDB {
	return &StockDB{db: d.db}
}

// DayAll 全市场每日成交行情
func (d *DB) DayAll() *DayAllDB {
	return &DayAllDB{db: d.db}
}
