package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB 建一个内存sqlite供仓库层测试
func testDB(t *testing.T) *DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// 内存库只允许单连接, 避免每个连接各自一份空库
	sqlDB.SetMaxOpenConns(1)

	db := NewWithGorm(gdb)
	require.NoError(t, db.AutoMigrate())

	return db
}
