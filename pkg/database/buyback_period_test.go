package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockRadar/pkg/model"
	"StockRadar/pkg/rocdate"
)

func TestBulkInsertDedup(t *testing.T) {
	buybacks := testDB(t).BuybackPeriods()

	keys := []model.StockChangeKey{
		{StockNo: "2330", StartDate: "1140504", EndDate: "1140704"},
		{StockNo: "2317", StartDate: "1140510", EndDate: "1140710"},
	}

	// 同一批公告重复抓两次, 不产生重复行
	_, err := buybacks.BulkInsert(keys)
	require.NoError(t, err)
	_, err = buybacks.BulkInsert(keys)
	require.NoError(t, err)

	periods, err := buybacks.List()
	require.NoError(t, err)
	assert.Len(t, periods, 2)
}

func TestBulkInsertInvalidDate(t *testing.T) {
	buybacks := testDB(t).BuybackPeriods()

	_, err := buybacks.BulkInsert([]model.StockChangeKey{
		{StockNo: "2330", StartDate: "1140230", EndDate: "1140704"},
	})
	assert.Error(t, err)
}

func TestMissingStartPrice(t *testing.T) {
	db := testDB(t)
	buybacks := db.BuybackPeriods()
	prices := db.ClosingPrices()

	past := rocdate.Format(time.Now().AddDate(0, 0, -10))
	pastEnd := rocdate.Format(time.Now().AddDate(0, 2, 0))
	future := rocdate.Format(time.Now().AddDate(0, 1, 0))
	futureEnd := rocdate.Format(time.Now().AddDate(0, 3, 0))

	_, err := buybacks.BulkInsert([]model.StockChangeKey{
		{StockNo: "2330", StartDate: past, EndDate: pastEnd},
		{StockNo: "2317", StartDate: future, EndDate: futureEnd}, // 起始日未到, 不处理
	})
	require.NoError(t, err)

	periods, err := buybacks.MissingStartPrice(10)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "2330", periods[0].StockNo)

	// 补上起始日价格后就不再出现
	startDate, err := rocdate.Parse(past)
	require.NoError(t, err)
	require.NoError(t, prices.UpsertBatch([]model.StockClosingPrice{
		{StockNo: "2330", Date: startDate, ClosePrice: 1050},
	}))

	periods, err = buybacks.MissingStartPrice(10)
	require.NoError(t, err)
	assert.Empty(t, periods)
}
