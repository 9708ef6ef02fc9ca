package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockRadar/pkg/model"
	"StockRadar/pkg/rocdate"
)

var testKey = model.StockChangeKey{
	StockNo:   "2330",
	StartDate: "1140504",
	EndDate:   "1140704",
}

func testInfo(start, end float64) model.StockChangeInfo {
	return model.StockChangeInfo{
		StockChangeKey: testKey,
		StockName:      "台积电",
		StartPrice:     start,
		EndPrice:       end,
		Change:         end - start,
	}
}

func TestEnqueueCreatesPending(t *testing.T) {
	queue := testDB(t).StockChanges()

	change, err := queue.Enqueue(testKey)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, change.Status)

	// 同键已有 pending 行时返回既有行, 不新增
	again, err := queue.Enqueue(testKey)
	require.NoError(t, err)
	assert.Equal(t, change.ID, again.ID)

	changes, err := queue.List("")
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestEnqueueResubmitCompleted(t *testing.T) {
	queue := testDB(t).StockChanges()

	_, err := queue.Enqueue(testKey)
	require.NoError(t, err)
	require.NoError(t, queue.MarkCompleted(testInfo(1000, 1050)))

	// 重新提交同一自然键, 回到 pending 且价格字段保留
	_, err = queue.Enqueue(testKey)
	require.NoError(t, err)

	change, err := queue.GetByKey(testKey)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, model.StatusPending, change.Status)
	require.NotNil(t, change.StartPrice)
	assert.Equal(t, 1000.0, *change.StartPrice)
}

func TestBulkInsertPendingDedup(t *testing.T) {
	queue := testDB(t).StockChanges()

	keys := []model.StockChangeKey{
		{StockNo: "2330", StartDate: "1140504", EndDate: "1140704"},
		{StockNo: "2317", StartDate: "1140510", EndDate: "1140710"},
	}

	_, err := queue.BulkInsertPending(keys)
	require.NoError(t, err)
	_, err = queue.BulkInsertPending(keys)
	require.NoError(t, err)

	changes, err := queue.List("")
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestDequeueOnePending(t *testing.T) {
	queue := testDB(t).StockChanges()

	_, err := queue.Enqueue(testKey)
	require.NoError(t, err)

	change, err := queue.DequeueOnePending()
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, "2330", change.StockNo)
}

func TestDequeueSkipsFutureEndDate(t *testing.T) {
	queue := testDB(t).StockChanges()

	// 结束日在一年后的任务还不能处理
	future := model.StockChangeKey{
		StockNo:   "2330",
		StartDate: rocdate.Today(),
		EndDate:   rocdate.MonthsFromNow(12),
	}
	_, err := queue.Enqueue(future)
	require.NoError(t, err)

	change, err := queue.DequeueOnePending()
	require.NoError(t, err)
	assert.Nil(t, change)
}

func TestDequeueEmptyQueue(t *testing.T) {
	queue := testDB(t).StockChanges()

	change, err := queue.DequeueOnePending()
	require.NoError(t, err)
	assert.Nil(t, change)
}

func TestMarkCompletedIdempotent(t *testing.T) {
	queue := testDB(t).StockChanges()

	_, err := queue.Enqueue(testKey)
	require.NoError(t, err)

	require.NoError(t, queue.MarkCompleted(testInfo(1000, 1050)))
	// 第二次调用参数不同, 终值等于第二次的参数且只留一行
	require.NoError(t, queue.MarkCompleted(testInfo(1000, 1080)))

	changes, err := queue.List("")
	require.NoError(t, err)
	require.Len(t, changes, 1)

	change := changes[0]
	assert.Equal(t, model.StatusCompleted, change.Status)
	require.NotNil(t, change.EndPrice)
	assert.Equal(t, 1080.0, *change.EndPrice)
	require.NotNil(t, change.Change)
	assert.Equal(t, 80.0, *change.Change)
	require.NotNil(t, change.StockName)
	assert.Equal(t, "台积电", *change.StockName)
}

func TestMarkCompletedWithoutExistingRow(t *testing.T) {
	queue := testDB(t).StockChanges()

	// 没有先 Enqueue 也能直接 upsert 出完成行
	require.NoError(t, queue.MarkCompleted(testInfo(1000, 1050)))

	change, err := queue.GetByKey(testKey)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, model.StatusCompleted, change.Status)
}

func TestMarkFailedKeepsPartialFields(t *testing.T) {
	queue := testDB(t).StockChanges()

	_, err := queue.Enqueue(testKey)
	require.NoError(t, err)
	require.NoError(t, queue.MarkCompleted(testInfo(1000, 1050)))
	require.NoError(t, queue.MarkFailed(testKey))

	change, err := queue.GetByKey(testKey)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, model.StatusFailed, change.Status)
	// 先前算出的价格字段不清空
	require.NotNil(t, change.StartPrice)
	assert.Equal(t, 1000.0, *change.StartPrice)
}

func TestResetFailedToPending(t *testing.T) {
	queue := testDB(t).StockChanges()

	_, err := queue.Enqueue(testKey)
	require.NoError(t, err)
	require.NoError(t, queue.MarkCompleted(testInfo(1000, 1050)))
	require.NoError(t, queue.MarkFailed(testKey))

	count, err := queue.ResetFailedToPending()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	change, err := queue.GetByKey(testKey)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, change.Status)
	// 批量重置保留部分结果
	require.NotNil(t, change.StartPrice)
}

func TestResetOnePendingClearsFields(t *testing.T) {
	queue := testDB(t).StockChanges()

	created, err := queue.Enqueue(testKey)
	require.NoError(t, err)
	require.NoError(t, queue.MarkCompleted(testInfo(1000, 1050)))

	require.NoError(t, queue.ResetOnePending(created.ID))

	change, err := queue.GetByKey(testKey)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, change.Status)
	assert.Nil(t, change.StartPrice)
	assert.Nil(t, change.EndPrice)
	assert.Nil(t, change.Change)
	assert.Nil(t, change.StockName)
}

func TestResetOnePendingNotFound(t *testing.T) {
	queue := testDB(t).StockChanges()
	assert.Error(t, queue.ResetOnePending(999))
}

func TestListFilterByStatus(t *testing.T) {
	queue := testDB(t).StockChanges()

	_, err := queue.Enqueue(testKey)
	require.NoError(t, err)
	other := model.StockChangeKey{StockNo: "2317", StartDate: "1140510", EndDate: "1140710"}
	_, err = queue.Enqueue(other)
	require.NoError(t, err)
	require.NoError(t, queue.MarkFailed(other))

	pending, err := queue.List(string(model.StatusPending))
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	failed, err := queue.List(string(model.StatusFailed))
	require.NoError(t, err)
	assert.Len(t, failed, 1)
	assert.Equal(t, "2317", failed[0].StockNo)
}
