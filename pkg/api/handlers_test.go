package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"StockRadar/pkg/collector"
	"StockRadar/pkg/config"
	"StockRadar/pkg/database"
	"StockRadar/pkg/model"
	"StockRadar/pkg/scheduler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testDB(t *testing.T) *database.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := database.NewWithGorm(gdb)
	require.NoError(t, db.AutoMigrate())

	return db
}

func testServer(t *testing.T, db *database.DB, client *collector.TWSEClient) *Server {
	t.Helper()

	s := NewServer("0", 0, 0)
	s.SetupRoutes(NewHandlers(db, client, scheduler.NewScheduler()))
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	s := testServer(t, testDB(t), nil)

	w := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCreateStockChange(t *testing.T) {
	db := testDB(t)
	s := testServer(t, db, nil)

	w := doRequest(s, http.MethodPost, "/api/v1/stock-changes",
		`{"stock_no":"2330","start_date":"1140504","end_date":"1140704"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)

	changes, err := db.StockChanges().List("")
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestCreateStockChangeMissingField(t *testing.T) {
	s := testServer(t, testDB(t), nil)

	w := doRequest(s, http.MethodPost, "/api/v1/stock-changes",
		`{"stock_no":"2330","start_date":"1140504"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateStockChangeInvalidROCDate(t *testing.T) {
	s := testServer(t, testDB(t), nil)

	// 2月30日不存在
	w := doRequest(s, http.MethodPost, "/api/v1/stock-changes",
		`{"stock_no":"2330","start_date":"1140230","end_date":"1140704"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListStockChangesFilter(t *testing.T) {
	db := testDB(t)
	s := testServer(t, db, nil)

	key := model.StockChangeKey{StockNo: "2330", StartDate: "1140504", EndDate: "1140704"}
	_, err := db.StockChanges().Enqueue(key)
	require.NoError(t, err)
	other := model.StockChangeKey{StockNo: "2317", StartDate: "1140510", EndDate: "1140710"}
	_, err = db.StockChanges().Enqueue(other)
	require.NoError(t, err)
	require.NoError(t, db.StockChanges().MarkFailed(other))

	w := doRequest(s, http.MethodGet, "/api/v1/stock-changes?status=failed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2317")
	assert.NotContains(t, w.Body.String(), "2330")
}

func TestResetFailedStockChanges(t *testing.T) {
	db := testDB(t)
	s := testServer(t, db, nil)

	key := model.StockChangeKey{StockNo: "2330", StartDate: "1140504", EndDate: "1140704"}
	_, err := db.StockChanges().Enqueue(key)
	require.NoError(t, err)
	require.NoError(t, db.StockChanges().MarkFailed(key))

	w := doRequest(s, http.MethodPatch, "/api/v1/stock-changes/reset-failed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reset":1`)

	change, err := db.StockChanges().GetByKey(key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, change.Status)
}

func TestResetOneStockChange(t *testing.T) {
	db := testDB(t)
	s := testServer(t, db, nil)

	key := model.StockChangeKey{StockNo: "2330", StartDate: "1140504", EndDate: "1140704"}
	created, err := db.StockChanges().Enqueue(key)
	require.NoError(t, err)

	w := doRequest(s, http.MethodPatch,
		fmt.Sprintf("/api/v1/stock-changes/%d/pending", created.ID), "")
	assert.Equal(t, http.StatusOK, w.Code)

	// 不存在的ID返回404
	w = doRequest(s, http.MethodPatch, "/api/v1/stock-changes/999/pending", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 非数字ID返回400
	w = doRequest(s, http.MethodPatch, "/api/v1/stock-changes/abc/pending", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScrapeBuybacks(t *testing.T) {
	buybackHTML := `<table>
		<tr class="odd">
			<td>1</td><td>2330</td><td>台积电</td><td>x</td><td>x</td><td>x</td>
			<td>x</td><td>x</td><td>x</td><td>114/05/04</td><td>114/07/04</td><td>x</td>
		</tr>
		<tr class="even">
			<td>2</td><td>2317</td><td>鸿海</td><td>x</td><td>x</td><td>x</td>
			<td>x</td><td>x</td><td>x</td><td>114/05/10</td><td>114/07/10</td><td>x</td>
		</tr>
	</table>`

	mops := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/mops/web/ajax_t35sc09", r.URL.Path)
		fmt.Fprint(w, buybackHTML)
	}))
	defer mops.Close()

	cfg := &config.Config{}
	cfg.TWSE.MopsBaseURL = mops.URL
	cfg.TWSE.Timeout = config.Duration(5 * time.Second)
	cfg.TWSE.RatePerSecond = 100

	db := testDB(t)
	s := testServer(t, db, collector.NewTWSEClient(cfg))

	w := doRequest(s, http.MethodPost, "/api/v1/buybacks/scrape",
		`{"start_date":"1140504","end_date":"1140704"}`)
	require.Equal(t, http.StatusOK, w.Code)

	periods, err := db.BuybackPeriods().List()
	require.NoError(t, err)
	assert.Len(t, periods, 2)

	// 公告同时排进任务队列
	changes, err := db.StockChanges().List(string(model.StatusPending))
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestScrapeBuybacksFutureStart(t *testing.T) {
	s := testServer(t, testDB(t), nil)

	future := time.Now().AddDate(1, 0, 0)
	start := fmt.Sprintf("%03d%02d%02d", future.Year()-1911, future.Month(), future.Day())
	end := fmt.Sprintf("%03d%02d%02d", future.Year()-1911+1, future.Month(), future.Day())

	w := doRequest(s, http.MethodPost, "/api/v1/buybacks/scrape",
		fmt.Sprintf(`{"start_date":"%s","end_date":"%s"}`, start, end))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListClosingPrices(t *testing.T) {
	db := testDB(t)
	s := testServer(t, db, nil)

	require.NoError(t, db.ClosingPrices().UpsertBatch([]model.StockClosingPrice{
		{StockNo: "2330", Date: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), ClosePrice: 1050},
	}))

	w := doRequest(s, http.MethodGet, "/api/v1/closing-prices?stock_no=2330", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1050")
}

func TestListDayAllInvalidDate(t *testing.T) {
	s := testServer(t, testDB(t), nil)

	w := doRequest(s, http.MethodGet, "/api/v1/day-all?trade_date=05-02", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListJobsEmpty(t *testing.T) {
	s := testServer(t, testDB(t), nil)

	w := doRequest(s, http.MethodGet, "/api/v1/jobs", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
