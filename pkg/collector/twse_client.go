package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"StockRadar/pkg/apperrs"
	"StockRadar/pkg/config"
	"StockRadar/pkg/model"
)

// 证交所会挡掉非浏览器流量, 请求需带上浏览器标头
const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	browserAccept    = "application/json, text/javascript, */*; q=0.01"
)

// PriceFetcher 个股日均价获取接口
type PriceFetcher interface {
	FetchDayAvg(stockNo, date string) (*model.DayAvgResponse, error)
}

// TWSEClient 台湾证交所数据客户端
type TWSEClient struct {
	openAPIBaseURL string
	reportBaseURL  string
	mopsBaseURL    string
	client         *http.Client
	limiter        *rate.Limiter
}

// NewTWSEClient 创建新的证交所客户端
func NewTWSEClient(cfg *config.Config) *TWSEClient {
	return &TWSEClient{
		openAPIBaseURL: cfg.TWSE.OpenAPIBaseURL,
		reportBaseURL:  cfg.TWSE.ReportBaseURL,
		mopsBaseURL:    cfg.TWSE.MopsBaseURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TWSE.Timeout),
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.TWSE.RatePerSecond), 1),
	}
}

// FetchBuybackListing 抓取库藏股买回公告列表的原始HTML
// d1/d2 为民国日期字符串, 例如 1140504
func (c *TWSEClient) FetchBuybackListing(d1, d2 string) (string, error) {
	form := url.Values{}
	form.Set("encodeURIComponent", "1")
	form.Set("step", "1")
	form.Set("firstin", "1")
	form.Set("off", "1")
	form.Set("TYPEK", "sii")
	form.Set("d1", d1)
	form.Set("d2", d2)
	form.Set("RD", "1")

	endpoint := c.mopsBaseURL + "/mops/web/ajax_t35sc09"
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", browserUserAgent)

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// FetchDayAvg 抓取个股单月的每日收盘均价
// date 为西元日期字符串 YYYYMMDD, 返回该日所在月份的全部资料
func (c *TWSEClient) FetchDayAvg(stockNo, date string) (*model.DayAvgResponse, error) {
	// _ 参数带当下时间戳避免中间缓存
	endpoint := fmt.Sprintf(
		"%s/exchangeReport/STOCK_DAY_AVG?response=json&date=%s&stockNo=%s&_=%d",
		c.reportBaseURL, date, stockNo, time.Now().UnixMilli(),
	)

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", browserAccept)
	req.Header.Set("Referer", c.reportBaseURL+"/zh/trading/historical/stock-day-avg.html")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp model.DayAvgResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrs.ErrInvalidJSON, err)
	}

	return &resp, nil
}

// FetchStockDayAvgAll 抓取全市场日均价快照
func (c *TWSEClient) FetchStockDayAvgAll() ([]model.TWSEStockAvg, error) {
	body, err := c.get(c.openAPIBaseURL + "/exchangeReport/STOCK_DAY_AVG_ALL")
	if err != nil {
		return nil, err
	}

	var stocks []model.TWSEStockAvg
	if err := json.Unmarshal(body, &stocks); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrs.ErrInvalidJSON, err)
	}

	return stocks, nil
}

// FetchStockDayAll 抓取全市场每日成交行情
func (c *TWSEClient) FetchStockDayAll() ([]model.TWSEDayAll, error) {
	body, err := c.get(c.openAPIBaseURL + "/exchangeReport/STOCK_DAY_ALL")
	if err != nil {
		return nil, err
	}

	var rows []model.TWSEDayAll
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrs.ErrInvalidJSON, err)
	}

	return rows, nil
}

// get 发送GET请求并返回响应体
func (c *TWSEClient) get(endpoint string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", browserAccept)

	return c.do(req)
}

// do 限速后执行请求, 校验状态码并读取响应体
func (c *TWSEClient) do(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(context.Background()); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrs.ErrConnection, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrs.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: 获取 %s 数据失败, 状态码: %d",
			apperrs.ErrInvalidContent, req.URL.Path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	return body, nil
}
