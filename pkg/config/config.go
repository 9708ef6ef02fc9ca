package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration 让时长可以直接在yaml里写 10s / 1m 这类格式
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("无效的时长 %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	Database struct {
		Postgres struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"postgres"`
	} `yaml:"database"`

	TWSE struct {
		OpenAPIBaseURL string   `yaml:"openapi_base_url"` // https://openapi.twse.com.tw/v1
		ReportBaseURL  string   `yaml:"report_base_url"`  // https://www.twse.com.tw
		MopsBaseURL    string   `yaml:"mops_base_url"`    // https://mopsov.twse.com.tw
		Timeout        Duration `yaml:"timeout"`
		RatePerSecond  float64  `yaml:"rate_per_second"` // 外部请求限速, 避免被证交所封锁
	} `yaml:"twse"`

	NATS struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"nats"`

	API struct {
		Port         string   `yaml:"port"`
		ReadTimeout  Duration `yaml:"read_timeout"`
		WriteTimeout Duration `yaml:"write_timeout"`
	} `yaml:"api"`

	// Jobs 各定时任务的启用开关, 默认启用
	Jobs struct {
		ConsumeStockChange *bool `yaml:"consume_stock_change"`
		StockDayAll        *bool `yaml:"stock_day_all"`
		FetchClosingPrices *bool `yaml:"fetch_closing_prices"`
	} `yaml:"jobs"`
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 环境变量覆盖
	overrideFromEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	// 应用名称
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}

	// 环境
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.Postgres.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		var port int
		fmt.Sscanf(env, "%d", &port)
		if port > 0 {
			config.Database.Postgres.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.Postgres.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.Postgres.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.Postgres.DBName = env
	}

	// NATS配置
	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}
	if env := os.Getenv("NATS_CLIENT_ID"); env != "" {
		config.NATS.ClientID = env
	}

	// API配置
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}

	// 任务开关
	if env := os.Getenv("JOB_CONSUME_STOCK_CHANGE_ENABLED"); env != "" {
		config.Jobs.ConsumeStockChange = boolPtr(parseBool(env))
	}
	if env := os.Getenv("JOB_STOCK_DAY_ALL_ENABLED"); env != "" {
		config.Jobs.StockDayAll = boolPtr(parseBool(env))
	}
	if env := os.Getenv("JOB_FETCH_CLOSING_PRICES_ENABLED"); env != "" {
		config.Jobs.FetchClosingPrices = boolPtr(parseBool(env))
	}
}

// applyDefaults 填充缺省值
func applyDefaults(config *Config) {
	if config.TWSE.OpenAPIBaseURL == "" {
		config.TWSE.OpenAPIBaseURL = "https://openapi.twse.com.tw/v1"
	}
	if config.TWSE.ReportBaseURL == "" {
		config.TWSE.ReportBaseURL = "https://www.twse.com.tw"
	}
	if config.TWSE.MopsBaseURL == "" {
		config.TWSE.MopsBaseURL = "https://mopsov.twse.com.tw"
	}
	if config.TWSE.Timeout == 0 {
		config.TWSE.Timeout = Duration(10 * time.Second)
	}
	if config.TWSE.RatePerSecond == 0 {
		config.TWSE.RatePerSecond = 2
	}
	if config.API.Port == "" {
		config.API.Port = "8080"
	}
}

// JobEnabled 查询任务开关, 未配置时默认启用
func JobEnabled(flag *bool) bool {
	if flag == nil {
		return true
	}
	return *flag
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "no", "off":
		return false
	}
	return true
}

func boolPtr(b bool) *bool {
	return &b
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}
