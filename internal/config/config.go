package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DatabaseConfig PostgreSQL 配置（报警历史记录用）
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis 配置（快照缓存用）
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 监护客户端配置
type Config struct {
	// 后端服务地址（路径是固定契约，只有基础地址可配置）
	Backends struct {
		VitalsBaseURL     string // 患者/体征服务
		AlertsBaseURL     string // 报警服务
		SummarizerBaseURL string // 摘要服务
		AuthBaseURL       string // 认证服务
		RequestTimeout    int    // 常规请求超时（秒），默认 10
		SummarizerTimeout int    // 摘要请求超时（秒），模型推理较慢，默认 120
	}

	// 同步引擎配置
	Monitor struct {
		AlertPollInterval  int // 单患者报警轮询间隔（秒），默认 10
		RosterPollInterval int // 患者列表轮询间隔（秒），默认 30
		HistoryHours       int // 初始加载拉取的历史时长（小时），默认 8
		WindowSize         int // 趋势序列滑动窗口长度，默认 20
		SummaryAlertLimit  int // 触发摘要时携带的最近报警数量，默认 5
	}

	// 会话配置
	Session struct {
		TokenFile string // 持久化令牌文件路径
		Username  string // 恢复失败时用于登录的账号（可选，空则要求已有有效会话）
		Password  string
	}

	// 启动时自动打开监护的患者 ID 列表
	WatchPatients []string

	// 快照缓存配置（可选，供同机看板读取聚合后的状态）
	Cache struct {
		Enabled        bool
		Redis          RedisConfig
		KeyPrefix      string // 如 "vital-watch:patient:"
		SnapshotSuffix string // 如 ":snapshot"
		TTL            int    // 缓存 TTL（秒），默认 30
	}

	// 报警历史记录配置（可选，写入 PostgreSQL 供审计）
	History struct {
		Enabled  bool
		Database DatabaseConfig
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Backends.VitalsBaseURL = getEnv("VITALS_BASE_URL", "http://localhost:8000")
	cfg.Backends.AlertsBaseURL = getEnv("ALERTS_BASE_URL", "http://localhost:8001")
	cfg.Backends.SummarizerBaseURL = getEnv("SUMMARIZER_BASE_URL", "http://localhost:8002")
	cfg.Backends.AuthBaseURL = getEnv("AUTH_BASE_URL", "http://localhost:8003")
	cfg.Backends.RequestTimeout = getEnvInt("REQUEST_TIMEOUT", 10)
	cfg.Backends.SummarizerTimeout = getEnvInt("SUMMARIZER_TIMEOUT", 120)

	cfg.Monitor.AlertPollInterval = getEnvInt("ALERT_POLL_INTERVAL", 10)
	cfg.Monitor.RosterPollInterval = getEnvInt("ROSTER_POLL_INTERVAL", 30)
	cfg.Monitor.HistoryHours = getEnvInt("HISTORY_HOURS", 8)
	cfg.Monitor.WindowSize = getEnvInt("VITALS_WINDOW_SIZE", 20)
	cfg.Monitor.SummaryAlertLimit = getEnvInt("SUMMARY_ALERT_LIMIT", 5)

	cfg.Session.TokenFile = getEnv("SESSION_TOKEN_FILE", defaultTokenFile())
	cfg.Session.Username = getEnv("AUTH_USERNAME", "")
	cfg.Session.Password = getEnv("AUTH_PASSWORD", "")

	if watch := getEnv("WATCH_PATIENTS", ""); watch != "" {
		for _, id := range strings.Split(watch, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.WatchPatients = append(cfg.WatchPatients, id)
			}
		}
	}

	cfg.Cache.Enabled = getEnv("SNAPSHOT_CACHE_ENABLED", "false") == "true"
	cfg.Cache.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Cache.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Cache.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Cache.KeyPrefix = getEnv("CACHE_KEY_PREFIX", "vital-watch:patient:")
	cfg.Cache.SnapshotSuffix = ":snapshot"
	cfg.Cache.TTL = getEnvInt("CACHE_TTL", 30)

	cfg.History.Enabled = getEnv("ALERT_HISTORY_ENABLED", "false") == "true"
	cfg.History.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.History.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.History.Database.User = getEnv("DB_USER", "postgres")
	cfg.History.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.History.Database.Database = getEnv("DB_NAME", "vitalwatch")
	cfg.History.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Backends.VitalsBaseURL == "" || cfg.Backends.AlertsBaseURL == "" ||
		cfg.Backends.SummarizerBaseURL == "" || cfg.Backends.AuthBaseURL == "" {
		return fmt.Errorf("backend base URLs must not be empty")
	}
	if cfg.Monitor.WindowSize <= 0 {
		return fmt.Errorf("VITALS_WINDOW_SIZE must be > 0")
	}
	if cfg.Monitor.AlertPollInterval <= 0 || cfg.Monitor.RosterPollInterval <= 0 {
		return fmt.Errorf("poll intervals must be > 0")
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vitalwatch-token"
	}
	return home + "/.vitalwatch/token"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
