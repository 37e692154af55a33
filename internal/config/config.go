package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig 数据库配置
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

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// Config 监护服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	HTTP struct {
		Addr string
	}

	Care struct {
		// Redis 缓存配置
		Cache struct {
			StatusKeyPrefix string // 状态快照缓存键前缀，如 "guardian:device:"
			StatusSuffix    string // 状态快照缓存键后缀，如 ":status"
			AlertKeyPrefix  string // 报警数据缓存键前缀，如 "guardian:device:"
			AlertSuffix     string // 报警数据缓存键后缀，如 ":alerts"
			AlertTTL        int    // 报警数据 TTL（秒），默认 30秒
		}

		// 提醒调度轮询间隔（秒），默认 1秒
		TickInterval int

		// 用药提醒未确认升级窗口（分钟），默认 15分钟
		MedicationOverdueMinutes int

		// 可选的阈值配置文件（YAML），为空则使用内置默认阈值
		ThresholdsFile string

		// 报警 Webhook 地址，为空则不启用
		WebhookURL string

		// 历史数据集目录（CSV 回放），为空则不回放
		DatasetDir string
	}

	Log struct {
		Level  string
		Format string
	}
}

// 阈值文件结构，键与评估器阈值键一致
type thresholdsFile struct {
	Thresholds map[string]float64 `yaml:"thresholds"`
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "guardiancare")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "guardiancare")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_ALERT_TOPIC", "guardian/alerts")
	cfg.MQTT.QoS = 1

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// 监护服务配置
	cfg.Care.Cache.StatusKeyPrefix = getEnv("CACHE_STATUS_PREFIX", "guardian:device:")
	cfg.Care.Cache.StatusSuffix = ":status"
	cfg.Care.Cache.AlertKeyPrefix = getEnv("CACHE_ALERT_PREFIX", "guardian:device:")
	cfg.Care.Cache.AlertSuffix = ":alerts"
	cfg.Care.Cache.AlertTTL = 30 // 30秒

	cfg.Care.TickInterval = getEnvInt("CARE_TICK_INTERVAL", 1)
	cfg.Care.MedicationOverdueMinutes = getEnvInt("CARE_MED_OVERDUE_MINUTES", 15)
	cfg.Care.ThresholdsFile = getEnv("CARE_THRESHOLDS_FILE", "")
	cfg.Care.WebhookURL = getEnv("CARE_WEBHOOK_URL", "")
	cfg.Care.DatasetDir = getEnv("CARE_DATASET_DIR", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// MedicationOverdueWindow 用药提醒升级窗口
func (c *Config) MedicationOverdueWindow() time.Duration {
	return time.Duration(c.Care.MedicationOverdueMinutes) * time.Minute
}

// LoadThresholds 读取阈值覆盖文件，文件未配置时返回 nil
func (c *Config) LoadThresholds() (map[string]float64, error) {
	if c.Care.ThresholdsFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.Care.ThresholdsFile)
	if err != nil {
		return nil, fmt.Errorf("read thresholds file: %w", err)
	}
	var tf thresholdsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse thresholds file: %w", err)
	}
	return tf.Thresholds, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			return n
		}
	}
	return defaultValue
}
