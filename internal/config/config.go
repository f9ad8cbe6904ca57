package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-store-ledger/pkg/mysql"
)

// 儲存實作
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config 應用程式設定
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	MySQL  mysql.Config `yaml:"mysql"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig HTTP 與 gRPC 監聽埠
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"`
	GRPCPort string `yaml:"grpc_port"`
}

// StoreConfig 選擇實體儲存
type StoreConfig struct {
	Driver  string `yaml:"driver"`   // mysql | memory
	WALPath string `yaml:"wal_path"` // memory 模式的 WAL 檔
	Migrate bool   `yaml:"migrate"`  // 啟動時自動建表
}

// LogConfig 日誌等級
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load 讀取設定檔，再以環境變數 (可來自 .env) 覆蓋
//
// path 為空或檔案不存在時只使用預設值與環境變數。
func Load(path string) (*Config, error) {
	// .env 不存在是正常的 (例如容器內直接注入環境變數)
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.MySQL = cfg.MySQL.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: "8080",
			GRPCPort: "50051",
		},
		Store: StoreConfig{
			Driver:  DriverMemory,
			WALPath: "wal.log",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Server.HTTPPort, "LEDGER_HTTP_PORT")
	setString(&c.Server.GRPCPort, "LEDGER_GRPC_PORT")
	setString(&c.Store.Driver, "LEDGER_STORE_DRIVER")
	setString(&c.Store.WALPath, "LEDGER_WAL_PATH")
	setString(&c.MySQL.Host, "MYSQL_HOST")
	setString(&c.MySQL.User, "MYSQL_USER")
	setString(&c.MySQL.Password, "MYSQL_PASSWORD")
	setString(&c.MySQL.DBName, "MYSQL_DB")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("MYSQL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MYSQL_PORT must be a number: %w", err)
		}
		c.MySQL.Port = port
	}
	if v := os.Getenv("LEDGER_STORE_MIGRATE"); v != "" {
		migrate, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LEDGER_STORE_MIGRATE must be a boolean: %w", err)
		}
		c.Store.Migrate = migrate
	}
	return nil
}

// Validate 檢查必要欄位
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.HTTPPort == "" {
		return errors.New("server.http_port must be provided")
	}
	if c.Server.GRPCPort == "" {
		return errors.New("server.grpc_port must be provided")
	}

	switch c.Store.Driver {
	case DriverMemory:
		if c.Store.WALPath == "" {
			return errors.New("store.wal_path must be provided for the memory driver")
		}
	case DriverMySQL:
		if c.MySQL.Host == "" {
			return errors.New("mysql.host must be provided")
		}
		if c.MySQL.DBName == "" {
			return errors.New("mysql.dbname must be provided")
		}
	default:
		return fmt.Errorf("unsupported store.driver %q", c.Store.Driver)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
