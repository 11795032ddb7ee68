package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration loaded at startup.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Push      PushConfig      `mapstructure:"push"`
	Sweep     SweepConfig     `mapstructure:"sweep"`
	Directory DirectoryConfig `mapstructure:"directory"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// PushConfig tunes the live SSE delivery side.
type PushConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ReconnectCeiling  int           `mapstructure:"reconnect_ceiling"`
	BufferSize        int           `mapstructure:"buffer_size"`
}

// SweepConfig tunes the notification expiry sweep.
type SweepConfig struct {
	IntervalDays   int `mapstructure:"interval_days"`
	DefaultTTLDays int `mapstructure:"default_ttl_days"`
}

// DirectoryConfig points at the user-directory collaborator that resolves
// apartment membership and roles at connect time.
type DirectoryConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Load reads the config file at configPath and applies defaults.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.mode", "release")
	viper.SetDefault("push.heartbeat_interval", 5*time.Minute)
	viper.SetDefault("push.idle_timeout", 30*time.Minute)
	viper.SetDefault("push.reconnect_ceiling", 5)
	viper.SetDefault("push.buffer_size", 16)
	viper.SetDefault("sweep.interval_days", 1)
	viper.SetDefault("sweep.default_ttl_days", 30)

	viper.SetEnvPrefix("APARTNER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	normalize(&cfg)
	return &cfg, nil
}

// normalize fills defaults viper cannot express per-field.
func normalize(c *Config) {
	if c.Push.HeartbeatInterval <= 0 {
		c.Push.HeartbeatInterval = 5 * time.Minute
	}
	if c.Push.IdleTimeout <= 0 {
		c.Push.IdleTimeout = 30 * time.Minute
	}
	if c.Push.ReconnectCeiling <= 0 {
		c.Push.ReconnectCeiling = 5
	}
	if c.Push.BufferSize <= 0 {
		c.Push.BufferSize = 16
	}
	if c.Sweep.IntervalDays <= 0 {
		c.Sweep.IntervalDays = 1
	}
	if c.Sweep.DefaultTTLDays <= 0 {
		c.Sweep.DefaultTTLDays = 30
	}
	if c.Directory.Timeout <= 0 {
		c.Directory.Timeout = 3 * time.Second
	}
	if c.Directory.CacheTTL <= 0 {
		c.Directory.CacheTTL = 5 * time.Minute
	}
}

// GetDSN builds the MySQL DSN.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// GetRedisAddr returns host:port for the redis client.
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

var globalConfig *Config

// SetGlobalConfig stores the loaded config for packages that cannot take it
// via constructor injection. Called once in app.Run.
func SetGlobalConfig(c *Config) {
	globalConfig = c
}

// GlobalConfig returns the config set at startup, or nil before app.Run.
func GlobalConfig() *Config {
	return globalConfig
}
