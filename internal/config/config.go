package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Bidding   BiddingConfig   `mapstructure:"bidding"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Instance  InstanceConfig  `mapstructure:"instance"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BiddingConfig struct {
	// HashSecret keys the bid integrity digest. Server-only; never
	// exposed through any API response.
	HashSecret    string        `mapstructure:"hash_secret"`
	RateLimit     float64       `mapstructure:"rate_limit"`
	RateBurst     int           `mapstructure:"rate_burst"`
	RateExpiresIn time.Duration `mapstructure:"rate_expires_in"`
}

type SchedulerConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	LeaderTTL     time.Duration `mapstructure:"leader_ttl"`
	// LeaderHeartbeat is how often the leader refreshes its lease; it
	// must be comfortably shorter than LeaderTTL.
	LeaderHeartbeat time.Duration `mapstructure:"leader_heartbeat"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("mysql.dsn", "crm_user:crm_pass@tcp(localhost:3306)/crm_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("bidding.hash_secret", "")
	viper.SetDefault("bidding.rate_limit", 5.0)
	viper.SetDefault("bidding.rate_burst", 10)
	viper.SetDefault("bidding.rate_expires_in", time.Minute)
	viper.SetDefault("scheduler.sweep_interval", time.Minute)
	viper.SetDefault("scheduler.leader_ttl", 30*time.Second)
	viper.SetDefault("scheduler.leader_heartbeat", 10*time.Second)
	viper.SetDefault("instance.id", "crm-server-1")
}

func Load() (*Config, error) {
	setDefaults()

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/estate-agent-crm/")

	// Environment variable support
	viper.AutomaticEnv()

	// Environment variable mappings
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("bidding.hash_secret", "BID_HASH_SECRET")
	viper.BindEnv("bidding.rate_limit", "BID_RATE_LIMIT")
	viper.BindEnv("bidding.rate_burst", "BID_RATE_BURST")
	viper.BindEnv("bidding.rate_expires_in", "BID_RATE_EXPIRES_IN")
	viper.BindEnv("scheduler.sweep_interval", "SCHEDULER_SWEEP_INTERVAL")
	viper.BindEnv("scheduler.leader_ttl", "SCHEDULER_LEADER_TTL")
	viper.BindEnv("scheduler.leader_heartbeat", "SCHEDULER_LEADER_HEARTBEAT")
	viper.BindEnv("instance.id", "INSTANCE_ID")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return finalize()
}

// LoadFromFile loads configuration from an explicit file path, applying
// the same defaults and validation as Load.
func LoadFromFile(configPath string) (*Config, error) {
	setDefaults()
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	return finalize()
}

func finalize() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Bidding.HashSecret == "" {
		return nil, fmt.Errorf("config: bidding.hash_secret (BID_HASH_SECRET) is required")
	}

	return &config, nil
}
