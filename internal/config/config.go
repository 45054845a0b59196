package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	Auction AuctionConfig `mapstructure:"auction"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type AuctionConfig struct {
	RunID          string        `mapstructure:"run_id"`
	CatalogPath    string        `mapstructure:"catalog_path"`
	StartingPurse  float64       `mapstructure:"starting_purse"`
	MaxRosterSize  int           `mapstructure:"max_roster_size"`
	MinRosterSize  int           `mapstructure:"min_roster_size"`
	ReserveEnabled bool          `mapstructure:"reserve_enabled"`
	MinBid         float64       `mapstructure:"min_bid"`
	BidLockTimeout time.Duration `mapstructure:"bid_lock_timeout"`
	ShuffleSeed    int64         `mapstructure:"shuffle_seed"`
	HammerEnabled  bool          `mapstructure:"hammer_enabled"`
	HammerWindow   time.Duration `mapstructure:"hammer_window"`
	Teams          []TeamConfig  `mapstructure:"teams"`
}

type TeamConfig struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// DefaultTeams are the ten standard franchises used when config names
// none.
var DefaultTeams = []TeamConfig{
	{ID: "CSK", Name: "CSK"},
	{ID: "MI", Name: "MI"},
	{ID: "RCB", Name: "RCB"},
	{ID: "KKR", Name: "KKR"},
	{ID: "SRH", Name: "SRH"},
	{ID: "RR", Name: "RR"},
	{ID: "DC", Name: "DC"},
	{ID: "PBKS", Name: "PBKS"},
	{ID: "GT", Name: "GT"},
	{ID: "LSG", Name: "LSG"},
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("auction.run_id", "")
	viper.SetDefault("auction.catalog_path", "players.csv")
	viper.SetDefault("auction.starting_purse", 100.0)
	viper.SetDefault("auction.max_roster_size", 25)
	viper.SetDefault("auction.min_roster_size", 18)
	viper.SetDefault("auction.reserve_enabled", false)
	viper.SetDefault("auction.min_bid", 0.3)
	viper.SetDefault("auction.bid_lock_timeout", 2*time.Second)
	viper.SetDefault("auction.shuffle_seed", 0)
	viper.SetDefault("auction.hammer_enabled", false)
	viper.SetDefault("auction.hammer_window", 30*time.Second)

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/player-auction/")

	// Environment variable support
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("auction.run_id", "AUCTION_RUN_ID")
	viper.BindEnv("auction.catalog_path", "AUCTION_CATALOG_PATH")
	viper.BindEnv("auction.starting_purse", "AUCTION_STARTING_PURSE")
	viper.BindEnv("auction.hammer_enabled", "AUCTION_HAMMER_ENABLED")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, continue with defaults and environment variables
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if len(config.Auction.Teams) == 0 {
		config.Auction.Teams = DefaultTeams
	}

	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if len(config.Auction.Teams) == 0 {
		config.Auction.Teams = DefaultTeams
	}

	return &config, nil
}
