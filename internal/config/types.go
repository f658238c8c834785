package config

import (
	"time"

	"polyquant/internal/factor"
	"polyquant/internal/risk"
	"polyquant/internal/signal"
)

// Config is the full runtime configuration, loaded from YAML.
type Config struct {
	Log      LogConfig         `toml:"log"`
	Trading  TradingConfig     `toml:"trading"`
	Factor   factor.Config     `toml:"factor"`
	Signal   signal.Config     `toml:"signal"`
	Sizer    risk.SizerConfig  `toml:"sizer"`
	Risk     risk.Config       `toml:"risk"`
	Markets  MarketsConfig     `toml:"markets"`
	History  HistoryConfig     `toml:"history"`
	Orders   OrdersConfig      `toml:"orders"`
	Telegram TelegramConfig    `toml:"telegram"`
	Server   HTTPServerConfig  `toml:"server"`
	Storage  StorageConfig     `toml:"storage"`
	Symbols  SymbolTableConfig `toml:"symbols"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// TradingConfig drives the loop cadence and history requests.
type TradingConfig struct {
	Interval      string        `toml:"interval"`
	CourtesyDelay time.Duration `toml:"courtesy_delay"`
	BarInterval   string        `toml:"bar_interval"`
	HistoryBars   int           `toml:"history_bars"`
	MinBars       int           `toml:"min_bars"`
}

type MarketsConfig struct {
	BaseURL   string        `toml:"base_url"`
	Timeout   time.Duration `toml:"timeout"`
	ListLimit int           `toml:"list_limit"`
}

type HistoryConfig struct {
	BaseURL  string        `toml:"base_url"`
	Timeout  time.Duration `toml:"timeout"`
	CacheTTL time.Duration `toml:"cache_ttl"`
}

type OrdersConfig struct {
	BaseURL string        `toml:"base_url"`
	APIKey  string        `toml:"api_key"`
	Timeout time.Duration `toml:"timeout"`
	DryRun  bool          `toml:"dry_run"`
}

type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type HTTPServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type StorageConfig struct {
	SignalLogPath string `toml:"signal_log_path"`
	EventsDBPath  string `toml:"events_db_path"`
}

type SymbolTableConfig struct {
	TablePath string `toml:"table_path"`
}
