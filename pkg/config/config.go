package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	List     ListConfig     `mapstructure:"list"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type ListConfig struct {
	ID         string `mapstructure:"id"`
	MaxResults int    `mapstructure:"max_results"`
}

type BrowserConfig struct {
	CookieFile string        `mapstructure:"cookie_file"`
	Headless   bool          `mapstructure:"headless"`
	NavTimeout time.Duration `mapstructure:"nav_timeout"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type LimitsConfig struct {
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	MinPostAge         time.Duration `mapstructure:"min_post_age"`
	MaxPostAgeMinutes  int           `mapstructure:"max_post_age_minutes"`
	DelayAfterReply    time.Duration `mapstructure:"delay_after_reply"`
	JitterMax          time.Duration `mapstructure:"jitter_max"`
	PauseAfter         int           `mapstructure:"pause_after"`
	StopAfter          int           `mapstructure:"stop_after"`
	PauseDuration      time.Duration `mapstructure:"pause_duration"`
	PerAccountCooldown time.Duration `mapstructure:"per_account_cooldown"`
	GenerationBackoff  time.Duration `mapstructure:"generation_backoff"`
}

type StorageConfig struct {
	RepliedFile       string `mapstructure:"replied_file"`
	StatsFile         string `mapstructure:"stats_file"`
	AuthorHistoryFile string `mapstructure:"author_history_file"`
	UseInMemory       bool   `mapstructure:"use_in_memory"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// MaxPostAge returns the configured freshness window as a duration.
func (l LimitsConfig) MaxPostAge() time.Duration {
	return time.Duration(l.MaxPostAgeMinutes) * time.Minute
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Defaults mirror the .env surface this bot has always shipped with.
	v.SetDefault("list.max_results", 50)
	v.SetDefault("browser.cookie_file", "cookies.json")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_timeout", "60s")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 64)
	v.SetDefault("openai.temperature", 0.6)
	v.SetDefault("limits.poll_interval", "900s")
	v.SetDefault("limits.min_post_age", "180s")
	v.SetDefault("limits.max_post_age_minutes", 60)
	v.SetDefault("limits.delay_after_reply", "120s")
	v.SetDefault("limits.jitter_max", "6s")
	v.SetDefault("limits.pause_after", 500)
	v.SetDefault("limits.stop_after", 1000)
	v.SetDefault("limits.pause_duration", "1h")
	v.SetDefault("limits.per_account_cooldown", "1800s")
	v.SetDefault("limits.generation_backoff", "600s")
	v.SetDefault("storage.replied_file", "replied_ids.txt")
	v.SetDefault("storage.stats_file", "daily_stats.json")
	v.SetDefault("storage.author_history_file", "author_last_reply.json")
	v.SetDefault("storage.use_in_memory", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	v.AutomaticEnv()

	// The config file is optional; env vars can carry everything.
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Secrets and identifiers come from the environment when present.
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	if listID := v.GetString("LIST_ID"); listID != "" {
		config.List.ID = listID
	}

	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if chatID := v.GetInt64("TELEGRAM_CHAT_ID"); chatID != 0 {
		config.Telegram.ChatID = chatID
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.List.ID == "" {
		return errors.New("list id is required (set list.id or LIST_ID)")
	}
	if c.OpenAI.APIKey == "" {
		return errors.New("openai api key is required (set openai.api_key or OPENAI_API_KEY)")
	}
	return nil
}
