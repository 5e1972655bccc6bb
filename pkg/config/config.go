package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Blob       BlobConfig       `mapstructure:"blob"`
	Brand      BrandConfig      `mapstructure:"brand"`
	Extractor  ExtractorConfig  `mapstructure:"extractor"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

type TelegramConfig struct {
	Token           string        `mapstructure:"token"`
	Workers         int           `mapstructure:"workers"`
	PollTimeout     int           `mapstructure:"poll_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	MaxFileSize     int64         `mapstructure:"max_file_size"`
}

type OpenAIConfig struct {
	APIKey           string        `mapstructure:"api_key"`
	AzureEndpoint    string        `mapstructure:"azure_endpoint"`
	APIVersion       string        `mapstructure:"api_version"`
	BaseURL          string        `mapstructure:"base_url"`
	Model            string        `mapstructure:"model"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	SummaryMaxTokens int           `mapstructure:"summary_max_tokens"`
	Temperature      float64       `mapstructure:"temperature"`
	StructureTimeout time.Duration `mapstructure:"structure_timeout"`
	SummaryTimeout   time.Duration `mapstructure:"summary_timeout"`
	IntentTimeout    time.Duration `mapstructure:"intent_timeout"`
	MaxInputTokens   int           `mapstructure:"max_input_tokens"`
}

// ClassifierConfig controls the language model intent fallback.
type ClassifierConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

type DatabaseConfig struct {
	Driver        string        `mapstructure:"driver"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	DBName        string        `mapstructure:"dbname"`
	SSLMode       string        `mapstructure:"sslmode"`
	SQLitePath    string        `mapstructure:"sqlite_path"`
	StateTimeout  time.Duration `mapstructure:"state_timeout"`
	PurgeSchedule string        `mapstructure:"purge_schedule"`
}

type BlobConfig struct {
	ConnectionString string        `mapstructure:"connection_string"`
	Container        string        `mapstructure:"container"`
	LinkTTL          time.Duration `mapstructure:"link_ttl"`
	UploadTimeout    time.Duration `mapstructure:"upload_timeout"`
}

type BrandConfig struct {
	Prefix         string `mapstructure:"prefix"`
	Title          string `mapstructure:"title"`
	ConsultantName string `mapstructure:"consultant_name"`
	ConsultantTel  string `mapstructure:"consultant_tel"`
}

type ExtractorConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	AntiwordPath string        `mapstructure:"antiword_path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	port := 5432
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Driver:   DriverPostgres,
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.workers", 4)
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("telegram.download_timeout", "60s")
	v.SetDefault("telegram.max_file_size", 20<<20)

	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.api_version", "2024-02-01")
	v.SetDefault("openai.max_tokens", 4000)
	v.SetDefault("openai.summary_max_tokens", 300)
	v.SetDefault("openai.temperature", 0.2)
	v.SetDefault("openai.structure_timeout", "120s")
	v.SetDefault("openai.summary_timeout", "60s")
	v.SetDefault("openai.intent_timeout", "10s")
	v.SetDefault("openai.max_input_tokens", 12000)

	v.SetDefault("classifier.enabled", false)
	v.SetDefault("classifier.min_confidence", 0.7)

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "cvbot.db")
	v.SetDefault("database.state_timeout", "2s")
	v.SetDefault("database.purge_schedule", "@every 1m")

	v.SetDefault("blob.container", "cv-outputs")
	v.SetDefault("blob.link_ttl", "168h")
	v.SetDefault("blob.upload_timeout", "30s")

	v.SetDefault("brand.prefix", "Meraki_CV")
	v.SetDefault("brand.title", "Meraki Talent")

	v.SetDefault("extractor.timeout", "30s")
	v.SetDefault("extractor.antiword_path", "antiword")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads path and applies environment overrides. A missing file
// is not an error when everything needed comes from the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		dbConfig.StateTimeout = config.Database.StateTimeout
		dbConfig.PurgeSchedule = config.Database.PurgeSchedule
		config.Database = dbConfig
	}

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if endpoint := v.GetString("AZURE_OPENAI_ENDPOINT"); endpoint != "" {
		config.OpenAI.AzureEndpoint = endpoint
	}
	if conn := v.GetString("AZURE_STORAGE_CONNECTION_STRING"); conn != "" {
		config.Blob.ConnectionString = conn
	}

	return &config, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}
	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("openai.api_key is required"))
	}
	if c.Blob.ConnectionString == "" {
		errs = append(errs, errors.New("blob.connection_string is required"))
	}
	switch c.Database.Driver {
	case DriverMemory, DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of memory, postgres, sqlite", c.Database.Driver))
	}
	if c.Classifier.MinConfidence < 0 || c.Classifier.MinConfidence > 1 {
		errs = append(errs, errors.New("classifier.min_confidence must be between 0 and 1"))
	}
	return errors.Join(errs...)
}
