package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Leads      LeadsConfig      `mapstructure:"leads"`
	Documents  DocumentsConfig  `mapstructure:"documents"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AuthRatePerMinute limits register/login attempts per client; 0 disables.
	AuthRatePerMinute float64 `mapstructure:"auth_rate_per_minute"`
	AuthBurst         int     `mapstructure:"auth_burst"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	AdminEmails []string      `mapstructure:"admin_emails"`
}

type ClassifierConfig struct {
	LongConversation int `mapstructure:"long_conversation"`
}

type LeadsConfig struct {
	MineLimit   int `mapstructure:"mine_limit"`
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

type DocumentsConfig struct {
	MaxSize int64 `mapstructure:"max_size"`
}

type TelegramConfig struct {
	Token           string  `mapstructure:"token"`
	SalesChatID     int64   `mapstructure:"sales_chat_id"`
	OperatorChatIDs []int64 `mapstructure:"operator_chat_ids"`
}

type SMTPConfig struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	From             string `mapstructure:"from"`
	SalesTo          string `mapstructure:"sales_to"`
	SendConfirmation bool   `mapstructure:"send_confirmation"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Host == "" {
		return DatabaseConfig{}, fmt.Errorf("missing host in %q", u.Redacted())
	}

	password, _ := u.User.Password()
	port := 5432
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return DatabaseConfig{}, fmt.Errorf("invalid port %q", u.Port())
		}
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.auth_rate_per_minute", 30)
	v.SetDefault("server.auth_burst", 10)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "docdesk")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)

	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.7)

	v.SetDefault("auth.token_ttl", 7*24*time.Hour)

	v.SetDefault("classifier.long_conversation", 5)

	v.SetDefault("leads.mine_limit", 10)
	v.SetDefault("leads.page_size", 20)
	v.SetDefault("leads.max_page_size", 100)

	v.SetDefault("documents.max_size", 10<<20)

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.send_confirmation", true)

	v.SetDefault("kafka.topic", "leads")

	// keys without a real default still need registering so that
	// AutomaticEnv can override them during Unmarshal
	for _, key := range []string{
		"database.password",
		"openai.api_key",
		"auth.jwt_secret", "auth.admin_emails",
		"telegram.token", "telegram.sales_chat_id", "telegram.operator_chat_ids",
		"smtp.host", "smtp.username", "smtp.password", "smtp.from", "smtp.sales_to",
		"kafka.brokers",
		"sentry.dsn", "sentry.environment",
		"log.development",
	} {
		v.SetDefault(key, nil)
	}
}

// LoadConfig reads path (optional), then .env and the environment.
// Environment variables override the file, e.g. SMTP_HOST for smtp.host.
func LoadConfig(path string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
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
		dbConfig.UseInMemory = config.Database.UseInMemory
		config.Database = dbConfig
	}

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if secret := v.GetString("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if port := v.GetString("PORT"); port != "" {
		config.Server.Port = port
	}
	if dsn := v.GetString("SENTRY_DSN"); dsn != "" {
		config.Sentry.DSN = dsn
	}

	if config.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret (or JWT_SECRET) must be set")
	}

	return &config, nil
}
