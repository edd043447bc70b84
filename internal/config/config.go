package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Cookies     CookieConfig
	RateLimit   RateLimitConfig
	Translator  TranslatorConfig
	PDFRenderer PDFRendererConfig
	Chatbot     ChatbotConfig
	Storage     StorageConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AuthConfig carries the token key material locations and lifetimes.
// The cookie max-age tracks the token expiry, so these TTLs are the single
// source of truth for both.
type AuthConfig struct {
	PrivateKeyPath  string
	PublicKeyPath   string
	KeyPassphrase   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type CookieConfig struct {
	Secret string
	Secure bool
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// TranslatorConfig points at the external Banglish-to-Bangla model service.
type TranslatorConfig struct {
	URL     string
	Timeout time.Duration
}

type PDFRendererConfig struct {
	URL     string
	Timeout time.Duration
}

type ChatbotConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "banglalekha")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("AUTH_PRIVATE_KEY_PATH", "secretKeys/tokenPrivate.pem")
	viper.SetDefault("AUTH_PUBLIC_KEY_PATH", "secretKeys/tokenPublic.pem")
	viper.SetDefault("AUTH_ACCESS_TOKEN_TTL", 15)     // minutes
	viper.SetDefault("AUTH_REFRESH_TOKEN_TTL", 21600) // minutes (15 days)
	viper.SetDefault("COOKIE_SECURE", true)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("TRANSLATOR_TIMEOUT", 30)
	viper.SetDefault("PDF_RENDERER_TIMEOUT", 30)
	viper.SetDefault("CHATBOT_TIMEOUT", 60)
	viper.SetDefault("STORAGE_BUCKET", "banglalekha-pdf")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Auth: AuthConfig{
			PrivateKeyPath:  viper.GetString("AUTH_PRIVATE_KEY_PATH"),
			PublicKeyPath:   viper.GetString("AUTH_PUBLIC_KEY_PATH"),
			KeyPassphrase:   os.Getenv("AUTH_KEY_PASSPHRASE"),
			AccessTokenTTL:  time.Duration(viper.GetInt("AUTH_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(viper.GetInt("AUTH_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		Cookies: CookieConfig{
			Secret: os.Getenv("COOKIE_SECRET"),
			Secure: viper.GetBool("COOKIE_SECURE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Translator: TranslatorConfig{
			URL:     viper.GetString("TRANSLATOR_URL"),
			Timeout: time.Duration(viper.GetInt("TRANSLATOR_TIMEOUT")) * time.Second,
		},
		PDFRenderer: PDFRendererConfig{
			URL:     viper.GetString("PDF_RENDERER_URL"),
			Timeout: time.Duration(viper.GetInt("PDF_RENDERER_TIMEOUT")) * time.Second,
		},
		Chatbot: ChatbotConfig{
			URL:     viper.GetString("CHATBOT_URL"),
			APIKey:  os.Getenv("CHATBOT_API_KEY"),
			Timeout: time.Duration(viper.GetInt("CHATBOT_TIMEOUT")) * time.Second,
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
		},
	}

	// Basic validation
	if cfg.Cookies.Secret == "" {
		log.Println("WARNING: COOKIE_SECRET is not set; set a secure value in production")
	}

	return cfg, nil
}
