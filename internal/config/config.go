package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Payment  PaymentConfig
	Storage  StorageConfig
	Telegram TelegramConfig
	Cron     CronConfig
	CORS     CORSConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port        int
	Env         string // "development", "production"
	AppURL      string
	FrontendURL string
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type PaymentConfig struct {
	SSLCommerz SSLCommerzConfig
}

type SSLCommerzConfig struct {
	StoreID       string
	StorePassword string
	Sandbox       bool
	SuccessURL    string
	FailURL       string
	CancelURL     string
	Timeout       time.Duration
	PendingTTL    time.Duration
}

type StorageConfig struct {
	Driver    string // "local" or "s3"
	LocalDir  string
	PublicURL string
	S3        S3Config
}

type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type TelegramConfig struct {
	Token       string
	AdminChatID string
}

type CronConfig struct {
	ReconcileSpec string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type AdminConfig struct {
	Email    string
	Password string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	setDefaults()

	appURL := strings.TrimRight(viper.GetString("APP_URL"), "/")

	cfg := &Config{
		Server: ServerConfig{
			Port:        viper.GetInt("APP_PORT"),
			Env:         viper.GetString("APP_ENV"),
			AppURL:      appURL,
			FrontendURL: strings.TrimRight(viper.GetString("FRONTEND_URL"), "/"),
		},
		Database: loadDatabase(),
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Expiry: durationOr("JWT_EXPIRY", 24*time.Hour),
		},
		Payment: PaymentConfig{
			SSLCommerz: SSLCommerzConfig{
				StoreID:       viper.GetString("SSLCOMMERZ_STORE_ID"),
				StorePassword: viper.GetString("SSLCOMMERZ_STORE_PASSWORD"),
				Sandbox:       viper.GetBool("SSLCOMMERZ_SANDBOX"),
				SuccessURL:    stringOr("SSLCOMMERZ_SUCCESS_URL", appURL+"/api/payment/success"),
				FailURL:       stringOr("SSLCOMMERZ_FAIL_URL", appURL+"/api/payment/fail"),
				CancelURL:     stringOr("SSLCOMMERZ_CANCEL_URL", appURL+"/api/payment/cancel"),
				Timeout:       durationOr("SSLCOMMERZ_TIMEOUT", 30*time.Second),
				PendingTTL:    durationOr("PAYMENT_PENDING_TTL", 30*time.Minute),
			},
		},
		Storage: StorageConfig{
			Driver:    viper.GetString("STORAGE_DRIVER"),
			LocalDir:  viper.GetString("STORAGE_LOCAL_DIR"),
			PublicURL: stringOr("STORAGE_PUBLIC_URL", appURL+"/storage"),
			S3: S3Config{
				Endpoint:     viper.GetString("S3_ENDPOINT"),
				Region:       viper.GetString("S3_REGION"),
				Bucket:       viper.GetString("S3_BUCKET"),
				AccessKey:    viper.GetString("S3_ACCESS_KEY"),
				SecretKey:    viper.GetString("S3_SECRET_KEY"),
				UsePathStyle: viper.GetBool("S3_USE_PATH_STYLE"),
			},
		},
		Telegram: TelegramConfig{
			Token:       viper.GetString("BOT_TOKEN"),
			AdminChatID: viper.GetString("BOT_ADMIN_CHAT_ID"),
		},
		Cron: CronConfig{
			ReconcileSpec: viper.GetString("PAYMENT_RECONCILE_SPEC"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Admin: AdminConfig{
			Email:    viper.GetString("ADMIN_EMAIL"),
			Password: viper.GetString("ADMIN_PASSWORD"),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set")
	}
	if cfg.Payment.SSLCommerz.StoreID == "" {
		log.Println("WARNING: SSLCOMMERZ_STORE_ID is not set")
	}

	return cfg, nil
}

// LoadDatabaseOnly reads just the database settings, used by the CLI maintenance modes.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	_ = godotenv.Load()
	viper.AutomaticEnv()
	setDefaults()
	db := loadDatabase()
	return &db, nil
}

// IsDevelopment reports whether APP_ENV is "development".
func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func setDefaults() {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("APP_URL", "http://localhost:8000")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_EXPIRY", "24h")
	viper.SetDefault("SSLCOMMERZ_SANDBOX", true)
	viper.SetDefault("SSLCOMMERZ_TIMEOUT", "30s")
	viper.SetDefault("PAYMENT_PENDING_TTL", "30m")
	viper.SetDefault("PAYMENT_RECONCILE_SPEC", "0 */10 * * * *")
	viper.SetDefault("STORAGE_DRIVER", "local")
	viper.SetDefault("STORAGE_LOCAL_DIR", "storage")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_USE_PATH_STYLE", true)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:    viper.GetString("DB_HOST"),
		Port:    viper.GetString("DB_PORT"),
		Name:    viper.GetString("DB_NAME"),
		User:    viper.GetString("DB_USER"),
		Pass:    viper.GetString("DB_PASS"),
		Charset: viper.GetString("DB_CHARSET"),
	}
}

func stringOr(key, fallback string) string {
	if v := strings.TrimSpace(viper.GetString(key)); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
