package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=cafe port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	DBType      string `mapstructure:"DB_TYPE"` // postgres | sqlite
	DatabaseDSN string `mapstructure:"DATABASE_DSN"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	CORSOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Environment string `mapstructure:"APP_ENV"`
	ServiceName string `mapstructure:"SERVICE_NAME"`

	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`

	// Bu değerin altındaki malzemeler "düşük stok" sayılır
	LowStockThreshold float64 `mapstructure:"LOW_STOCK_THRESHOLD"`
	// İade satışın malzeme düşümünü de geri alsın mı?
	RefundRestoresMaterials bool `mapstructure:"REFUND_RESTORES_MATERIALS"`
	// İlk açılışta varsayılan kategorileri ekle
	SeedDefaults bool `mapstructure:"SEED_DEFAULTS"`

	// Load sırasında toplanan uyarılar (logger henüz yokken)
	Warnings []string `mapstructure:"-"`
}

var keys = map[string]any{
	"HTTP_PORT":                 "8080",
	"DB_TYPE":                   "postgres",
	"DATABASE_DSN":              defaultDSN,
	"SQLITE_PATH":               "cafe.db",
	"CORS_ALLOWED_ORIGINS":      defaultCORSOrigins,
	"LOG_LEVEL":                 "info",
	"APP_ENV":                   "production",
	"SERVICE_NAME":              "cafe-backend",
	"METRICS_ENABLED":           true,
	"LOW_STOCK_THRESHOLD":       100.0,
	"REFUND_RESTORES_MATERIALS": false,
	"SEED_DEFAULTS":             true,
}

// Load .env (varsa), CONFIG_FILE (varsa) ve ortam değişkenlerinden ayarları okur.
// Ortam değişkenleri dosyadaki değerleri ezer.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(".env okunamadı: %w", err)
	}

	v := viper.New()
	for k, def := range keys {
		v.SetDefault(k, def)
		// AutomaticEnv Unmarshal için anahtarın bilinmesini ister
		_ = v.BindEnv(k)
	}
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config dosyası okunamadı: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config çözümlenemedi: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.DBType = strings.ToLower(strings.TrimSpace(c.DBType))
	switch c.DBType {
	case "postgres", "postgresql":
		c.DBType = "postgres"
		if c.DatabaseDSN == defaultDSN {
			c.Warnings = append(c.Warnings, "DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("DB_TYPE=sqlite için SQLITE_PATH zorunlu")
		}
	default:
		return fmt.Errorf("geçersiz DB_TYPE: %q (postgres veya sqlite olmalı)", c.DBType)
	}

	if c.LowStockThreshold <= 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD 0'dan büyük olmalı: %v", c.LowStockThreshold)
	}
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT boş olamaz")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		c.Warnings = append(c.Warnings, "CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}
	return nil
}

// CORSOriginList virgülle ayrılmış origin listesini temizler
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
