package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_URL", "http://api.example.test/")
	t.Setenv("DB_NAME", "furnistore")
	t.Setenv("SSLCOMMERZ_TIMEOUT", "bogus")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://api.example.test", cfg.Server.AppURL)
	assert.Equal(t, "http://localhost:3000", cfg.Server.FrontendURL)
	assert.Equal(t, "http://api.example.test/api/payment/success", cfg.Payment.SSLCommerz.SuccessURL)
	assert.Equal(t, "http://api.example.test/api/payment/fail", cfg.Payment.SSLCommerz.FailURL)
	assert.Equal(t, "http://api.example.test/api/payment/cancel", cfg.Payment.SSLCommerz.CancelURL)
	assert.Equal(t, 30*time.Second, cfg.Payment.SSLCommerz.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "local", cfg.Storage.Driver)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SSLCOMMERZ_SUCCESS_URL", "https://shop.test/ok")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test ,")
	t.Setenv("JWT_EXPIRY", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://shop.test/ok", cfg.Payment.SSLCommerz.SuccessURL)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiry)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "3306", Name: "shop", User: "u", Pass: "p", Charset: "utf8mb4"}
	assert.Equal(t, "u:p@tcp(db:3306)/shop?charset=utf8mb4&parseTime=True&loc=Local", d.DSN())
}
