package config

import (
	"path/filepath"
	"strings"
	"time"
)

// AppVersion is the released application version.
const AppVersion = "v1.2.0"

// Config holds all application configuration in a structured way.
type Config struct {
	App      AppConfig
	Paths    PathsConfig
	Database DatabaseConfig
	Bridge   BridgeConfig
	CloudAPI CloudAPIConfig
	Whatsapp WhatsappConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasePath           string
	BaseUrl            string
	BasicAuth          []string
	TrustedProxies     []string
	CorsAllowedOrigins []string
}

type PathsConfig struct {
	BaseDir  string
	Storages string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB Name for Postgres
}

// BridgeConfig configures the self-hosted multi-instance WhatsApp bridge.
type BridgeConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Delay applied after instance creation before the first QR fetch.
	QRSettleDelay time.Duration
}

// CloudAPIConfig configures the Meta-hosted Cloud API (single phone number).
type CloudAPIConfig struct {
	BaseURL           string
	AccessToken       string
	PhoneNumberID     string
	BusinessAccountID string
	VerifyToken       string
	AppSecret         string
	Timeout           time.Duration
}

type WhatsappConfig struct {
	TypeUser  string
	TypeGroup string
}

// Global provides access to the loaded configuration globally (Migration Helper)
var Global *Config

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := getEnvBool("APP_DEBUG", false) || getEnvBool("DEBUG", false)

	var basicAuth []string
	if v := getEnv("APP_BASIC_AUTH", ""); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := getEnv("APP_CORS_ALLOWED_ORIGINS", ""); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            AppVersion,
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		BasicAuth:          basicAuth,
		CorsAllowedOrigins: corsOrigins,
	}
	if v := getEnv("APP_TRUSTED_PROXIES", ""); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		BaseDir:  baseDir,
		Storages: baseDir,
	}

	dbCfg := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "sqlite"),
		Name:     getEnv("DB_NAME", filepath.Join(pathsCfg.Storages, "app.db")),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
	}

	bridgeCfg := BridgeConfig{
		BaseURL:       getEnv("BRIDGE_API_URL", "http://evolution:8080"),
		APIKey:        getEnv("BRIDGE_API_KEY", ""),
		Timeout:       time.Duration(getEnvInt("BRIDGE_TIMEOUT_SECONDS", 30)) * time.Second,
		QRSettleDelay: time.Duration(getEnvInt("BRIDGE_QR_SETTLE_MS", 1000)) * time.Millisecond,
	}

	cloudCfg := CloudAPIConfig{
		BaseURL:           getEnv("WA_API_BASE_URL", "https://graph.facebook.com/v18.0"),
		AccessToken:       getEnv("WA_ACCESS_TOKEN", ""),
		PhoneNumberID:     getEnv("WA_PHONE_NUMBER_ID", ""),
		BusinessAccountID: getEnv("WA_BUSINESS_ACCOUNT_ID", ""),
		VerifyToken:       getEnv("WA_VERIFY_TOKEN", "my_verify_token"),
		AppSecret:         getEnv("WA_APP_SECRET", ""),
		Timeout:           time.Duration(getEnvInt("WA_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	waCfg := WhatsappConfig{
		TypeUser:  "@s.whatsapp.net",
		TypeGroup: "@g.us",
	}

	cfg := &Config{
		App:      appCfg,
		Paths:    pathsCfg,
		Database: dbCfg,
		Bridge:   bridgeCfg,
		CloudAPI: cloudCfg,
		Whatsapp: waCfg,
	}

	Global = cfg
	return cfg, nil
}
