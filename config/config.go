package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Signing configuration
	SecretKey    string
	StrictExpiry bool

	// QR generation configuration
	QROutputDir    string
	ScannerBaseURL string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	ScanFeedChannel    string

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Signing. StrictExpiry controls how an unreadable valid_until date
		// is handled: false keeps the historical fail-open behavior (the
		// code is treated as non-expiring), true rejects the scan.
		SecretKey:    getEnv("SCAN_SECRET_KEY", ""),
		StrictExpiry: getEnvAsBool("STRICT_EXPIRY", false),

		// QR generation
		QROutputDir:    getEnv("QR_OUTPUT_DIR", "qrcodes"),
		ScannerBaseURL: getEnv("SCANNER_BASE_URL", ""),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		ScanFeedChannel:    getEnv("SCAN_FEED_CHANNEL", "scan-feed"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
