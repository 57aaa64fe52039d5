package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Terrain  TerrainConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Path            string
	MigrationsPath  string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LoggingConfig struct {
	Level      string
	Format     string
	Structured bool
}

// TerrainConfig carries the defaults applied when a map request omits a
// parameter, plus housekeeping for the in-memory map registry.
type TerrainConfig struct {
	DefaultWidth     int
	DefaultHeight    int
	DefaultRoughness float64
	DefaultBlockSize int
	DefaultAlgorithm string
	MapTTL           time.Duration
	EvictionInterval time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnvStr("PORT", "8080"),
			ReadTimeout:     getEnvDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Path:            getEnvStr("DB_PATH", "./terramesh.db"),
			MigrationsPath:  getEnvStr("DB_MIGRATIONS_PATH", "./internal/db/migrations"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:      getEnvStr("LOG_LEVEL", "info"),
			Format:     getEnvStr("LOG_FORMAT", "json"),
			Structured: getEnvBool("LOG_STRUCTURED", true),
		},
		Terrain: TerrainConfig{
			DefaultWidth:     getEnvInt("TERRAIN_DEFAULT_WIDTH", 600),
			DefaultHeight:    getEnvInt("TERRAIN_DEFAULT_HEIGHT", 600),
			DefaultRoughness: getEnvFloat("TERRAIN_DEFAULT_ROUGHNESS", 0.98),
			DefaultBlockSize: getEnvInt("TERRAIN_DEFAULT_BLOCK_SIZE", 60),
			DefaultAlgorithm: getEnvStr("TERRAIN_DEFAULT_ALGORITHM", "recursive-diamond-square"),
			MapTTL:           getEnvDuration("TERRAIN_MAP_TTL", time.Hour),
			EvictionInterval: getEnvDuration("TERRAIN_EVICTION_INTERVAL", 5*time.Minute),
		},
	}
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
