package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
    // Server
    Port        string
    Environment string

    // AI Service
    AI AIConfig

    // Google Calendar
    Calendar CalendarConfig

    // Maps / pharmacy search
    Maps MapsConfig

    // Translation
    Translate TranslateConfig

    // Security
    Security SecurityConfig
}

type AIConfig struct {
    APIKey      string
    Model       string
    MaxTokens   int
    Temperature float64
    Timeout     time.Duration

    // Bounded retry policy for the generation endpoint. Only timeouts are
    // retried; other failures abort immediately.
    MaxAttempts int
    RetryDelay  time.Duration
}

type CalendarConfig struct {
    CredentialsFile string
    TokenFile       string
    CalendarID      string
    Timezone        string
}

type MapsConfig struct {
    APIKey       string
    SearchRadius uint

    // Used when IP geolocation fails.
    FallbackLat float64
    FallbackLng float64
}

type TranslateConfig struct {
    Endpoint string
    Timeout  time.Duration
}

type SecurityConfig struct {
    AllowedOrigins []string
}

var cfg *Config

// Load initializes the configuration
func Load() error {
    // Load .env file
    if err := godotenv.Load(); err != nil {
        log.Println("No .env file found, using environment variables")
    }

    cfg = &Config{
        Port:        getEnv("PORT", "8080"),
        Environment: getEnv("ENVIRONMENT", "development"),

        AI: AIConfig{
            APIKey:      getEnv("GEMINI_API_KEY", ""),
            Model:       getEnv("AI_MODEL", "gemini-1.5-flash"),
            MaxTokens:   getEnvAsInt("AI_MAX_TOKENS", 500),
            Temperature: getEnvAsFloat("AI_TEMPERATURE", 0.7),
            Timeout:     getEnvAsDuration("AI_TIMEOUT", "10s"),
            MaxAttempts: getEnvAsInt("AI_MAX_ATTEMPTS", 3),
            RetryDelay:  getEnvAsDuration("AI_RETRY_DELAY", "2s"),
        },

        Calendar: CalendarConfig{
            CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
            TokenFile:       getEnv("GOOGLE_TOKEN_FILE", "token.json"),
            CalendarID:      getEnv("GOOGLE_CALENDAR_ID", "primary"),
            Timezone:        getEnv("CALENDAR_TIMEZONE", "Asia/Kolkata"),
        },

        Maps: MapsConfig{
            APIKey:       getEnv("MAPS_API_KEY", ""),
            SearchRadius: uint(getEnvAsInt("MAPS_SEARCH_RADIUS", 5000)),
            FallbackLat:  getEnvAsFloat("GEO_FALLBACK_LAT", 28.6139),
            FallbackLng:  getEnvAsFloat("GEO_FALLBACK_LNG", 77.2090),
        },

        Translate: TranslateConfig{
            Endpoint: getEnv("TRANSLATE_ENDPOINT", "https://translate.googleapis.com/translate_a/single"),
            Timeout:  getEnvAsDuration("TRANSLATE_TIMEOUT", "10s"),
        },

        Security: SecurityConfig{
            AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8501"}),
        },
    }

    // Validate configuration
    if err := validate(); err != nil {
        return fmt.Errorf("configuration validation failed: %w", err)
    }

    return nil
}

// Get returns the loaded configuration
func Get() *Config {
    if cfg == nil {
        log.Fatal("Configuration not loaded. Call Load() first")
    }
    return cfg
}

// Helper functions
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
    valueStr := getEnv(key, "")
    if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
        return value
    }
    return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
    valueStr := getEnv(key, defaultValue)
    if duration, err := time.ParseDuration(valueStr); err == nil {
        return duration
    }
    duration, _ := time.ParseDuration(defaultValue)
    return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
    value := getEnv(key, "")
    if value == "" {
        return defaultValue
    }
    // Simple comma-separated parsing
    return strings.Split(value, ",")
}

func validate() error {
    if cfg.AI.APIKey == "" {
        return fmt.Errorf("GEMINI_API_KEY is required")
    }

    if cfg.AI.MaxAttempts < 1 {
        return fmt.Errorf("AI_MAX_ATTEMPTS must be at least 1")
    }

    return nil
}
