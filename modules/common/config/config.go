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

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Server
	Port   string
	AppEnv string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBaseURL string
	SupabaseBucket         string

	// Gemini API
	GeminiAPIKey   string
	UseVertexAI    bool
	GoogleProject  string
	GoogleLocation string

	// 모델
	StandardModel string
	PremiumModel  string
	TextModel     string

	// Generation
	GenerationTimeout time.Duration
	GenerationMode    string // direct | proxied
	ProxyURL          string
	ProxyRateLimit    float64 // 초당 요청 수, 0이면 제한 없음
}

const (
	ModeDirect  = "direct"
	ModeProxied = "proxied"
)

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	cfg := FromEnv()

	// 필수 환경변수 검증
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Env: %s", cfg.AppEnv)
	log.Printf("   Redis: %s (TLS: %v)", cfg.GetRedisAddr(), cfg.RedisUseTLS)
	log.Printf("   Supabase: %s", cfg.SupabaseURL)
	log.Printf("   Models: standard=%s, premium=%s, text=%s", cfg.StandardModel, cfg.PremiumModel, cfg.TextModel)
	log.Printf("   Generation: mode=%s, timeout=%s", cfg.GenerationMode, cfg.GenerationTimeout)
	if cfg.GeminiAPIKey == "" {
		log.Println("⚠️  GEMINI_API_KEY is empty - proxy and environment credential are disabled")
	}

	return cfg, nil
}

// FromEnv - .env 로드 없이 현재 환경변수로 Config 생성
func FromEnv() *Config {
	return &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", getEnv("NODE_ENV", "development")),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getBool("REDIS_USE_TLS", false),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),
		SupabaseBucket:         getEnv("SUPABASE_BUCKET", "generations"),

		// VITE_ 접두사는 프론트 빌드 환경과 공유하는 경우
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", getEnv("VITE_GEMINI_API_KEY", "")),
		UseVertexAI:    getBool("GOOGLE_GENAI_USE_VERTEXAI", false),
		GoogleProject:  getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleLocation: getEnv("GOOGLE_CLOUD_LOCATION", "us-central1"),

		StandardModel: getEnv("STANDARD_MODEL", "gemini-2.5-flash-image"),
		PremiumModel:  getEnv("PREMIUM_MODEL", "gemini-3-pro-image-preview"),
		TextModel:     getEnv("TEXT_MODEL", "gemini-2.5-flash"),

		GenerationTimeout: getDuration("GENERATION_TIMEOUT", 15*time.Second),
		GenerationMode:    strings.ToLower(getEnv("GENERATION_MODE", ModeDirect)),
		ProxyURL:          getEnv("PROXY_URL", ""),
		ProxyRateLimit:    getFloat("PROXY_RATE_LIMIT", 0),
	}
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	switch c.GenerationMode {
	case ModeDirect:
	case ModeProxied:
		if c.ProxyURL == "" {
			return fmt.Errorf("PROXY_URL is required when GENERATION_MODE=proxied")
		}
	default:
		return fmt.Errorf("invalid GENERATION_MODE: %s", c.GenerationMode)
	}
	if c.UseVertexAI && c.GoogleProject == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required when GOOGLE_GENAI_USE_VERTEXAI=true")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction - 운영 환경 여부
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if s := os.Getenv(key); s != "" {
		if parsed, err := strconv.ParseBool(s); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, s, defaultValue)
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if s := os.Getenv(key); s != "" {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, s, defaultValue)
	}
	return defaultValue
}

// getDuration - "15s" 형식 또는 초 단위 숫자 모두 허용
func getDuration(key string, defaultValue time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("⚠️  Invalid %s=%q, using default %v", key, s, defaultValue)
	return defaultValue
}
