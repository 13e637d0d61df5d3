package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Language model
	Provider     string
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
	PromptFile   string
	// Intake
	IntakeSchemaFile string
	StartTriggers    []string // matched exactly, case-insensitive
	MaxSessions      int
	MaxMessages      int
	MaxUploadMB      int
	// Report sinks
	DatabaseURL   string
	MigrationsDir string
	ReportsDir    string
	// Evidence object storage (optional)
	EvidenceS3 S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether enough is set to talk to a bucket.
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:             getEnvDefault("PORT", "8080"),
		AllowedOrigin:    getEnvDefault("ALLOWED_ORIGIN", "*"),
		Provider:         strings.ToLower(getEnvDefault("LLM_PROVIDER", ProviderGemini)),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnvDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		PromptFile:       getEnvDefault("PROMPT_FILE", "./prompts/assistant.yaml"),
		IntakeSchemaFile: os.Getenv("INTAKE_SCHEMA_FILE"),
		StartTriggers:    getEnvListDefault("INTAKE_START_TRIGGERS", []string{"File Report", "start report"}),
		MaxSessions:      getEnvIntDefault("MAX_SESSIONS", 1024),
		MaxMessages:      getEnvIntDefault("MAX_MESSAGES", 40),
		MaxUploadMB:      getEnvIntDefault("MAX_UPLOAD_MB", 32),
		DatabaseURL:      os.Getenv("DB_URL"),
		MigrationsDir:    getEnvDefault("MIGRATIONS_DIR", "./migrations"),
		ReportsDir:       getEnvDefault("REPORTS_DIR", "data/reports"),
		EvidenceS3: S3Config{
			Endpoint:  os.Getenv("EVIDENCE_S3_ENDPOINT"),
			Region:    os.Getenv("EVIDENCE_S3_REGION"),
			AccessKey: os.Getenv("EVIDENCE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("EVIDENCE_S3_SECRET_KEY"),
			Bucket:    os.Getenv("EVIDENCE_S3_BUCKET"),
			UseSSL:    getEnvBoolDefault("EVIDENCE_S3_USE_SSL", true),
		},
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			log.Println("warning: OPENAI_API_KEY is not set; chat replies will fail until provided")
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			log.Println("warning: GEMINI_API_KEY is not set; chat replies will fail until provided")
		}
	default:
		log.Printf("warning: unknown LLM_PROVIDER %q, falling back to %s", cfg.Provider, ProviderGemini)
		cfg.Provider = ProviderGemini
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("warning: ignoring invalid %s=%q", key, v)
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
