package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the resolved application configuration. It is populated once by
// InitConfig at process start.
var Conf *Config

type (
	Config struct {
		Debug     bool
		TestMode  bool
		Env       string
		AppName   string
		SecretKey string
		WorkDir   string

		Server    ServerConfig
		Database  DatabaseConfig
		RateLimit RateLimitConfig
		AI        AIConfig
		CodeRun   CodeRunConfig

		DefaultFromEmail string
		SendgridAPIKey   string
		RollbarToken     string
	}

	ServerConfig struct {
		Host               string
		Port               string
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		DisableTLS bool

		// Pool bounds; see storage/database.Pool.
		PoolMinConns       int
		PoolMaxConns       int
		PoolAllowStandalone bool
	}

	RateLimitConfig struct {
		PerMinute        int
		AuthPerMinute    int
		AITutorPerMinute int
		AITutorPerHour   int
		AITutorPerDay    int
	}

	AIConfig struct {
		Provider string // replicate | ollama | gemini

		ReplicateAPIKey string
		ReplicateModel  string

		OllamaURL   string
		OllamaModel string

		GeminiAPIKey string
		GeminiModel  string

		RequestTimeout time.Duration
	}

	CodeRunConfig struct {
		JDoodleClientID     string
		JDoodleClientSecret string
		RequestTimeout      time.Duration
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// InitConfig loads configuration from the environment (optionally seeded from
// config/.env.<env>) and materializes it into Conf.
func InitConfig() {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("appName", "EduSphere")
	v.SetDefault("secretKey", "x7kp-dev)only$+31=qa&wole4(h!z)#*f9(#mg2h^$notprod")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("jwtExpirationDelta", 2*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbUser", "postgres")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbName", "edusphere")
	v.SetDefault("dbDisableTLS", false)
	v.SetDefault("poolMinConns", 10)
	v.SetDefault("poolMaxConns", 50)
	v.SetDefault("poolAllowStandalone", true)

	v.SetDefault("rateLimitPerMinute", 60)
	v.SetDefault("rateLimitAuthPerMinute", 10)
	v.SetDefault("aiTutorRequestsPerMinute", 5)
	v.SetDefault("aiTutorRequestsPerHour", 30)
	v.SetDefault("aiTutorRequestsPerDay", 100)

	v.SetDefault("llmProvider", "replicate")
	v.SetDefault("replicateModel", "replicate/mistral-7b-instruct-v0.2")
	v.SetDefault("ollamaUrl", "http://localhost:11434/api/generate")
	v.SetDefault("ollamaModel", "mistral:7b")
	v.SetDefault("geminiModel", "models/gemini-2.5-flash")
	v.SetDefault("aiRequestTimeout", 60*time.Second)
	v.SetDefault("codeRunRequestTimeout", 20*time.Second)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Debug:     v.GetBool("debug"),
		TestMode:  env == "TEST",
		Env:       env,
		AppName:   v.GetString("appName"),
		SecretKey: v.GetString("secretKey"),
		WorkDir:   wd,
		Server: ServerConfig{
			Host:               v.GetString("serverHost"),
			Port:               v.GetString("serverPort"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:              v.GetString("dbEngine"),
			Host:                v.GetString("dbHost"),
			Port:                v.GetString("dbPort"),
			User:                v.GetString("dbUser"),
			Password:            v.GetString("dbPassword"),
			Name:                v.GetString("dbName"),
			DisableTLS:          v.GetBool("dbDisableTLS"),
			PoolMinConns:        v.GetInt("poolMinConns"),
			PoolMaxConns:        v.GetInt("poolMaxConns"),
			PoolAllowStandalone: v.GetBool("poolAllowStandalone"),
		},
		RateLimit: RateLimitConfig{
			PerMinute:        v.GetInt("rateLimitPerMinute"),
			AuthPerMinute:    v.GetInt("rateLimitAuthPerMinute"),
			AITutorPerMinute: v.GetInt("aiTutorRequestsPerMinute"),
			AITutorPerHour:   v.GetInt("aiTutorRequestsPerHour"),
			AITutorPerDay:    v.GetInt("aiTutorRequestsPerDay"),
		},
		AI: AIConfig{
			Provider:        v.GetString("llmProvider"),
			ReplicateAPIKey: v.GetString("replicateApiKey"),
			ReplicateModel:  v.GetString("replicateModel"),
			OllamaURL:       v.GetString("ollamaUrl"),
			OllamaModel:     v.GetString("ollamaModel"),
			GeminiAPIKey:    v.GetString("geminiApiKey"),
			GeminiModel:     v.GetString("geminiModel"),
			RequestTimeout:  v.GetDuration("aiRequestTimeout"),
		},
		CodeRun: CodeRunConfig{
			JDoodleClientID:     v.GetString("jdoodleClientId"),
			JDoodleClientSecret: v.GetString("jdoodleClientSecret"),
			RequestTimeout:      v.GetDuration("codeRunRequestTimeout"),
		},
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
	}
}
