package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Redis      RedisConfig
	Archive    ArchiveConfig
	LLM        LLMConfig
	Generation GenerationConfig
	Cache      CacheConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ArchiveConfig configures the SQLite quiz archive. An empty path disables
// archiving.
type ArchiveConfig struct {
	Path string
}

type LLMConfig struct {
	Provider       string
	RequestTimeout time.Duration
	OpenAI         OpenAIConfig
	Ollama         OllamaConfig
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type OllamaConfig struct {
	ServerURL string
	Model     string
}

// GenerationConfig holds the orchestrator defaults. Request-level values
// override these per run.
type GenerationConfig struct {
	MaxMCQ               int
	MaxShort             int
	SingleCallTokenLimit int
	ChunkTargetTokens    int
	PerChunkMCQ          int
	PerChunkShort        int
	MapConcurrency       int
	MaxRetries           int
	Temperature          float64
}

type CacheConfig struct {
	ResultTTL time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Archive: ArchiveConfig{
			Path: viper.GetString("archive.path"),
		},
		LLM: LLMConfig{
			Provider:       viper.GetString("llm.provider"),
			RequestTimeout: viper.GetDuration("llm.request_timeout") * time.Second,
			OpenAI: OpenAIConfig{
				APIKey: viper.GetString("llm.openai.api_key"),
				Model:  viper.GetString("llm.openai.model"),
			},
			Ollama: OllamaConfig{
				ServerURL: viper.GetString("llm.ollama.server_url"),
				Model:     viper.GetString("llm.ollama.model"),
			},
		},
		Generation: GenerationConfig{
			MaxMCQ:               viper.GetInt("generation.max_mcq"),
			MaxShort:             viper.GetInt("generation.max_short"),
			SingleCallTokenLimit: viper.GetInt("generation.single_call_token_limit"),
			ChunkTargetTokens:    viper.GetInt("generation.chunk_target_tokens"),
			PerChunkMCQ:          viper.GetInt("generation.per_chunk_mcq"),
			PerChunkShort:        viper.GetInt("generation.per_chunk_short"),
			MapConcurrency:       viper.GetInt("generation.map_concurrency"),
			MaxRetries:           viper.GetInt("generation.max_retries"),
			Temperature:          viper.GetFloat64("generation.temperature"),
		},
		Cache: CacheConfig{
			ResultTTL: viper.GetDuration("cache.result_ttl") * time.Second,
		},
	}

	// Environment variable overrides
	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = viper.GetInt("SERVER_PORT")
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.OpenAI.APIKey = apiKey
	}
	if serverURL := os.Getenv("OLLAMA_SERVER_URL"); serverURL != "" {
		config.LLM.Ollama.ServerURL = serverURL
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if archivePath := os.Getenv("ARCHIVE_PATH"); archivePath != "" {
		config.Archive.Path = archivePath
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 120)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "development")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.request_timeout", 30)
	viper.SetDefault("llm.openai.model", "gpt-3.5-turbo")
	viper.SetDefault("llm.ollama.server_url", "http://localhost:11434")
	viper.SetDefault("llm.ollama.model", "qwen3:0.6b")
	viper.SetDefault("generation.max_mcq", 8)
	viper.SetDefault("generation.max_short", 4)
	viper.SetDefault("generation.single_call_token_limit", 6000)
	viper.SetDefault("generation.chunk_target_tokens", 1500)
	viper.SetDefault("generation.per_chunk_mcq", 2)
	viper.SetDefault("generation.per_chunk_short", 1)
	viper.SetDefault("generation.map_concurrency", 4)
	viper.SetDefault("generation.max_retries", 2)
	viper.SetDefault("generation.temperature", 0.2)
	viper.SetDefault("cache.result_ttl", 3600)
}
