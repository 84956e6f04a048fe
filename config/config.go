package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string              `mapstructure:"port"`
	UploadDir           string              `mapstructure:"upload_dir"`
	AIProvider          string              `mapstructure:"ai_provider"` // "openai" or "gemini"
	AIEndpoint          string              `mapstructure:"ai_endpoint"`
	Model               string              `mapstructure:"model"`
	OpenAIAPIKey        string              `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys       []string            `mapstructure:"gemini_api_keys"`
	EmbedderEndpoint    string              `mapstructure:"embedder_endpoint"`
	EmbedderModel       string              `mapstructure:"embedder_model"`
	EmbedderAPIKey      string              `mapstructure:"EMBEDDER_API_KEY"`
	Generation          GenerationConfig    `mapstructure:"generation"`
	Validation          ValidationConfig    `mapstructure:"validation"`
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
}

type GenerationConfig struct {
	MaxChunkChars  int           `mapstructure:"max_chunk_chars"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type ValidationConfig struct {
	SimilarityThreshold  float32 `mapstructure:"similarity_threshold"`
	EvidenceCutoff       float32 `mapstructure:"evidence_cutoff"`
	TopK                 int     `mapstructure:"top_k"`
	UseModelVerification bool    `mapstructure:"use_model_verification"`
}

type WeaviateStoreConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"` // Changed to match env var
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set up Viper to read from config file
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set up Viper to read from environment variables
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind environment variables
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("EMBEDDER_API_KEY")
	v.BindEnv("WEAVIATE_APIKEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(c *Config) {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.AIProvider == "" {
		c.AIProvider = "openai"
	}
	if c.Generation.MaxChunkChars <= 0 {
		c.Generation.MaxChunkChars = 1200
	}
	if c.Generation.RequestTimeout <= 0 {
		c.Generation.RequestTimeout = 60 * time.Second
	}
	if c.Generation.MaxRetries <= 0 {
		c.Generation.MaxRetries = 2
	}
	if c.Validation.SimilarityThreshold <= 0 {
		c.Validation.SimilarityThreshold = 0.5
	}
	if c.Validation.EvidenceCutoff <= 0 {
		c.Validation.EvidenceCutoff = 0.5
	}
	if c.Validation.TopK <= 0 {
		c.Validation.TopK = 4
	}
}
