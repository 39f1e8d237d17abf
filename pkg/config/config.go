package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Embedder struct {
		BaseURL     string `yaml:"base_url"`
		Model       string `yaml:"model"`
		VectorDim   int    `yaml:"vector_dim"`
		TimeoutSecs int    `yaml:"timeout_secs"`
	} `yaml:"embedder"`

	Generator struct {
		APIKey      string  `yaml:"api_key"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
		TimeoutSecs int     `yaml:"timeout_secs"`
	} `yaml:"generator"`

	Store struct {
		Type        string  `yaml:"type"`
		IndexName   string  `yaml:"index_name"`
		BatchSize   int     `yaml:"batch_size"`
		TopK        int     `yaml:"top_k"`
		RateLimit   float64 `yaml:"rate_limit"`
		TimeoutSecs int     `yaml:"timeout_secs"`
		APIKey      string  `yaml:"api_key"`
		Cloud       string  `yaml:"cloud"`
		Region      string  `yaml:"region"`
		URL         string  `yaml:"url"`
		TableName   string  `yaml:"table_name"`
	} `yaml:"store"`

	Chunker struct {
		Size    int `yaml:"size"`
		Overlap int `yaml:"overlap"`
	} `yaml:"chunker"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/jarvis/config.yaml"),
			"/etc/jarvis/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Embedder.BaseURL == "" {
		config.Embedder.BaseURL = "http://localhost:11434"
	}
	if config.Embedder.Model == "" {
		config.Embedder.Model = "all-minilm:latest"
	}
	if config.Embedder.VectorDim == 0 {
		config.Embedder.VectorDim = 384
	}
	if config.Embedder.TimeoutSecs == 0 {
		config.Embedder.TimeoutSecs = 30
	}

	if config.Generator.Model == "" {
		config.Generator.Model = "gemini-1.5-flash"
	}
	if config.Generator.Temperature == 0 {
		config.Generator.Temperature = 0.7
	}
	if config.Generator.MaxTokens == 0 {
		config.Generator.MaxTokens = 4096
	}
	if config.Generator.TimeoutSecs == 0 {
		config.Generator.TimeoutSecs = 30
	}

	if config.Store.Type == "" {
		config.Store.Type = "pinecone"
	}
	if config.Store.IndexName == "" {
		config.Store.IndexName = "jarvis-index"
	}
	if config.Store.BatchSize == 0 {
		config.Store.BatchSize = 200
	}
	if config.Store.TopK == 0 {
		config.Store.TopK = 5
	}
	if config.Store.RateLimit == 0 {
		config.Store.RateLimit = 2.0
	}
	if config.Store.TimeoutSecs == 0 {
		config.Store.TimeoutSecs = 15
	}
	if config.Store.Cloud == "" {
		config.Store.Cloud = "aws"
	}
	if config.Store.Region == "" {
		config.Store.Region = "us-east-1"
	}
	if config.Store.TableName == "" {
		config.Store.TableName = "chunks"
	}

	if config.Chunker.Size == 0 {
		config.Chunker.Size = 800
	}
	if config.Chunker.Overlap == 0 {
		config.Chunker.Overlap = 150
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedder.BaseURL = baseURL
	}
	if key := os.Getenv("PINECONE_API_KEY"); key != "" {
		config.Store.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Generator.APIKey = key
	}
	if name := os.Getenv("INDEX_NAME"); name != "" {
		config.Store.IndexName = name
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Store.URL = dbURL
	}
}

// Timeout helpers, so callers don't repeat the seconds conversion.

func (c *Config) EmbedderTimeout() time.Duration {
	return time.Duration(c.Embedder.TimeoutSecs) * time.Second
}

func (c *Config) GeneratorTimeout() time.Duration {
	return time.Duration(c.Generator.TimeoutSecs) * time.Second
}

func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Store.TimeoutSecs) * time.Second
}
