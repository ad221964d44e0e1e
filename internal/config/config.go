package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/nidhogg/ensemble/internal/character"
	"github.com/nidhogg/ensemble/internal/interaction"
	"github.com/nidhogg/ensemble/internal/relationship"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Sentiment SentimentConfig `json:"sentiment"`
	Dialogue  DialogueConfig  `json:"dialogue"`
	Embedding EmbeddingConfig `json:"embedding"`
	Notify    NotifyConfig    `json:"notify"`
	Tuning    TuningConfig    `json:"tuning"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `json:"postgres"`
	Neo4j    Neo4jConfig    `json:"neo4j"`
	Redis    RedisConfig    `json:"redis"`
	Qdrant   QdrantConfig   `json:"qdrant"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type Neo4jConfig struct {
	URI      string `json:"uri"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

type QdrantConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type SentimentConfig struct {
	Endpoint  string `json:"endpoint"`
	TimeoutMS int    `json:"timeout_ms"`
}

type DialogueConfig struct {
	Endpoint  string `json:"endpoint"`
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	TimeoutMS int    `json:"timeout_ms"`
}

type EmbeddingConfig struct {
	Endpoint  string `json:"endpoint"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

type NotifyConfig struct {
	Slack   SlackNotifyConfig   `json:"slack"`
	Discord DiscordNotifyConfig `json:"discord"`
}

type SlackNotifyConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
	Channel  string `json:"channel"`
}

type DiscordNotifyConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
	Channel  string `json:"channel"`
}

// TuningConfig overrides the model constants. Zero values fall back
// to the package defaults.
type TuningConfig struct {
	Emotion   *character.EmotionTuning `json:"emotion,omitempty"`
	Ledger    *relationship.Tuning     `json:"ledger,omitempty"`
	Processor *interaction.Config      `json:"processor,omitempty"`
}

// EmotionTuning resolves the emotion constants.
func (t TuningConfig) EmotionTuning() character.EmotionTuning {
	if t.Emotion != nil {
		return *t.Emotion
	}
	return character.DefaultEmotionTuning()
}

// LedgerTuning resolves the ledger constants.
func (t TuningConfig) LedgerTuning() relationship.Tuning {
	if t.Ledger != nil {
		return *t.Ledger
	}
	return relationship.DefaultTuning()
}

// ProcessorConfig resolves the processor settings.
func (t TuningConfig) ProcessorConfig() interaction.Config {
	if t.Processor != nil {
		return *t.Processor
	}
	return interaction.DefaultConfig()
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable
// references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
