// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Pipeline, Indexer, Search, Server, Redis, Postgres, Kafka, etc.)
// and understands the legacy key=value stage files (see stagefile.go).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// PipelineConfig names the input and output files of every stage. Relative
// paths are resolved against DataDir.
type PipelineConfig struct {
	DataDir          string   `yaml:"dataDir"`
	StageConfigDir   string   `yaml:"stageConfigDir"`
	QueriesSource    string   `yaml:"queriesSource"`
	ProcessedQueries string   `yaml:"processedQueries"`
	ExpectedResults  string   `yaml:"expectedResults"`
	CorpusSources    []string `yaml:"corpusSources"`
	Stopwords        string   `yaml:"stopwords"`
	InvertedList     string   `yaml:"invertedList"`
	VectorModel      string   `yaml:"vectorModel"`
	ModelSegment     string   `yaml:"modelSegment"`
	Results          string   `yaml:"results"`
	EvaluationReport string   `yaml:"evaluationReport"`
}

// Resolve returns p joined onto DataDir unless it is empty or absolute.
func (p PipelineConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.DataDir == "" {
		return path
	}
	return filepath.Join(p.DataDir, path)
}

// IndexerConfig selects the tokenizer options and the TF-IDF policies.
type IndexerConfig struct {
	Workers  int    `yaml:"workers"`
	Stemming bool   `yaml:"stemming"`
	Universe string `yaml:"universe"`
	TFNorm   string `yaml:"tfNorm"`
}

// SearchConfig controls scoring policy, parallelism and result limits.
type SearchConfig struct {
	Similarity   string        `yaml:"similarity"`
	Workers      int           `yaml:"workers"`
	Prune        bool          `yaml:"prune"`
	DefaultLimit int           `yaml:"defaultLimit"`
	MaxResults   int           `yaml:"maxResults"`
	CacheSize    int           `yaml:"cacheSize"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PostgresConfig holds PostgreSQL connection parameters for the results sink.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Queries string `yaml:"queries"`
	Results string `yaml:"results"`
}

// LoggingConfig controls structured logging level and output format. Format
// is "text", "json" or "auto" (text on a terminal, JSON otherwise).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// TracingConfig controls the per-run span log.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads a YAML config file (if provided), applies the legacy stage files
// named by pipeline.stageConfigDir and then environment-variable overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if cfg.Pipeline.StageConfigDir != "" {
		if err := ApplyStageFiles(cfg, cfg.Pipeline.StageConfigDir); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaultConfig()
}

// Validate rejects policy names the indexer and searcher do not know.
func (c *Config) Validate() error {
	switch c.Indexer.Universe {
	case "indexed-documents", "distinct-terms", "collection":
	default:
		return fmt.Errorf("indexer.universe: unknown policy %q", c.Indexer.Universe)
	}
	switch c.Indexer.TFNorm {
	case "term-occurrences", "document-length":
	default:
		return fmt.Errorf("indexer.tfNorm: unknown policy %q", c.Indexer.TFNorm)
	}
	switch c.Search.Similarity {
	case "binary-query", "tf-weighted-query":
	default:
		return fmt.Errorf("search.similarity: unknown policy %q", c.Search.Similarity)
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search.maxResults (%d) below search.defaultLimit (%d)",
			c.Search.MaxResults, c.Search.DefaultLimit)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			DataDir:          ".",
			QueriesSource:    "data/cfquery.xml",
			ProcessedQueries: "RESULT/consultas.csv",
			ExpectedResults:  "RESULT/esperados.csv",
			CorpusSources: []string{
				"data/cf74.xml", "data/cf75.xml", "data/cf76.xml",
				"data/cf77.xml", "data/cf78.xml", "data/cf79.xml",
			},
			Stopwords:        "stopwords.txt",
			InvertedList:     "RESULT/lista_invertida.csv",
			VectorModel:      "RESULT/modelo_vetorial.csv",
			ModelSegment:     "RESULT/modelo_vetorial.vsmseg",
			Results:          "RESULT/resultados.csv",
			EvaluationReport: "AVALIA/relatorio.csv",
		},
		Indexer: IndexerConfig{
			Workers:  4,
			Universe: "indexed-documents",
			TFNorm:   "term-occurrences",
		},
		Search: SearchConfig{
			Similarity:   "binary-query",
			Workers:      4,
			DefaultLimit: 10,
			MaxResults:   100,
			CacheSize:    1024,
			Timeout:      5 * time.Second,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vsm",
			User:            "vsm",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "vsm-searcher",
			Topics: KafkaTopics{
				Queries: "vsm.queries",
				Results: "vsm.results",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// applyEnvOverrides reads VSM_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VSM_DATA_DIR"); v != "" {
		cfg.Pipeline.DataDir = v
	}
	if v := os.Getenv("VSM_STAGE_CONFIG_DIR"); v != "" {
		cfg.Pipeline.StageConfigDir = v
	}
	if v := os.Getenv("VSM_INDEXER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = n
		}
	}
	if v := os.Getenv("VSM_INDEXER_STEMMING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Indexer.Stemming = b
		}
	}
	if v := os.Getenv("VSM_INDEXER_UNIVERSE"); v != "" {
		cfg.Indexer.Universe = v
	}
	if v := os.Getenv("VSM_INDEXER_TF_NORM"); v != "" {
		cfg.Indexer.TFNorm = v
	}
	if v := os.Getenv("VSM_SEARCH_SIMILARITY"); v != "" {
		cfg.Search.Similarity = v
	}
	if v := os.Getenv("VSM_SEARCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.Workers = n
		}
	}
	if v := os.Getenv("VSM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VSM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("VSM_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("VSM_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
		cfg.Postgres.Enabled = true
	}
	if v := os.Getenv("VSM_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("VSM_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("VSM_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VSM_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
