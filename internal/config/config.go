// Package config provides configuration management for MusicVec.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AneeshPatel/MusicVec/internal/word2vec"
)

// Config holds all configuration for MusicVec.
type Config struct {
	Corpus   CorpusConfig   `yaml:"corpus"`
	Training TrainingConfig `yaml:"training"`
	Models   ModelsConfig   `yaml:"models"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Query    QueryConfig    `yaml:"query"`
	Storage  StorageConfig  `yaml:"storage"`
}

// CorpusConfig configures where playlist slice files are read from.
type CorpusConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// TrainingConfig configures the embedding trainer.
type TrainingConfig struct {
	Dimensions      int     `yaml:"dimensions"`
	WindowSize      int     `yaml:"window_size"`
	EpochCount      int     `yaml:"epochs"`
	WorkerCount     int     `yaml:"workers"`
	NegativeSamples int     `yaml:"negative_samples"`
	LearningRate    float32 `yaml:"learning_rate"`
	Seed            int64   `yaml:"seed"`
}

// Engine converts the training section into the trainer's own config,
// keeping the algorithm choice out of the user-facing file.
func (t TrainingConfig) Engine() word2vec.Config {
	cfg := word2vec.DefaultConfig()
	cfg.Dimensions = t.Dimensions
	cfg.WindowSize = t.WindowSize
	cfg.EpochCount = t.EpochCount
	cfg.WorkerCount = t.WorkerCount
	cfg.NegativeSamples = t.NegativeSamples
	cfg.LearningRate = t.LearningRate
	cfg.Seed = t.Seed
	return cfg
}

// ModelsConfig names the model artifacts inside the data directory.
type ModelsConfig struct {
	Artist string `yaml:"artist"`
	Song   string `yaml:"song"`
}

// CatalogConfig names the catalog files inside the data directory.
type CatalogConfig struct {
	Database string `yaml:"database"`
	Index    string `yaml:"index"`
	Cache    string `yaml:"cache"`
}

// QueryConfig configures query behavior.
type QueryConfig struct {
	MaxCandidates int `yaml:"max_candidates"`
	TopN          int `yaml:"top_n"`
}

// StorageConfig configures where data is stored.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	engine := word2vec.DefaultConfig()

	return &Config{
		Corpus: CorpusConfig{
			Path:  filepath.Join(homeDir, "mpd", "data"),
			Watch: false,
		},
		Training: TrainingConfig{
			Dimensions:      engine.Dimensions,
			WindowSize:      engine.WindowSize,
			EpochCount:      engine.EpochCount,
			WorkerCount:     engine.WorkerCount,
			NegativeSamples: engine.NegativeSamples,
			LearningRate:    engine.LearningRate,
			Seed:            engine.Seed,
		},
		Models: ModelsConfig{
			Artist: "artist.mvec",
			Song:   "song.mvec",
		},
		Catalog: CatalogConfig{
			Database: "catalog.db",
			Index:    "catalog.bleve",
			Cache:    "describe-cache.db",
		},
		Query: QueryConfig{
			MaxCandidates: 10,
			TopN:          10,
		},
		Storage: StorageConfig{
			Path: filepath.Join(homeDir, ".local", "share", "musicvec"),
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Training.Engine().Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if c.Query.MaxCandidates < 1 {
		return errors.New("query.max_candidates must be at least 1")
	}
	if c.Query.TopN < 1 {
		return errors.New("query.top_n must be at least 1")
	}
	if c.Models.Artist == "" || c.Models.Song == "" {
		return errors.New("models.artist and models.song must be set")
	}
	return nil
}

// Load loads configuration from the YAML file, falling back to defaults
// for any missing values.
func Load() (*Config, error) {
	cfg := Default()

	configPath, err := ConfigPath()
	if err != nil {
		return cfg, nil // Use defaults if we can't find config dir
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // No config file, use defaults
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the YAML file.
func (c *Config) Save() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// ConfigDir returns the directory where config files are stored.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "musicvec"), nil
}

// ConfigPath returns the path to the main config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// DataDir returns the data directory from config, creating it if needed.
func (c *Config) DataDir() (string, error) {
	if err := os.MkdirAll(c.Storage.Path, 0755); err != nil {
		return "", err
	}
	return c.Storage.Path, nil
}

// ArtistModelPath returns the path to the artist model artifact.
func (c *Config) ArtistModelPath() (string, error) {
	return c.dataFile(c.Models.Artist)
}

// SongModelPath returns the path to the song model artifact.
func (c *Config) SongModelPath() (string, error) {
	return c.dataFile(c.Models.Song)
}

// CatalogDatabasePath returns the path to the catalog SQLite database.
func (c *Config) CatalogDatabasePath() (string, error) {
	return c.dataFile(c.Catalog.Database)
}

// CatalogIndexPath returns the path to the catalog search index.
func (c *Config) CatalogIndexPath() (string, error) {
	return c.dataFile(c.Catalog.Index)
}

// CatalogCachePath returns the path to the describe cache database.
func (c *Config) CatalogCachePath() (string, error) {
	return c.dataFile(c.Catalog.Cache)
}

func (c *Config) dataFile(name string) (string, error) {
	dataDir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}
