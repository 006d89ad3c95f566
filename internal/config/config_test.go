package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Check some default values
	if cfg.Training.Dimensions != 100 {
		t.Errorf("Expected default dimensions 100, got %d", cfg.Training.Dimensions)
	}

	if cfg.Training.WindowSize != 10 {
		t.Errorf("Expected default window_size 10, got %d", cfg.Training.WindowSize)
	}

	if cfg.Query.MaxCandidates != 10 {
		t.Errorf("Expected default max_candidates 10, got %d", cfg.Query.MaxCandidates)
	}

	if cfg.Models.Artist != "artist.mvec" || cfg.Models.Song != "song.mvec" {
		t.Errorf("Unexpected default model names: %+v", cfg.Models)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid dimensions",
			modify: func(c *Config) {
				c.Training.Dimensions = 0
			},
			wantErr: true,
		},
		{
			name: "invalid window size",
			modify: func(c *Config) {
				c.Training.WindowSize = -1
			},
			wantErr: true,
		},
		{
			name: "invalid workers",
			modify: func(c *Config) {
				c.Training.WorkerCount = 0
			},
			wantErr: true,
		},
		{
			name: "invalid learning rate",
			modify: func(c *Config) {
				c.Training.LearningRate = 0
			},
			wantErr: true,
		},
		{
			name: "invalid max_candidates",
			modify: func(c *Config) {
				c.Query.MaxCandidates = 0
			},
			wantErr: true,
		},
		{
			name: "invalid top_n",
			modify: func(c *Config) {
				c.Query.TopN = 0
			},
			wantErr: true,
		},
		{
			name: "missing model name",
			modify: func(c *Config) {
				c.Models.Song = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrainingEngine(t *testing.T) {
	cfg := Default()
	cfg.Training.Dimensions = 64
	cfg.Training.EpochCount = 3
	cfg.Training.Seed = 99

	engine := cfg.Training.Engine()
	if engine.Dimensions != 64 {
		t.Errorf("engine dimensions = %d, want 64", engine.Dimensions)
	}
	if engine.EpochCount != 3 {
		t.Errorf("engine epochs = %d, want 3", engine.EpochCount)
	}
	if engine.Seed != 99 {
		t.Errorf("engine seed = %d, want 99", engine.Seed)
	}
	if engine.Algorithm == "" {
		t.Error("engine algorithm must carry the default")
	}
	if err := engine.Validate(); err != nil {
		t.Errorf("engine config from defaults must validate: %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}

	if dir == "" {
		t.Error("ConfigDir() returned empty string")
	}

	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir() returned non-absolute path: %s", dir)
	}

	if filepath.Base(dir) != "musicvec" {
		t.Errorf("ConfigDir() should end with 'musicvec', got %s", filepath.Base(dir))
	}
}

func TestConfigPath(t *testing.T) {
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error = %v", err)
	}

	if filepath.Base(path) != "config.yaml" {
		t.Errorf("ConfigPath() should end with 'config.yaml', got %s", filepath.Base(path))
	}
}

func TestConfigDataDir(t *testing.T) {
	cfg := Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "data")

	dataDir, err := cfg.DataDir()
	if err != nil {
		t.Fatalf("DataDir() error = %v", err)
	}

	if dataDir != cfg.Storage.Path {
		t.Errorf("DataDir() = %q, want %q", dataDir, cfg.Storage.Path)
	}

	// Verify directory was created
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Error("DataDir() did not create the directory")
	}
}

func TestDataFilePaths(t *testing.T) {
	cfg := Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "data")

	tests := []struct {
		name string
		fn   func() (string, error)
		base string
	}{
		{"artist model", cfg.ArtistModelPath, "artist.mvec"},
		{"song model", cfg.SongModelPath, "song.mvec"},
		{"catalog database", cfg.CatalogDatabasePath, "catalog.db"},
		{"catalog index", cfg.CatalogIndexPath, "catalog.bleve"},
		{"describe cache", cfg.CatalogCachePath, "describe-cache.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := tt.fn()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			want := filepath.Join(cfg.Storage.Path, tt.base)
			if path != want {
				t.Errorf("path = %q, want %q", path, want)
			}
		})
	}
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Training.Dimensions = 50
	cfg.Corpus.Path = "/srv/mpd"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	loaded := Default()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if loaded.Training.Dimensions != 50 {
		t.Errorf("dimensions = %d after round trip", loaded.Training.Dimensions)
	}
	if loaded.Corpus.Path != "/srv/mpd" {
		t.Errorf("corpus path = %q after round trip", loaded.Corpus.Path)
	}
}
