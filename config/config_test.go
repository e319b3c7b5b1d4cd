package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("DOCLENS_SERVER_PORT")
		os.Unsetenv("DOCLENS_SERVER_ENVIRONMENT")
		os.Unsetenv("DOCLENS_STORAGE_TYPE")
		os.Unsetenv("DOCLENS_STORAGE_PATH")
		os.Unsetenv("DOCLENS_STORAGE_IN_MEMORY")
		os.Unsetenv("DOCLENS_CACHE_TYPE")
		os.Unsetenv("DOCLENS_CACHE_REDIS_URL")
		os.Unsetenv("DOCLENS_CACHE_TTL")
		os.Unsetenv("DOCLENS_RATELIMIT_PER_IP")
		os.Unsetenv("DOCLENS_RATELIMIT_FETCH")
		os.Unsetenv("DOCLENS_ANALYSIS_WORKER_POOL_SIZE")
		os.Unsetenv("DOCLENS_ANALYSIS_MAX_CONTEXTS")
		os.Unsetenv("DOCLENS_FETCH_RESPECT_ROBOTS")
		os.Unsetenv("DOCLENS_LOG_LEVEL")
		os.Unsetenv("DOCLENS_LOG_FORMAT")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Storage.Type != "badger" {
			t.Errorf("Storage.Type = %s, want badger", cfg.Storage.Type)
		}
		if cfg.Storage.Path != "./data" {
			t.Errorf("Storage.Path = %s, want ./data", cfg.Storage.Path)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 60 {
			t.Errorf("RateLimit.PerIP = %d, want 60", cfg.RateLimit.PerIP)
		}
		if cfg.RateLimit.Fetch != 120 {
			t.Errorf("RateLimit.Fetch = %d, want 120", cfg.RateLimit.Fetch)
		}
		if cfg.Analysis.ContextWords != 10 {
			t.Errorf("Analysis.ContextWords = %d, want 10", cfg.Analysis.ContextWords)
		}
		if cfg.Analysis.MaxContexts != 3 {
			t.Errorf("Analysis.MaxContexts = %d, want 3", cfg.Analysis.MaxContexts)
		}
		if cfg.Analysis.WorkerPoolSize != 4 {
			t.Errorf("Analysis.WorkerPoolSize = %d, want 4", cfg.Analysis.WorkerPoolSize)
		}
		if cfg.Analysis.MaxDocumentBytes != 20<<20 {
			t.Errorf("Analysis.MaxDocumentBytes = %d, want %d", cfg.Analysis.MaxDocumentBytes, 20<<20)
		}
		if cfg.Analysis.JobRetention != time.Hour {
			t.Errorf("Analysis.JobRetention = %v, want 1h", cfg.Analysis.JobRetention)
		}
		if cfg.Fetch.Timeout != 30*time.Second {
			t.Errorf("Fetch.Timeout = %v, want 30s", cfg.Fetch.Timeout)
		}
		if cfg.Fetch.UserAgent != "DocLens/1.0" {
			t.Errorf("Fetch.UserAgent = %s, want DocLens/1.0", cfg.Fetch.UserAgent)
		}
		if !cfg.Fetch.RespectRobots {
			t.Error("Fetch.RespectRobots = false, want true")
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
			t.Errorf("Log = %+v, want info/text", cfg.Log)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("DOCLENS_SERVER_PORT", "9090")
		os.Setenv("DOCLENS_SERVER_ENVIRONMENT", "production")
		os.Setenv("DOCLENS_STORAGE_TYPE", "bolt")
		os.Setenv("DOCLENS_STORAGE_PATH", "/var/lib/doclens/doclens.db")
		os.Setenv("DOCLENS_CACHE_TYPE", "redis")
		os.Setenv("DOCLENS_CACHE_REDIS_URL", "redis://localhost:6379")
		os.Setenv("DOCLENS_CACHE_TTL", "1h")
		os.Setenv("DOCLENS_RATELIMIT_PER_IP", "200")
		os.Setenv("DOCLENS_RATELIMIT_FETCH", "10")
		os.Setenv("DOCLENS_ANALYSIS_WORKER_POOL_SIZE", "8")
		os.Setenv("DOCLENS_FETCH_RESPECT_ROBOTS", "false")
		os.Setenv("DOCLENS_LOG_FORMAT", "json")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Storage.Type != "bolt" {
			t.Errorf("Storage.Type = %s, want bolt", cfg.Storage.Type)
		}
		if cfg.Storage.Path != "/var/lib/doclens/doclens.db" {
			t.Errorf("Storage.Path = %s, want /var/lib/doclens/doclens.db", cfg.Storage.Path)
		}
		if cfg.Cache.Type != "redis" {
			t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.RateLimit.Fetch != 10 {
			t.Errorf("RateLimit.Fetch = %d, want 10", cfg.RateLimit.Fetch)
		}
		if cfg.Analysis.WorkerPoolSize != 8 {
			t.Errorf("Analysis.WorkerPoolSize = %d, want 8", cfg.Analysis.WorkerPoolSize)
		}
		if cfg.Fetch.RespectRobots {
			t.Error("Fetch.RespectRobots = true, want false")
		}
		if cfg.Log.Format != "json" {
			t.Errorf("Log.Format = %s, want json", cfg.Log.Format)
		}
	})

	t.Run("fails validation for invalid storage type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("DOCLENS_STORAGE_TYPE", "sqlite")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid storage type")
		}
		if err != nil && err.Error() != "invalid configuration: storage type must be 'badger' or 'bolt', got: sqlite" {
			t.Errorf("Load() error = %v, want storage type error", err)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("DOCLENS_CACHE_TYPE", "invalid")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("DOCLENS_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})

	t.Run("fails validation for unknown log level", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("DOCLENS_LOG_LEVEL", "loud")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for unknown log level")
		}
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("reads an explicit config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doclens.yaml")
		content := `
server:
  port: "7070"
storage:
  type: bolt
  path: /tmp/doclens.db
analysis:
  context_words: 5
  max_contexts: 2
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config file: %v", err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v, want nil", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
		if cfg.Storage.Type != "bolt" {
			t.Errorf("Storage.Type = %s, want bolt", cfg.Storage.Type)
		}
		if cfg.Analysis.ContextWords != 5 {
			t.Errorf("Analysis.ContextWords = %d, want 5", cfg.Analysis.ContextWords)
		}
		if cfg.Analysis.MaxContexts != 2 {
			t.Errorf("Analysis.MaxContexts = %d, want 2", cfg.Analysis.MaxContexts)
		}
		// Untouched keys keep their defaults
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
	})

	t.Run("fails when the named file is missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if err == nil {
			t.Error("LoadFile() error = nil, want error for missing file")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing .env is not an error", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name     string
		content  string
		existing map[string]string
		want     map[string]string
	}{
		{
			name:    "plain assignments",
			content: "DOCLENS_LOG_LEVEL=debug\nDOCLENS_STORAGE_TYPE=bolt\n",
			want:    map[string]string{"DOCLENS_LOG_LEVEL": "debug", "DOCLENS_STORAGE_TYPE": "bolt"},
		},
		{
			name:    "comments blank lines and junk are skipped",
			content: "\n# comment\n   # indented comment\nnot an assignment\nDOCLENS_CACHE_TYPE=memory\n# DOCLENS_CACHE_REDIS_URL=redis://x\n",
			want:    map[string]string{"DOCLENS_CACHE_TYPE": "memory", "DOCLENS_CACHE_REDIS_URL": ""},
		},
		{
			name:    "quotes and surrounding spaces are trimmed",
			content: "DOCLENS_FETCH_USER_AGENT = \"DocLens Test/1.0\"\nDOCLENS_SERVER_PORT='9090'\n",
			want:    map[string]string{"DOCLENS_FETCH_USER_AGENT": "DocLens Test/1.0", "DOCLENS_SERVER_PORT": "9090"},
		},
		{
			name:     "exported variables win over the file",
			content:  "DOCLENS_SERVER_ENVIRONMENT=production\n",
			existing: map[string]string{"DOCLENS_SERVER_ENVIRONMENT": "test"},
			want:     map[string]string{"DOCLENS_SERVER_ENVIRONMENT": "test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			if err := os.WriteFile(".env", []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write .env: %v", err)
			}
			for key := range tt.want {
				if value, ok := tt.existing[key]; ok {
					t.Setenv(key, value)
					continue
				}
				t.Setenv(key, "")
				os.Unsetenv(key)
			}

			if err := loadEnvFile(); err != nil {
				t.Fatalf("loadEnvFile() error = %v", err)
			}

			for key, want := range tt.want {
				if got := os.Getenv(key); got != want {
					t.Errorf("%s = %q, want %q", key, got, want)
				}
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Storage:  StorageConfig{Type: "badger", Path: "./data"},
		Cache:    CacheConfig{Type: "memory"},
		Analysis: AnalysisConfig{ContextWords: 10, MaxContexts: 3, WorkerPoolSize: 4, MaxDocumentBytes: 1 << 20},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "validates successfully with all required fields",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "fails for invalid storage type",
			modify:  func(c *Config) { c.Storage.Type = "postgres" },
			wantErr: true,
		},
		{
			name:    "fails when storage path is empty",
			modify:  func(c *Config) { c.Storage.Path = "" },
			wantErr: true,
		},
		{
			name:    "allows empty path for in-memory badger",
			modify:  func(c *Config) { c.Storage.Path = ""; c.Storage.InMemory = true },
			wantErr: false,
		},
		{
			name:    "rejects in-memory bolt",
			modify:  func(c *Config) { c.Storage.Type = "bolt"; c.Storage.InMemory = true },
			wantErr: true,
		},
		{
			name:    "fails for invalid cache type",
			modify:  func(c *Config) { c.Cache.Type = "invalid-type" },
			wantErr: true,
		},
		{
			name:    "validates redis cache type with URL",
			modify:  func(c *Config) { c.Cache.Type = "redis"; c.Cache.RedisURL = "redis://localhost:6379" },
			wantErr: false,
		},
		{
			name:    "fails for redis cache without URL",
			modify:  func(c *Config) { c.Cache.Type = "redis" },
			wantErr: true,
		},
		{
			name:    "fails for non-positive worker pool",
			modify:  func(c *Config) { c.Analysis.WorkerPoolSize = 0 },
			wantErr: true,
		},
		{
			name:    "fails for too many contexts",
			modify:  func(c *Config) { c.Analysis.MaxContexts = 4 },
			wantErr: true,
		},
		{
			name:    "fails for zero document limit",
			modify:  func(c *Config) { c.Analysis.MaxDocumentBytes = 0 },
			wantErr: true,
		},
		{
			name:    "fails for unknown log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
