package config

import (
	"os"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name          string
		envVars       map[string]string
		expectedPort  string
		expectedTimer int
	}{
		{
			name:          "defaults when nothing set",
			envVars:       map[string]string{},
			expectedPort:  "8000",
			expectedTimer: 900,
		},
		{
			name:          "uses PORT env var when set",
			envVars:       map[string]string{"PORT": "3000"},
			expectedPort:  "3000",
			expectedTimer: 900,
		},
		{
			name:          "uses REFRESH_TIMER env var when set",
			envVars:       map[string]string{"REFRESH_TIMER": "120"},
			expectedPort:  "8000",
			expectedTimer: 120,
		},
		{
			name:          "invalid REFRESH_TIMER falls back to default",
			envVars:       map[string]string{"REFRESH_TIMER": "not-a-number"},
			expectedPort:  "8000",
			expectedTimer: 900,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v", err)
			}

			if cfg.Server.Port != tt.expectedPort {
				t.Errorf("Port = %v, want %v", cfg.Server.Port, tt.expectedPort)
			}

			if cfg.Server.RefreshTimer != tt.expectedTimer {
				t.Errorf("RefreshTimer = %v, want %v", cfg.Server.RefreshTimer, tt.expectedTimer)
			}
		})
	}
}

func TestLoadFromEnv_BrowserDisabled(t *testing.T) {
	os.Clearenv()
	os.Setenv("BROWSER_ENABLED", "false")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Browser.Enabled {
		t.Error("Browser.Enabled = true, want false")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: "8000", RefreshTimer: 900},
			Database: DatabaseConfig{Path: "yana.db"},
			Cache:    CacheConfig{Type: "memory"},
			Browser:  BrowserConfig{Enabled: true, PoolSize: 4},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "empty port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: true,
			errMsg:  "port cannot be empty",
		},
		{
			name:    "refresh timer less than 1",
			mutate:  func(c *Config) { c.Server.RefreshTimer = 0 },
			wantErr: true,
			errMsg:  "refresh timer must be at least 1 second",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
			errMsg:  "database path cannot be empty",
		},
		{
			name:    "invalid cache type",
			mutate:  func(c *Config) { c.Cache.Type = "invalid" },
			wantErr: true,
			errMsg:  "cache type must be 'redis', 'memory' or 'sqlite'",
		},
		{
			name: "redis type with empty address",
			mutate: func(c *Config) {
				c.Cache.Type = "redis"
				c.Cache.Redis.Address = ""
			},
			wantErr: true,
			errMsg:  "redis address cannot be empty when using redis cache",
		},
		{
			name: "sqlite cache with empty path",
			mutate: func(c *Config) {
				c.Cache.Type = "sqlite"
				c.Cache.SQLite.Path = ""
			},
			wantErr: true,
			errMsg:  "cache database path cannot be empty when using sqlite cache",
		},
		{
			name:    "zero browser pool",
			mutate:  func(c *Config) { c.Browser.PoolSize = 0 },
			wantErr: true,
			errMsg:  "browser pool size must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errMsg != "" && err.Error() != tt.errMsg {
				t.Errorf("Validate() error = %v, want %v", err.Error(), tt.errMsg)
			}
		})
	}
}
