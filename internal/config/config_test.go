package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "capture_market", cfg.Database.Database)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)

	assert.Equal(t, "capture.events", cfg.RabbitMQ.Exchange.Name)
	assert.Equal(t, "topic", cfg.RabbitMQ.Exchange.Type)
	assert.Equal(t, "capture.events.audit", cfg.RabbitMQ.Queue.Name)
	assert.Equal(t, "#", cfg.RabbitMQ.BindingKey)
	assert.Equal(t, 10, cfg.RabbitMQ.Consumer.PrefetchCount)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "capture-market", cfg.App.Name)

	assert.Equal(t, 15*time.Minute, cfg.Claims.TokenTTL)

	assert.Equal(t, "http://localhost:9000", cfg.Blob.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Blob.UploadTTL)
	assert.Equal(t, 5*time.Minute, cfg.Blob.DownloadTTL)

	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, time.Minute, cfg.Worker.ReaperInterval)
	assert.Equal(t, 24*time.Hour, cfg.Worker.TokenRetention)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does_not_exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load("testdata/malformed.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadSecrets(t *testing.T) {
	t.Run("both present", func(t *testing.T) {
		t.Setenv(EnvTokenSigningSecret, "token-secret")
		t.Setenv(EnvBlobSigningSecret, "blob-secret")

		secrets, err := LoadSecrets()
		require.NoError(t, err)
		assert.Equal(t, []byte("token-secret"), secrets.TokenSigning)
		assert.Equal(t, []byte("blob-secret"), secrets.BlobSigning)
	})

	t.Run("missing token secret", func(t *testing.T) {
		t.Setenv(EnvTokenSigningSecret, "")
		t.Setenv(EnvBlobSigningSecret, "blob-secret")

		_, err := LoadSecrets()
		require.Error(t, err)
		assert.Contains(t, err.Error(), EnvTokenSigningSecret)
	})

	t.Run("missing blob secret", func(t *testing.T) {
		t.Setenv(EnvTokenSigningSecret, "token-secret")
		t.Setenv(EnvBlobSigningSecret, "")

		_, err := LoadSecrets()
		require.Error(t, err)
		assert.Contains(t, err.Error(), EnvBlobSigningSecret)
	})
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)
	return cfg
}

func TestValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad server port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database host is required",
		},
		{
			name:    "missing database name",
			mutate:  func(c *Config) { c.Database.Database = "" },
			wantErr: "database name is required",
		},
		{
			name:    "missing rabbitmq exchange",
			mutate:  func(c *Config) { c.RabbitMQ.Exchange.Name = "" },
			wantErr: "rabbitmq exchange name is required",
		},
		{
			name:    "missing blob base url",
			mutate:  func(c *Config) { c.Blob.BaseURL = "" },
			wantErr: "blob base_url is required",
		},
		{
			name:    "zero download ttl",
			mutate:  func(c *Config) { c.Blob.DownloadTTL = 0 },
			wantErr: "download_url_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Worker.Concurrency = 0 },
			wantErr: "worker concurrency",
		},
		{
			name:    "zero reaper interval",
			mutate:  func(c *Config) { c.Worker.ReaperInterval = 0 },
			wantErr: "reaper_interval",
		},
		{
			name:    "zero token retention",
			mutate:  func(c *Config) { c.Worker.TokenRetention = 0 },
			wantErr: "token_retention",
		},
		{
			name:    "missing rabbitmq queue",
			mutate:  func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			wantErr: "rabbitmq queue name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
