package config

import (
	"testing"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		ServerPort:       8280,
		DatabaseDriver:   "postgres",
		StorageEndpoint:  "localhost:9000",
		StorageBucket:    "uploads",
		StorageAccessKey: "minio",
		StorageSecretKey: "minio123",
	}
}

func TestValidateConfig(t *testing.T) {
	log := logger.New("config_test")

	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "sqlite driver", mutate: func(c *Config) { c.DatabaseDriver = "sqlite" }},
		{name: "zero port", mutate: func(c *Config) { c.ServerPort = 0 }, expectErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }, expectErr: true},
		{name: "missing bucket", mutate: func(c *Config) { c.StorageBucket = "" }, expectErr: true},
		{name: "access key without secret", mutate: func(c *Config) { c.StorageSecretKey = "" }, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			err := validateConfig(config, log)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, config, GetConfig())
		})
	}
}
