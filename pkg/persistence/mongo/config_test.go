package mongo

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		v := viper.New()
		v.Set("mongo.host", "localhost")
		v.Set("mongo.port", 27017)
		v.Set("mongo.database", "audit")

		cfg, err := NewConfig(v)

		require.NoError(t, err)
		assert.Equal(t, uint64(100), cfg.MaxPoolSize)
		assert.Equal(t, uint64(10), cfg.MinPoolSize)
		assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
		assert.Equal(t, 64, cfg.MaxConcurrentOps)
		assert.Equal(t, 5*time.Second, cfg.AcquireTimeout)
	})

	t.Run("reads explicit values", func(t *testing.T) {
		v := viper.New()
		v.Set("mongo.connection-string", "mongodb://localhost:27017/audit")
		v.Set("mongo.query-timeout", "10s")
		v.Set("mongo.max-concurrent-ops", 8)

		cfg, err := NewConfig(v)

		require.NoError(t, err)
		assert.Equal(t, "mongodb://localhost:27017/audit", cfg.ConnectionString)
		assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
		assert.Equal(t, 8, cfg.MaxConcurrentOps)
	})

	t.Run("fails when section missing", func(t *testing.T) {
		_, err := NewConfig(viper.New())
		require.Error(t, err)
	})
}

func TestBuildURI(t *testing.T) {
	t.Run("from parts", func(t *testing.T) {
		uri := buildURI(Config{Host: "db", Port: 27017, Database: "audit"})
		assert.Equal(t, "mongodb://db:27017/audit", uri)
	})

	t.Run("with auth and replica set", func(t *testing.T) {
		uri := buildURI(Config{
			Host:       "db",
			Port:       27017,
			Database:   "audit",
			Username:   "user",
			Password:   "pass",
			ReplicaSet: "rs0",
		})
		assert.Equal(t, "mongodb://user:pass@db:27017/audit?replicaSet=rs0", uri)
	})

	t.Run("connection string wins", func(t *testing.T) {
		uri := buildURI(Config{ConnectionString: "mongodb://elsewhere:1234/x", Host: "db"})
		assert.Equal(t, "mongodb://elsewhere:1234/x", uri)
	})
}
