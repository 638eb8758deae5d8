package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestGormDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// Every connection to :memory: opens a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	return db
}

func TestDialector(t *testing.T) {
	t.Run("PostgreSQL", func(t *testing.T) {
		d, err := Dialector(&DBConfig{Type: "postgres", Host: "localhost", Port: 5432})
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
	})

	t.Run("PostgreSQL_Alt", func(t *testing.T) {
		d, err := Dialector(&DBConfig{Type: "postgresql"})
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
	})

	t.Run("MySQL", func(t *testing.T) {
		d, err := Dialector(&DBConfig{Type: "mysql", Host: "localhost", Port: 3306})
		require.NoError(t, err)
		assert.Equal(t, "mysql", d.Name())
	})

	t.Run("SQLite", func(t *testing.T) {
		d, err := Dialector(&DBConfig{Type: "sqlite"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Name())
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := Dialector(&DBConfig{Type: "oracle"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database type")
	})
}

func TestNewGormDB_SQLite(t *testing.T) {
	db, err := NewGormDB(&DBConfig{Type: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	assert.NoError(t, Close(db))
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
