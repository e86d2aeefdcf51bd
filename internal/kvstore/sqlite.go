// SQLite-backed Store. The pure-Go glebarez driver keeps the binary free of
// cgo, which matters for the containerized deployments this service targets.
package kvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is the single-table schema behind SQLiteStore. One row per key.
type Entry struct {
	Key       string    `gorm:"type:varchar(512);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"index"`
}

// TableName returns the database table name for Entry.
func (Entry) TableName() string { return "kv_entries" }

// SQLiteStore implements Store on top of a single SQLite table via GORM.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the backing database, applies PRAGMAs,
// sizes the pool, and migrates the kv_entries table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStore wraps an already-open GORM handle. The caller is
// responsible for having migrated the Entry table (tests use this).
func NewSQLiteStore(db *gorm.DB) *SQLiteStore { return &SQLiteStore{db: db} }

// Get returns the value stored under key, or ErrKeyNotFound.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var e Entry
	err := s.db.WithContext(ctx).First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

// Set upserts value under key.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&e).Error
}

// Delete removes key, returning ErrKeyNotFound when no row matched.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	res := s.db.WithContext(ctx).Delete(&Entry{}, "key = ?", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
