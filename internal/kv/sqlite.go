package kv

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type pair struct {
	Key              string `gorm:"column:key;primaryKey;size:190;not null"`
	Value            string `gorm:"column:value;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null;default:0"`
}

func (pair) TableName() string {
	return "kv_pairs"
}

// SQLiteConfig describes how to open the durable key-value store.
type SQLiteConfig struct {
	// Path is the SQLite database file path.
	Path string
	// QuotaBytes caps the total stored size (keys plus values). Zero means
	// unlimited.
	QuotaBytes int64
	// Clock stamps writes in unix seconds; defaults to the wall clock.
	Clock func() int64
	Logger *zap.Logger
}

// SQLiteAdapter persists key-value pairs in a single SQLite table.
type SQLiteAdapter struct {
	db         *gorm.DB
	quotaBytes int64
	clock      func() int64
}

// OpenSQLite establishes the SQLite connection and performs schema migrations.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteAdapter, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("kv: database path is required")
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&pair{}, &migrationRecord{}); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, cfg.Logger); err != nil {
		return nil, err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("key-value store initialized",
			zap.String("path", cfg.Path),
			zap.Int64("quota_bytes", cfg.QuotaBytes))
	}

	return newSQLiteAdapter(db, cfg), nil
}

func newSQLiteAdapter(db *gorm.DB, cfg SQLiteConfig) *SQLiteAdapter {
	clock := cfg.Clock
	if clock == nil {
		clock = unixNow
	}
	return &SQLiteAdapter{db: db, quotaBytes: cfg.QuotaBytes, clock: clock}
}

// Close releases the underlying database handle.
func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the stored value for key and whether it was present.
func (a *SQLiteAdapter) Get(key string) (string, bool, error) {
	var stored pair
	err := a.db.Where("key = ?", key).Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return stored.Value, true, nil
}

// Set stores value under key. The write is rejected with ErrQuotaExceeded
// when it would push total stored bytes past the configured ceiling.
func (a *SQLiteAdapter) Set(key, value string) error {
	if a.quotaBytes > 0 {
		var usedByOthers int64
		err := a.db.Model(&pair{}).
			Where("key <> ?", key).
			Select("COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0)").
			Scan(&usedByOthers).Error
		if err != nil {
			return err
		}
		if usedByOthers+int64(len(key)+len(value)) > a.quotaBytes {
			return fmt.Errorf("%w: key %q", ErrQuotaExceeded, key)
		}
	}

	record := pair{Key: key, Value: value, UpdatedAtSeconds: a.clock()}
	return a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at_s"}),
	}).Create(&record).Error
}

// Remove deletes the key. Removing an absent key is a no-op.
func (a *SQLiteAdapter) Remove(key string) error {
	return a.db.Where("key = ?", key).Delete(&pair{}).Error
}

// Keys returns every stored key beginning with prefix, sorted ascending.
func (a *SQLiteAdapter) Keys(prefix string) ([]string, error) {
	var keys []string
	err := a.db.Model(&pair{}).
		Where(`key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order("key ASC").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// escapeLike neutralizes LIKE wildcards so prefixes such as "draft_" match
// literally.
func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func unixNow() int64 {
	return time.Now().Unix()
}
