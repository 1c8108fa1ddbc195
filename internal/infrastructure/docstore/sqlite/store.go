// Package sqlite implements a docstore.Store on a local SQLite file,
// used for development and the studyctl CLI where no remote bin or
// postgres instance is around.
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studydeck/studydeck/internal/domain/record"
)

// documentRow is the single persisted row holding the whole document.
type documentRow struct {
	ID        uint   `gorm:"primaryKey"`
	Document  []byte `gorm:"type:blob"`
	UpdatedAt time.Time
}

func (documentRow) TableName() string { return "dashboard_documents" }

// Store persists the whole document as one serialized row.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite file and runs migrations.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "studydeck.db"
	}
	if err := ensureDir(dsn); err != nil {
		return nil, err
	}

	dbLogger := gormlogger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("sqlite: migrate db: %w", err)
	}
	return &Store{db: db}, nil
}

// ensureDir creates the parent dir for the SQLite file if needed.
func ensureDir(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sqlite: create db dir %q: %w", dir, err)
	}
	return nil
}

// Fetch implements docstore.Store.
func (s *Store) Fetch(ctx context.Context) (record.Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).First(&row, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return record.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch document: %w", err)
	}

	var doc record.Document
	if err := json.Unmarshal(row.Document, &doc); err != nil {
		return nil, fmt.Errorf("sqlite: parse document: %w", err)
	}
	if doc == nil {
		doc = record.Document{}
	}
	return doc, nil
}

// Replace implements docstore.Store.
func (s *Store) Replace(ctx context.Context, doc record.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("sqlite: marshal document: %w", err)
	}
	row := documentRow{ID: 1, Document: raw, UpdatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("sqlite: replace document: %w", err)
	}
	return nil
}
