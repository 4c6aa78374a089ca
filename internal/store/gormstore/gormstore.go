package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/rentbook/pkg/rentbook"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	errorOperationStore = "store"
	errorSubjectDoc     = "document"
	errorCodeGet        = "get"
	errorCodeDecode     = "decode"
	errorCodeEncode     = "encode"
	errorCodeSave       = "save"
	errorCodeOpen       = "open"
	errorCodeMigrate    = "migrate"
)

// Store persists the book as one JSON document row.
type Store struct {
	db  *gorm.DB
	key string
}

// New returns a Store backed by gorm.DB, reading and writing the row
// named by key.
func New(db *gorm.DB, key string) *Store {
	return &Store{db: db, key: key}
}

// Open connects to the database named by the URL (postgres:// or a sqlite
// path), migrates the documents table, and returns a Store.
func Open(databaseURL string, key string) (*Store, error) {
	dialector, err := resolveDialector(databaseURL)
	if err != nil {
		return nil, wrapStoreError(errorCodeOpen, err)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, wrapStoreError(errorCodeOpen, err)
	}
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, wrapStoreError(errorCodeMigrate, err)
	}
	return New(db, key), nil
}

// Load reads the document, returning the default empty book when no row
// exists yet.
func (store *Store) Load(ctx context.Context) (rentbook.Book, error) {
	var document Document
	err := store.db.WithContext(ctx).Take(&document, "key = ?", store.key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rentbook.DefaultBook(), nil
	}
	if err != nil {
		return rentbook.Book{}, wrapStoreError(errorCodeGet, err)
	}
	var book rentbook.Book
	if err := json.Unmarshal(document.Data, &book); err != nil {
		return rentbook.Book{}, wrapStoreError(errorCodeDecode, err)
	}
	return book, nil
}

// Save overwrites the document wholesale.
func (store *Store) Save(ctx context.Context, book rentbook.Book) error {
	raw, err := json.Marshal(book)
	if err != nil {
		return wrapStoreError(errorCodeEncode, err)
	}
	document := Document{
		Key:       store.key,
		Data:      raw,
		UpdatedAt: time.Now().UTC(),
	}
	err = store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&document).Error
	if err != nil {
		return wrapStoreError(errorCodeSave, err)
	}
	return nil
}

func resolveDialector(databaseURL string) (gorm.Dialector, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgres.Open(databaseURL), nil
	}
	path, err := normalizeSQLitePath(strings.TrimPrefix(databaseURL, "sqlite://"))
	if err != nil {
		return nil, err
	}
	return sqlite.Open(path), nil
}

func normalizeSQLitePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty sqlite path")
	}
	if path == ":memory:" {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(filepath.Join(".", path)), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

func wrapStoreError(code string, err error) error {
	return rentbook.WrapError(errorOperationStore, errorSubjectDoc, code, err)
}
