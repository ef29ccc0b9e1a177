// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/nellis-lmt/paperload/internal/config"
	"github.com/nellis-lmt/paperload/internal/storage/document"
	sqlitestorage "github.com/nellis-lmt/paperload/internal/storage/sqlite"
)

// NewBackend creates a working-file backend based on configuration
func NewBackend(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case "json", "":
		return document.New(document.Config{Compress: cfg.Compress}), nil
	case "sqlite":
		return sqlitestorage.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
