// internal/storage/storage.go
package storage

import "github.com/nellis-lmt/paperload/internal/model"

// Backend is the interface all working-file formats must satisfy.
//
// Load reads the whole file. A missing file yields a *model.PersistenceError
// wrapping fs.ErrNotExist; unreadable or inconsistent content yields a
// *model.PersistenceError as well. Save replaces the file wholesale and never
// leaves a partially written target behind.
type Backend interface {
	Load(path string) (model.Snapshot, error)
	Save(path string, snap model.Snapshot) error

	// Ext is the file extension working files of this format carry.
	Ext() string
}
