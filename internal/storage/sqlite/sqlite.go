// Package sqlitestorage keeps the working set in a single SQLite file.
// Saves build the tables in an in-memory database and dump it to disk via
// VACUUM INTO, then rename the dump over the target so a reader never sees a
// half-written file.
package sqlitestorage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/nellis-lmt/paperload/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Backend reads and writes working files as SQLite databases.
type Backend struct{}

// New creates a SQLite working-file backend.
func New() *Backend {
	return &Backend{}
}

// Ext returns ".db".
func (b *Backend) Ext() string {
	return ".db"
}

// Load reads every table of the database at path.
func (b *Backend) Load(path string) (model.Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return model.Snapshot{}, &model.PersistenceError{Op: "load", Path: path, Err: err}
	}

	db, err := openFile(path)
	if err != nil {
		return model.Snapshot{}, &model.PersistenceError{Op: "load", Path: path, Err: err}
	}
	defer closeDB(db)

	snap, err := readSnapshot(db)
	if err != nil {
		return model.Snapshot{}, &model.PersistenceError{Op: "load", Path: path, Err: err}
	}
	if err := snap.Validate(); err != nil {
		return model.Snapshot{}, &model.PersistenceError{Op: "load", Path: path, Err: err}
	}
	return snap, nil
}

// Save writes snap to a fresh database and moves it over path.
func (b *Backend) Save(path string, snap model.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return &model.PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := save(path, snap); err != nil {
		return &model.PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}

func save(path string, snap model.Snapshot) error {
	db, err := openMemory()
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := db.AutoMigrate(Tables...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := writeSnapshot(db, snap); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	// VACUUM INTO refuses an existing target
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	if err := dumpToDisk(db, tmpPath); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func writeSnapshot(db *gorm.DB, snap model.Snapshot) error {
	info, err := schemaToRow(snap.Schema)
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	hold, err := holdToRow(snap.Hold)
	if err != nil {
		return fmt.Errorf("failed to encode hold: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&info).Error; err != nil {
			return fmt.Errorf("failed to write schema_info: %w", err)
		}
		if len(snap.Missions) > 0 {
			rows := make([]Sortie, 0, len(snap.Missions))
			for i, m := range snap.Missions {
				rows = append(rows, missionToRow(m, i))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to write sorties: %w", err)
			}
		}
		if len(snap.Aircraft) > 0 {
			rows := make([]Aircraft, 0, len(snap.Aircraft))
			for i, a := range snap.Aircraft {
				rows = append(rows, aircraftToRow(a, i))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to write aircraft: %w", err)
			}
		}
		if err := tx.Create(&hold).Error; err != nil {
			return fmt.Errorf("failed to write hold: %w", err)
		}
		return nil
	})
}

func readSnapshot(db *gorm.DB) (model.Snapshot, error) {
	if !db.Migrator().HasTable(&SchemaInfo{}) {
		return model.Snapshot{}, errors.New("not a working file: schema_info table missing")
	}

	var info SchemaInfo
	if err := db.First(&info).Error; err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read schema_info: %w", err)
	}
	schema, err := rowToSchema(info)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("malformed schema descriptor: %w", err)
	}

	var sorties []Sortie
	if err := db.Order("seq").Find(&sorties).Error; err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read sorties: %w", err)
	}
	var aircraft []Aircraft
	if err := db.Order("seq").Find(&aircraft).Error; err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read aircraft: %w", err)
	}

	snap := model.Snapshot{Schema: schema}
	for _, r := range sorties {
		snap.Missions = append(snap.Missions, rowToMission(r))
	}
	for _, r := range aircraft {
		snap.Aircraft = append(snap.Aircraft, rowToAircraft(r))
	}

	// files written before the hold table existed carry no hold
	if db.Migrator().HasTable(&Hold{}) {
		var row Hold
		err := db.First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return model.Snapshot{}, fmt.Errorf("failed to read hold: %w", err)
		default:
			if snap.Hold, err = rowToHold(row); err != nil {
				return model.Snapshot{}, fmt.Errorf("malformed hold: %w", err)
			}
		}
	}
	return snap, nil
}

////////////////////////
// CONNECTIONS
////////////////////////

func gormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// openMemory returns a private in-memory database pinned to one connection.
func openMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			closeDB(db)
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}
	return db, nil
}

func openFile(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}
	if err := db.Exec("PRAGMA query_only = ON;").Error; err != nil {
		closeDB(db)
		return nil, fmt.Errorf("error setting PRAGMA: %w", err)
	}
	return db, nil
}

// dumpToDisk vacuums the in-memory database into a new file at path.
func dumpToDisk(db *gorm.DB, path string) error {
	quoted := strings.ReplaceAll(path, "'", "''")
	if err := db.Exec("VACUUM INTO '" + quoted + "';").Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
