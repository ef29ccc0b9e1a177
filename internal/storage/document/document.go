// Package document stores the working set as a single JSON document: the schema
// descriptor followed by every sortie with its aircraft nested under it, and
// the operator hold when one is active.
package document

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nellis-lmt/paperload/internal/model"
)

// Config holds document backend settings
type Config struct {
	Compress bool
}

// Backend reads and writes working files as JSON, gzipped when the path ends in .gz.
type Backend struct {
	cfg Config
}

// New creates a document backend.
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

// File is the root JSON structure of a working file
type File struct {
	Schema  model.Schema `json:"schema"`
	Sorties []SortieJSON `json:"sorties"`
	Hold    *model.Hold  `json:"hold,omitempty"`
}

// SortieJSON is one sortie row with its child aircraft rows nested under it
type SortieJSON struct {
	model.Mission
	Aircraft []model.Aircraft `json:"aircraft"`
}

// Ext returns ".json" or ".json.gz".
func (b *Backend) Ext() string {
	if b.cfg.Compress {
		return ".json.gz"
	}
	return ".json"
}

// Load reads and validates the document at path.
func (b *Backend) Load(path string) (model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, &model.PersistenceError{Op: "load", Path: path, Err: err}
	}
	defer f.Close()

	doc, err := decode(f)
	if err != nil {
		return model.Snapshot{}, &model.PersistenceError{Op: "load", Path: path, Err: err}
	}

	snap := fromFile(doc)
	if err := snap.Validate(); err != nil {
		return model.Snapshot{}, &model.PersistenceError{Op: "load", Path: path, Err: err}
	}
	return snap, nil
}

// Save writes snap next to path and renames it into place.
func (b *Backend) Save(path string, snap model.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return &model.PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := writeAtomic(path, buildFile(snap)); err != nil {
		return &model.PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}

func buildFile(snap model.Snapshot) File {
	doc := File{
		Schema:  snap.Schema,
		Sorties: make([]SortieJSON, 0, len(snap.Missions)),
	}
	index := make(map[int]int, len(snap.Missions))
	for _, m := range snap.Missions {
		index[m.MissionNumber] = len(doc.Sorties)
		doc.Sorties = append(doc.Sorties, SortieJSON{Mission: utcMission(m), Aircraft: []model.Aircraft{}})
	}
	for _, a := range snap.Aircraft {
		i := index[a.MissionNumber]
		doc.Sorties[i].Aircraft = append(doc.Sorties[i].Aircraft, a)
	}
	if !snap.Hold.Empty() {
		hold := snap.Hold
		doc.Hold = &hold
	}
	return doc
}

func fromFile(doc File) model.Snapshot {
	snap := model.Snapshot{Schema: doc.Schema}
	for _, s := range doc.Sorties {
		snap.Missions = append(snap.Missions, utcMission(s.Mission))
		for _, a := range s.Aircraft {
			a.MissionNumber = s.MissionNumber
			snap.Aircraft = append(snap.Aircraft, a)
		}
	}
	if doc.Hold != nil {
		snap.Hold = *doc.Hold
	}
	return snap
}

func utcMission(m model.Mission) model.Mission {
	m.Date = m.Date.UTC()
	m.RangeStart = m.RangeStart.UTC()
	m.RangeEnd = m.RangeEnd.UTC()
	return m
}

func decode(r io.Reader) (File, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return File{}, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	var doc File
	if err := json.NewDecoder(src).Decode(&doc); err != nil {
		return File{}, fmt.Errorf("malformed working file: %w", err)
	}
	return doc, nil
}

func writeAtomic(path string, doc File) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if strings.HasSuffix(path, ".gz") {
		err = writeGzipJSON(tmp, doc)
	} else {
		err = writeJSON(tmp, doc)
	}
	if err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func writeJSON(w io.Writer, doc File) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func writeGzipJSON(w io.Writer, doc File) error {
	gzWriter := gzip.NewWriter(w)
	if err := json.NewEncoder(gzWriter).Encode(doc); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
