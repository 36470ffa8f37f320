// Package manifest generates the index.json of a local cards directory and
// keeps it current while card files change.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/starford/koinecards/internal/checksum"
	"github.com/starford/koinecards/internal/models"
	"github.com/starford/koinecards/internal/storage"
)

// Build lists every card file of store in path order.
func Build(store storage.Provider) (*models.Manifest, error) {
	files, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("manifest: build: %w", err)
	}
	m := &models.Manifest{Files: make([]string, 0, len(files))}
	for _, f := range files {
		m.Files = append(m.Files, f.Path)
	}
	return m, nil
}

// Encode renders m the way it is written to disk.
func Encode(m *models.Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	return append(data, '\n'), nil
}

// Write rebuilds the manifest and stores it as name. The file is only
// rewritten when its content changes; the returned bool reports a write.
func Write(store storage.Provider, name string) (*models.Manifest, bool, error) {
	m, err := Build(store)
	if err != nil {
		return nil, false, err
	}
	data, err := Encode(m)
	if err != nil {
		return nil, false, err
	}

	existing, err := store.Read(name)
	switch {
	case err == nil:
		if checksum.Equal(data, checksum.Sum(existing)) {
			return m, false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, false, fmt.Errorf("manifest: read %s: %w", name, err)
	}

	if err := store.Write(name, data); err != nil {
		return nil, false, fmt.Errorf("manifest: write %s: %w", name, err)
	}
	return m, true, nil
}
