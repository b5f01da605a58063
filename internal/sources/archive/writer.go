package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Build turns owner entries back into an archive document
func Build(groups []OwnerEntries) File {
	file := make(File, 0, len(groups))
	for _, g := range groups {
		records := make([]EntryRecord, 0, len(g.Entries))
		for _, e := range g.Entries {
			if !e.Exists {
				continue
			}
			records = append(records, EntryRecord{Date: e.Date.String(), Content: e.Content})
		}
		file = append(file, OwnerGroup{Owner: g.Owner.String(), Entries: records})
	}
	return file
}

// Encode writes file as YAML to w
func Encode(w io.Writer, file File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	return enc.Close()
}

// WriteFile replaces path with file. The document is written to a
// temporary sibling first so readers never see a partial archive.
func WriteFile(path string, file File) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".archive-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, file); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace archive: %w", err)
	}
	return nil
}
