// Package archive reads and writes YAML exports of diary entries.
package archive

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/daylog/internal/utils"
)

// Loader reads an archive file
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the file the loader reads
func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the archive file
func (l *Loader) Load() (File, error) {
	f, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer utils.Close(f)

	return Decode(f)
}

// Decode parses an archive from r. An empty document is an empty archive.
func Decode(r io.Reader) (File, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return File{}, nil
		}
		return nil, fmt.Errorf("failed to parse archive yaml: %w", err)
	}
	return file, nil
}
