// Package disk stores diary entries as JSON files through diskv.
package disk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

const fileExt = ".json"

// Options configure the on-disk layout
type Options struct {
	BasePath     string
	CacheSizeMax uint64 // bytes of read cache, 0 disables it
}

// Store lays entries out as <base>/<base64url(owner)>/<date>.json
type Store struct {
	d        *diskv.Diskv
	basePath string
}

type record struct {
	Date    domain.DateKey `json:"date"`
	Content string         `json:"content"`
}

// NewStore prepares the base directory and the diskv instance
func NewStore(opts Options) (*Store, error) {
	if opts.BasePath == "" {
		return nil, errors.New("disk store: base path required")
	}
	if err := os.MkdirAll(opts.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("disk store: ensure base path: %w", err)
	}

	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:          opts.BasePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      opts.CacheSizeMax,
		}),
		basePath: opts.BasePath,
	}, nil
}

func (s *Store) Name() string { return "disk" }

// Get reads the canonical file, then a legacy unpadded one
func (s *Store) Get(_ context.Context, owner domain.Owner, date domain.DateKey) (*domain.DiaryEntry, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	spellings := date.Spellings()
	for _, spelling := range spellings {
		val, err := s.d.Read(toKey(owner, domain.DateKey(spelling)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("disk store: read %s: %w: %w", date, domain.ErrStoreUnavailable, err)
		}

		var rec record
		if err := json.Unmarshal(val, &rec); err != nil {
			return nil, fmt.Errorf("disk store: decode %s: %w", date, err)
		}
		return &domain.DiaryEntry{Date: domain.DateKey(spellings[0]), Content: rec.Content, Exists: true}, nil
	}
	return nil, nil
}

// Put writes the canonical file and removes a legacy one for the same day
func (s *Store) Put(_ context.Context, owner domain.Owner, date domain.DateKey, content string) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	spellings := date.Spellings()
	canonical := domain.DateKey(spellings[0])
	data, err := json.Marshal(record{Date: canonical, Content: content})
	if err != nil {
		return fmt.Errorf("disk store: encode %s: %w", date, err)
	}
	if err := s.d.Write(toKey(owner, canonical), data); err != nil {
		return fmt.Errorf("disk store: write %s: %w: %w", date, domain.ErrStoreUnavailable, err)
	}

	for _, legacy := range spellings[1:] {
		key := toKey(owner, domain.DateKey(legacy))
		if !s.d.Has(key) {
			continue
		}
		if err := s.d.Erase(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("disk store: erase legacy %s: %w: %w", legacy, domain.ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (s *Store) Dates(ctx context.Context, owner domain.Owner) ([]domain.DateKey, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	prefix := encodeOwner(owner) + ":"
	raw := make([]string, 0)
	for key := range s.d.KeysPrefix(prefix, ctx.Done()) {
		raw = append(raw, strings.TrimPrefix(key, prefix))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return domain.UniqueDateKeys(raw), nil
}

// Ping verifies the base directory is still reachable
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrStoreUnavailable, s.basePath)
	}
	return nil
}

func (s *Store) Close() error { return nil }

// toKey makes `base64url(owner):date`
func toKey(owner domain.Owner, date domain.DateKey) string {
	return encodeOwner(owner) + ":" + string(date)
}

func encodeOwner(owner domain.Owner) string {
	return base64.RawURLEncoding.EncodeToString([]byte(owner))
}

func keyToPathTransform(key string) *diskv.PathKey {
	owner, date, _ := strings.Cut(key, ":")
	return &diskv.PathKey{
		Path:     []string{owner},
		FileName: date + fileExt,
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	owner := ""
	if len(pathKey.Path) > 0 {
		owner = pathKey.Path[0]
	}
	return owner + ":" + strings.TrimSuffix(pathKey.FileName, fileExt)
}
