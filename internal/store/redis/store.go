package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

// record is the JSON value stored under an entry key
type record struct {
	Date    domain.DateKey `json:"date"`
	Content string         `json:"content"`
}

// Store keeps diary entries in Redis, one key per owner and date
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Name identifies the backend
func (s *Store) Name() string { return "redis" }

// Get retrieves the entry of owner on date. A missing entry returns nil, nil.
// A value under the legacy unpadded key is used when the canonical one is absent.
func (s *Store) Get(ctx context.Context, owner domain.Owner, date domain.DateKey) (*domain.DiaryEntry, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	keys := EntryKeys(owner, date)
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %s: %w: %w", date, domain.ErrStoreUnavailable, err)
	}

	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry %s: %w", date, err)
		}
		return &domain.DiaryEntry{Date: domain.DateKey(date.Spellings()[0]), Content: rec.Content, Exists: true}, nil
	}
	return nil, nil
}

// Put overwrites the entry of owner on date and records the date in the
// owner's date set. Both writes go in one MULTI so a reader never sees a
// date without its entry; a legacy unpadded copy is dropped in the same MULTI.
func (s *Store) Put(ctx context.Context, owner domain.Owner, date domain.DateKey, content string) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	spellings := date.Spellings()
	canonical := domain.DateKey(spellings[0])
	data, err := json.Marshal(record{Date: canonical, Content: content})
	if err != nil {
		return fmt.Errorf("failed to marshal entry %s: %w", date, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, EntryKey(owner, canonical), data, 0)
		pipe.SAdd(ctx, DatesKey(owner), string(canonical))
		for _, legacy := range spellings[1:] {
			pipe.Del(ctx, EntryKey(owner, domain.DateKey(legacy)))
			pipe.SRem(ctx, DatesKey(owner), legacy)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save entry %s: %w: %w", date, domain.ErrStoreUnavailable, err)
	}

	return nil
}

// Dates lists every date owner has an entry for, canonical and oldest first
func (s *Store) Dates(ctx context.Context, owner domain.Owner) ([]domain.DateKey, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	members, err := s.client.SMembers(ctx, DatesKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list dates: %w: %w", domain.ErrStoreUnavailable, err)
	}

	// Entries written without the set (e.g. restored dumps) are found by key scan
	if len(members) == 0 {
		return s.scanDates(ctx, owner)
	}

	return domain.UniqueDateKeys(members), nil
}

func (s *Store) scanDates(ctx context.Context, owner domain.Owner) ([]domain.DateKey, error) {
	raw := make([]string, 0)
	iter := s.client.Scan(ctx, 0, EntryKey(owner, "*"), 0).Iterator()
	for iter.Next(ctx) {
		if date, ok := DateOf(owner, iter.Val()); ok {
			raw = append(raw, date)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan entry keys: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return domain.UniqueDateKeys(raw), nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
