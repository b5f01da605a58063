// Package memory is a process-local entry store for tests and throwaway runs.
package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

type Store struct {
	mu      sync.RWMutex
	entries map[domain.Owner]map[domain.DateKey]string
}

func NewStore() *Store {
	return &Store{entries: make(map[domain.Owner]map[domain.DateKey]string)}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Get(_ context.Context, owner domain.Owner, date domain.DateKey) (*domain.DiaryEntry, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	spellings := date.Spellings()
	for _, spelling := range spellings {
		if content, ok := s.entries[owner][domain.DateKey(spelling)]; ok {
			return &domain.DiaryEntry{Date: domain.DateKey(spellings[0]), Content: content, Exists: true}, nil
		}
	}
	return nil, nil
}

func (s *Store) Put(_ context.Context, owner domain.Owner, date domain.DateKey, content string) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byDate := s.entries[owner]
	if byDate == nil {
		byDate = make(map[domain.DateKey]string)
		s.entries[owner] = byDate
	}
	spellings := date.Spellings()
	byDate[domain.DateKey(spellings[0])] = content
	for _, legacy := range spellings[1:] {
		delete(byDate, domain.DateKey(legacy))
	}
	return nil
}

func (s *Store) Dates(_ context.Context, owner domain.Owner) ([]domain.DateKey, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	raw := make([]string, 0, len(s.entries[owner]))
	for date := range s.entries[owner] {
		raw = append(raw, string(date))
	}
	s.mu.RUnlock()

	return domain.UniqueDateKeys(raw), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
