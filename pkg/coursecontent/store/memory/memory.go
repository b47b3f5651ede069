// Package memory provides an in-memory Store implementation, used in tests
// and as the default for local development.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/learnhub/course-content/pkg/coursecontent"
)

// Store implements coursecontent.Store with mutex-guarded maps.
type Store struct {
	mu    sync.RWMutex
	items map[string]map[string]coursecontent.Item // partition -> sort -> item
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		items: make(map[string]map[string]coursecontent.Item),
	}
}

func (s *Store) Get(ctx context.Context, partitionKey, sortKey string) (*coursecontent.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[partitionKey][sortKey]
	if !ok {
		return nil, coursecontent.ErrItemNotFound
	}
	copied := item
	copied.Value = append([]byte(nil), item.Value...)
	return &copied, nil
}

func (s *Store) PutIfAbsent(ctx context.Context, item coursecontent.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.items[item.PartitionKey]
	if !ok {
		partition = make(map[string]coursecontent.Item)
		s.items[item.PartitionKey] = partition
	}
	if _, exists := partition[item.SortKey]; exists {
		return coursecontent.ErrItemExists
	}
	partition[item.SortKey] = copyItem(item)
	return nil
}

func (s *Store) Put(ctx context.Context, item coursecontent.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.items[item.PartitionKey]
	if !ok {
		partition = make(map[string]coursecontent.Item)
		s.items[item.PartitionKey] = partition
	}
	partition[item.SortKey] = copyItem(item)
	return nil
}

func (s *Store) Update(ctx context.Context, item coursecontent.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.items[item.PartitionKey]
	if !ok {
		return coursecontent.ErrItemNotFound
	}
	if _, exists := partition[item.SortKey]; !exists {
		return coursecontent.ErrItemNotFound
	}
	partition[item.SortKey] = copyItem(item)
	return nil
}

func (s *Store) Delete(ctx context.Context, partitionKey, sortKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.items[partitionKey]
	if !ok {
		return coursecontent.ErrItemNotFound
	}
	if _, exists := partition[sortKey]; !exists {
		return coursecontent.ErrItemNotFound
	}
	delete(partition, sortKey)
	return nil
}

func (s *Store) Query(ctx context.Context, partitionKey, sortKeyPrefix string) ([]coursecontent.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []coursecontent.Item
	for sk, item := range s.items[partitionKey] {
		if strings.HasPrefix(sk, sortKeyPrefix) {
			result = append(result, copyItem(item))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SortKey < result[j].SortKey
	})
	return result, nil
}

func (s *Store) QueryIndex(ctx context.Context, indexKey string) ([]coursecontent.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []coursecontent.Item
	for _, partition := range s.items {
		for _, item := range partition {
			if item.IndexKey == indexKey {
				result = append(result, copyItem(item))
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].IndexSortKey < result[j].IndexSortKey
	})
	return result, nil
}

// Increment stores counters as ASCII decimal row values, mirroring how the
// number lands in a real table.
func (s *Store) Increment(ctx context.Context, partitionKey, sortKey string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.items[partitionKey]
	if !ok {
		partition = make(map[string]coursecontent.Item)
		s.items[partitionKey] = partition
	}

	var current int64
	if item, exists := partition[sortKey]; exists {
		parsed, err := strconv.ParseInt(string(item.Value), 10, 64)
		if err != nil {
			return 0, err
		}
		current = parsed
	}

	current += delta
	partition[sortKey] = coursecontent.Item{
		PartitionKey: partitionKey,
		SortKey:      sortKey,
		Value:        []byte(strconv.FormatInt(current, 10)),
	}
	return current, nil
}

func copyItem(item coursecontent.Item) coursecontent.Item {
	copied := item
	copied.Value = append([]byte(nil), item.Value...)
	return copied
}
