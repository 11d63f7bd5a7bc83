// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

// MemoryStore keeps documents in process memory. It backs tests and the
// "memory" storage backend; nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

// Collection returns the named collection.
func (s *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: s, name: name}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

type memoryCollection struct {
	store *MemoryStore
	name  string
}

// docs must be called with the store lock held for writing.
func (c *memoryCollection) docs() map[string][]byte {
	m, ok := c.store.data[c.name]
	if !ok {
		m = make(map[string][]byte)
		c.store.data[c.name] = m
	}
	return m
}

func (c *memoryCollection) Insert(ctx context.Context, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	docs := c.docs()
	if _, exists := docs[id]; exists {
		return ErrDuplicate
	}
	docs[id] = data
	return nil
}

func (c *memoryCollection) Get(ctx context.Context, id string, out any) error {
	c.store.mu.RLock()
	data, ok := c.store.data[c.name][id]
	c.store.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(data, out)
}

func (c *memoryCollection) Replace(ctx context.Context, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.docs()[id] = data
	return nil
}

func (c *memoryCollection) Update(ctx context.Context, id string, doc any, mutate func() error) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.docs()
	data, ok := docs[id]
	if !ok {
		return ErrNotFound
	}
	resetValue(doc)
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	if err := mutate(); err != nil {
		return err
	}
	updated, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	docs[id] = updated
	return nil
}

func (c *memoryCollection) Delete(ctx context.Context, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	docs := c.docs()
	if _, ok := docs[id]; !ok {
		return ErrNotFound
	}
	delete(docs, id)
	return nil
}

func (c *memoryCollection) Find(ctx context.Context, filter Filter) ([][]byte, error) {
	normalized, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	docs := c.store.data[c.name]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	snapshot := make([][]byte, 0, len(ids))
	for _, id := range ids {
		snapshot = append(snapshot, docs[id])
	}
	c.store.mu.RUnlock()

	out := make([][]byte, 0, len(snapshot))
	for _, data := range snapshot {
		ok, err := matches(data, normalized)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, data)
		}
	}
	return out, nil
}
