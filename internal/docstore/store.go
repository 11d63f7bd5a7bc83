// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package docstore provides named collections of JSON documents keyed by
// string id, backed by BadgerDB, MongoDB or process memory.
//
// Every concept persists its state through a Collection, so the same
// concept code runs unchanged on any backend.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"

	"github.com/tomtom215/songpassport/internal/config"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicate is returned by Insert when the id is already taken.
	ErrDuplicate = errors.New("document already exists")

	// ErrConflict is returned when an update keeps losing to concurrent writers.
	ErrConflict = errors.New("document update conflict")
)

// maxUpdateAttempts bounds optimistic retries in Update and Insert.
const maxUpdateAttempts = 16

// Filter selects documents whose top-level fields equal every entry.
// An empty Filter matches all documents.
type Filter map[string]any

// Store is a set of named collections.
type Store interface {
	// Collection returns the named collection. Collections are created lazily.
	Collection(name string) Collection

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Collection is a set of JSON documents keyed by id.
type Collection interface {
	// Insert stores doc under id. Returns ErrDuplicate if id exists.
	Insert(ctx context.Context, id string, doc any) error

	// Get decodes the document stored under id into out.
	// Returns ErrNotFound if id does not exist.
	Get(ctx context.Context, id string, out any) error

	// Replace stores doc under id, creating or overwriting it.
	Replace(ctx context.Context, id string, doc any) error

	// Update atomically decodes the document under id into doc (a pointer),
	// calls mutate, and writes doc back. An error from mutate aborts the
	// update and is returned unchanged. mutate may run more than once when
	// a concurrent writer wins, so it must only modify doc.
	Update(ctx context.Context, id string, doc any, mutate func() error) error

	// Delete removes the document under id. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Find returns the JSON encoding of every document matching filter,
	// ordered by id.
	Find(ctx context.Context, filter Filter) ([][]byte, error)
}

// Open creates the Store selected by cfg.Backend.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "badger":
		return OpenBadger(cfg.Path)
	case "mongo":
		return OpenMongo(cfg.MongoURL, cfg.MongoDatabase, cfg.MongoTimeout)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// FindAll decodes every document matching filter into a slice of T.
func FindAll[T any](ctx context.Context, c Collection, filter Filter) ([]T, error) {
	raw, err := c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, data := range raw {
		var doc T
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

// FindOne decodes the first document matching filter into a T.
// Returns ErrNotFound when nothing matches.
func FindOne[T any](ctx context.Context, c Collection, filter Filter) (T, error) {
	var zero T
	docs, err := FindAll[T](ctx, c, filter)
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, ErrNotFound
	}
	return docs[0], nil
}

// resetValue zeroes the value doc points to so a retried decode starts clean.
func resetValue(doc any) {
	v := reflect.ValueOf(doc)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().Set(reflect.Zero(v.Elem().Type()))
	}
}

// normalizeFilter round-trips filter values through JSON so they compare
// equal to decoded document fields (numbers become float64, and so on).
func normalizeFilter(filter Filter) (map[string]any, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	var normalized map[string]any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return normalized, nil
}

// matches reports whether the encoded document satisfies a normalized filter.
func matches(data []byte, filter map[string]any) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return false, fmt.Errorf("decode document: %w", err)
	}
	for key, want := range filter {
		got, ok := fields[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false, nil
		}
	}
	return true, nil
}
