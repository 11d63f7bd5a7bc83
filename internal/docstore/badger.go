// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key layout: "doc/<collection>/<id>".
const badgerKeyPrefix = "doc/"

// BadgerStore persists documents in an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB at path.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerFromDB wraps an already opened BadgerDB.
func NewBadgerFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Collection returns the named collection.
func (s *BadgerStore) Collection(name string) Collection {
	return &badgerCollection{db: s.db, name: name, prefix: badgerKeyPrefix + name + "/"}
}

// Ping reports an error once the database has been closed.
func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

type badgerCollection struct {
	db     *badger.DB
	name   string
	prefix string
}

func (c *badgerCollection) key(id string) []byte {
	return []byte(c.prefix + id)
}

// retry runs fn in a read-write transaction until it commits without a
// conflict or the attempt budget runs out.
func (c *badgerCollection) retry(ctx context.Context, id string, fn func(txn *badger.Txn) error) error {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("%s/%s: %w", c.name, id, ErrConflict)
}

func (c *badgerCollection) Insert(ctx context.Context, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.retry(ctx, id, func(txn *badger.Txn) error {
		_, err := txn.Get(c.key(id))
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get %s/%s: %w", c.name, id, err)
		}
		return txn.Set(c.key(id), data)
	})
}

func (c *badgerCollection) Get(ctx context.Context, id string, out any) error {
	return c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s/%s: %w", c.name, id, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

func (c *badgerCollection) Replace(ctx context.Context, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(id), data)
	})
}

func (c *badgerCollection) Update(ctx context.Context, id string, doc any, mutate func() error) error {
	return c.retry(ctx, id, func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s/%s: %w", c.name, id, err)
		}

		resetValue(doc)
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, doc)
		}); err != nil {
			return fmt.Errorf("decode %s/%s: %w", c.name, id, err)
		}
		if err := mutate(); err != nil {
			return err
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
		}
		return txn.Set(c.key(id), data)
	})
}

func (c *badgerCollection) Delete(ctx context.Context, id string) error {
	return c.retry(ctx, id, func(txn *badger.Txn) error {
		if _, err := txn.Get(c.key(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get %s/%s: %w", c.name, id, err)
		}
		return txn.Delete(c.key(id))
	})
}

func (c *badgerCollection) Find(ctx context.Context, filter Filter) ([][]byte, error) {
	normalized, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	var out [][]byte
	err = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(c.prefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", c.name, err)
			}
			ok, err := matches(data, normalized)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, data)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
