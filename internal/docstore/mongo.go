// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/juju/mgo/v3"
	"github.com/juju/mgo/v3/bson"
)

// revField carries the optimistic concurrency revision of a Mongo document.
const revField = "_rev"

// MongoStore persists documents in MongoDB. Each Collection maps to a Mongo
// collection of the same name and each document id to its _id.
type MongoStore struct {
	session *mgo.Session
	dbName  string
}

// OpenMongo dials url and uses the named database.
func OpenMongo(url, database string, timeout time.Duration) (*MongoStore, error) {
	session, err := mgo.DialWithTimeout(url, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial mongo: %w", err)
	}
	session.SetMode(mgo.Strong, true)
	return &MongoStore{session: session, dbName: database}, nil
}

// Collection returns the named collection.
func (s *MongoStore) Collection(name string) Collection {
	return &mongoCollection{store: s, name: name}
}

// Ping checks the server connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	session := s.session.Copy()
	defer session.Close()
	return session.Ping()
}

// Close closes the root session.
func (s *MongoStore) Close() error {
	s.session.Close()
	return nil
}

type mongoCollection struct {
	store *MongoStore
	name  string
}

// with runs fn against a copied session so concurrent callers do not share
// a socket.
func (c *mongoCollection) with(ctx context.Context, fn func(coll *mgo.Collection) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	session := c.store.session.Copy()
	defer session.Close()
	return fn(session.DB(c.store.dbName).C(c.name))
}

// toBSON converts doc into a Mongo document with the given id and revision.
func toBSON(id string, doc any, rev int64) (bson.M, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	m := bson.M(fields)
	if m == nil {
		m = bson.M{}
	}
	m["_id"] = id
	m[revField] = rev
	return m, nil
}

// fromBSON decodes a Mongo document into out, dropping the revision field.
func fromBSON(m bson.M, out any) error {
	delete(m, revField)
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func revision(m bson.M) int64 {
	switch v := m[revField].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func (c *mongoCollection) Insert(ctx context.Context, id string, doc any) error {
	m, err := toBSON(id, doc, 1)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.with(ctx, func(coll *mgo.Collection) error {
		err := coll.Insert(m)
		if mgo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	})
}

func (c *mongoCollection) Get(ctx context.Context, id string, out any) error {
	return c.with(ctx, func(coll *mgo.Collection) error {
		var m bson.M
		err := coll.FindId(id).One(&m)
		if errors.Is(err, mgo.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s/%s: %w", c.name, id, err)
		}
		return fromBSON(m, out)
	})
}

func (c *mongoCollection) Replace(ctx context.Context, id string, doc any) error {
	// A fresh revision keeps in-flight Updates from overwriting the replacement.
	m, err := toBSON(id, doc, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.with(ctx, func(coll *mgo.Collection) error {
		_, err := coll.UpsertId(id, m)
		return err
	})
}

func (c *mongoCollection) Update(ctx context.Context, id string, doc any, mutate func() error) error {
	return c.with(ctx, func(coll *mgo.Collection) error {
		for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
			var current bson.M
			err := coll.FindId(id).One(&current)
			if errors.Is(err, mgo.ErrNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("get %s/%s: %w", c.name, id, err)
			}

			rev := revision(current)
			selector := bson.M{"_id": id, revField: current[revField]}

			resetValue(doc)
			if err := fromBSON(current, doc); err != nil {
				return fmt.Errorf("decode %s/%s: %w", c.name, id, err)
			}
			if err := mutate(); err != nil {
				return err
			}

			next, err := toBSON(id, doc, rev+1)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
			}
			err = coll.Update(selector, next)
			if errors.Is(err, mgo.ErrNotFound) {
				continue // revision moved under us
			}
			return err
		}
		return fmt.Errorf("%s/%s: %w", c.name, id, ErrConflict)
	})
}

func (c *mongoCollection) Delete(ctx context.Context, id string) error {
	return c.with(ctx, func(coll *mgo.Collection) error {
		err := coll.RemoveId(id)
		if errors.Is(err, mgo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	})
}

func (c *mongoCollection) Find(ctx context.Context, filter Filter) ([][]byte, error) {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}

	var docs []bson.M
	err := c.with(ctx, func(coll *mgo.Collection) error {
		return coll.Find(query).Sort("_id").All(&docs)
	})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.name, err)
	}

	out := make([][]byte, 0, len(docs))
	for _, m := range docs {
		delete(m, revField)
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", c.name, err)
		}
		out = append(out, data)
	}
	return out, nil
}
