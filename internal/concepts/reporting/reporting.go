// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package reporting implements the Reporting concept, which counts the
// distinct users who reported an object.
package reporting

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
)

const collectionName = "Reporting.reports"

// ObjectReport is the stored report state of one object.
type ObjectReport struct {
	ObjectID  string   `json:"_id"`
	Count     int      `json:"count"`
	Reporters []string `json:"reporters"`
}

// Concept stores reports in a document collection.
type Concept struct {
	reports docstore.Collection
}

// New creates the concept on store.
func New(store docstore.Store) *Concept {
	return &Concept{reports: store.Collection(collectionName)}
}

// InitializeObject starts tracking reports for objectID.
func (c *Concept) InitializeObject(ctx context.Context, objectID string) error {
	err := c.reports.Insert(ctx, objectID, &ObjectReport{ObjectID: objectID, Reporters: []string{}})
	if errors.Is(err, docstore.ErrDuplicate) {
		return engine.Failf("Report for objectId '%s' already exists.", objectID)
	}
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Report records that userID reported objectID.
func (c *Concept) Report(ctx context.Context, objectID, userID string) error {
	return c.update(ctx, objectID, func(r *ObjectReport) error {
		if contains(r.Reporters, userID) {
			return engine.Failf("User '%s' has already reported objectId '%s'.", userID, objectID)
		}
		r.Reporters = append(r.Reporters, userID)
		r.Count++
		return nil
	})
}

// Unreport withdraws a report previously made by userID.
func (c *Concept) Unreport(ctx context.Context, objectID, userID string) error {
	return c.update(ctx, objectID, func(r *ObjectReport) error {
		if !contains(r.Reporters, userID) {
			return engine.Failf("User '%s' has not reported objectId '%s'.", userID, objectID)
		}
		kept := r.Reporters[:0]
		for _, u := range r.Reporters {
			if u != userID {
				kept = append(kept, u)
			}
		}
		r.Reporters = kept
		r.Count--
		return nil
	})
}

// Get returns the report for objectID, or nil when it is not tracked.
func (c *Concept) Get(ctx context.Context, objectID string) (*ObjectReport, error) {
	var r ObjectReport
	if err := c.reports.Get(ctx, objectID, &r); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	if r.Reporters == nil {
		r.Reporters = []string{}
	}
	return &r, nil
}

func (c *Concept) update(ctx context.Context, objectID string, mutate func(*ObjectReport) error) error {
	var r ObjectReport
	err := c.reports.Update(ctx, objectID, &r, func() error { return mutate(&r) })
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return engine.Failf("Report for objectId '%s' does not exist.", objectID)
	default:
		if _, ok := engine.AsActionError(err); ok {
			return err
		}
		return fmt.Errorf("update report: %w", err)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
