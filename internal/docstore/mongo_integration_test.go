// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

//go:build integration

package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/songpassport/internal/testinfra"
)

func TestMongoCollectionContract(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	mongo, err := testinfra.NewMongoContainer(ctx)
	if err != nil {
		t.Fatalf("start mongo: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, mongo)

	store, err := OpenMongo(mongo.URL, "songpassport_test", 30*time.Second)
	if err != nil {
		t.Fatalf("OpenMongo: %v", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	runCollectionContract(t, store)
}
