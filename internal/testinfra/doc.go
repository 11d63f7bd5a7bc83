// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package testinfra provides container-backed infrastructure for integration
// tests. It is only compiled with the integration build tag:
//
//	go test -tags integration ./internal/docstore/...
//
// # MongoDB Container
//
//	func TestMongoStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    mongo, err := testinfra.NewMongoContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, mongo)
//
//	    store, err := docstore.OpenMongo(mongo.URL, "test", 10*time.Second)
//	}
package testinfra
