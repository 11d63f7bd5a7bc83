// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package reporting

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
)

func newConcept(t *testing.T) *Concept {
	t.Helper()
	return New(docstore.NewMemory())
}

func TestReportLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newConcept(t)

	steps := []struct {
		name    string
		run     func() error
		wantErr string
		count   int
	}{
		{"report before init", func() error { return c.Report(ctx, "song-1", "u1") }, "Report for objectId 'song-1' does not exist.", -1},
		{"unreport before init", func() error { return c.Unreport(ctx, "song-1", "u1") }, "Report for objectId 'song-1' does not exist.", -1},
		{"init", func() error { return c.InitializeObject(ctx, "song-1") }, "", 0},
		{"init again", func() error { return c.InitializeObject(ctx, "song-1") }, "Report for objectId 'song-1' already exists.", 0},
		{"first report", func() error { return c.Report(ctx, "song-1", "u1") }, "", 1},
		{"duplicate report", func() error { return c.Report(ctx, "song-1", "u1") }, "User 'u1' has already reported objectId 'song-1'.", 1},
		{"second reporter", func() error { return c.Report(ctx, "song-1", "u2") }, "", 2},
		{"unreport", func() error { return c.Unreport(ctx, "song-1", "u1") }, "", 1},
		{"unreport again", func() error { return c.Unreport(ctx, "song-1", "u1") }, "User 'u1' has not reported objectId 'song-1'.", 1},
	}

	for _, step := range steps {
		err := step.run()
		if step.wantErr == "" && err != nil {
			t.Fatalf("%s: unexpected error %v", step.name, err)
		}
		if step.wantErr != "" {
			if err == nil || err.Error() != step.wantErr {
				t.Fatalf("%s: error = %v, want %q", step.name, err, step.wantErr)
			}
			if _, ok := engine.AsActionError(err); !ok {
				t.Fatalf("%s: %v is not an action error", step.name, err)
			}
		}

		rows, err := c.GetReportCountQuery(ctx, engine.Args{"objectId": "song-1"})
		if err != nil {
			t.Fatal(err)
		}
		if step.count < 0 {
			if len(rows) != 0 {
				t.Errorf("%s: _getReportCount = %v, want []", step.name, rows)
			}
			continue
		}
		if len(rows) != 1 || rows[0]["count"] != step.count {
			t.Errorf("%s: _getReportCount = %v, want count %d", step.name, rows, step.count)
		}
	}

	rows, err := c.GetReportersQuery(ctx, engine.Args{"objectId": "song-1"})
	if err != nil {
		t.Fatal(err)
	}
	reporters, _ := rows[0]["reporters"].([]string)
	if len(reporters) != 1 || reporters[0] != "u2" {
		t.Errorf("_getReporters = %v, want [u2]", rows)
	}
}

func TestQueriesOnUnknownObject(t *testing.T) {
	ctx := context.Background()
	c := newConcept(t)

	for name, q := range map[string]engine.QueryFunc{
		"_getReportCount": c.GetReportCountQuery,
		"_getReporters":   c.GetReportersQuery,
	} {
		rows, err := q(ctx, engine.Args{"objectId": "nope"})
		if err != nil || len(rows) != 0 {
			t.Errorf("%s(nope) = %v, %v; want no rows", name, rows, err)
		}
	}
}

func TestConcurrentReports(t *testing.T) {
	ctx := context.Background()
	c := newConcept(t)
	if err := c.InitializeObject(ctx, "obj"); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := c.Report(ctx, "obj", fmt.Sprintf("user-%d", i)); err != nil {
				t.Errorf("Report: %v", err)
			}
		}(i)
	}
	wg.Wait()

	r, err := c.Get(ctx, "obj")
	if err != nil {
		t.Fatal(err)
	}
	if r.Count != 25 || len(r.Reporters) != 25 {
		t.Errorf("count = %d, reporters = %d; want 25/25", r.Count, len(r.Reporters))
	}
}

func TestActions(t *testing.T) {
	ctx := context.Background()
	c := newConcept(t)
	e := engine.New()
	if err := c.RegisterActions(e); err != nil {
		t.Fatal(err)
	}

	out, err := e.Invoke(ctx, "", InitializeObject, engine.Args{"objectId": "rec-9"})
	if err != nil || out["objectId"] != "rec-9" {
		t.Fatalf("InitializeObject = %v, %v", out, err)
	}
	out, _ = e.Invoke(ctx, "", Report, engine.Args{"objectId": "rec-9", "userId": "u"})
	if len(out) != 0 {
		t.Errorf("Report output = %v, want {}", out)
	}
	out, _ = e.Invoke(ctx, "", Report, engine.Args{"objectId": "rec-9", "userId": "u"})
	if out["error"] != "User 'u' has already reported objectId 'rec-9'." {
		t.Errorf("duplicate Report output = %v", out)
	}
	out, _ = e.Invoke(ctx, "", Unreport, engine.Args{"objectId": "rec-9"})
	if out["error"] != "Missing required field 'userId'." {
		t.Errorf("Unreport without userId = %v", out)
	}
}
