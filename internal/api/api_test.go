// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/songpassport/internal/concepts/requesting"
	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
)

// fakeRequester records the last input and replies with a fixed response.
type fakeRequester struct {
	last engine.Args
	resp engine.Args
	err  error
}

func (f *fakeRequester) Request(_ context.Context, input engine.Args) (engine.Args, error) {
	f.last = input
	return f.resp, f.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   *APIError              `json:"error"`
	Meta    *APIMeta               `json:"meta"`
}

func newTestServer(req Requester, store Pinger, mwCfg *ChiMiddlewareConfig) http.Handler {
	if mwCfg == nil {
		mwCfg = &ChiMiddlewareConfig{RateLimitDisabled: true}
	}
	return NewRouter(NewHandler(req, store, 256), NewChiMiddleware(mwCfg)).Setup()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))

	var resp testResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func TestInvokeStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		resp       engine.Args
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "success", resp: engine.Args{"playlist": "p1"}, wantStatus: http.StatusOK},
		{name: "empty success", resp: engine.Args{}, wantStatus: http.StatusOK},
		{name: "invalid session", resp: engine.Args{"error": "Invalid session"}, wantStatus: http.StatusUnauthorized, wantCode: ErrCodeUnauthorized},
		{name: "forbidden", resp: engine.Args{"error": "Forbidden"}, wantStatus: http.StatusForbidden, wantCode: ErrCodeForbidden},
		{name: "concept error", resp: engine.Args{"error": "Playlist with ID 'x' not found."}, wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "internal error output", resp: engine.Args{"error": engine.InternalErrorMessage}, wantStatus: http.StatusInternalServerError, wantCode: ErrCodeInternal},
		{name: "no handler", err: fmt.Errorf("%w /Playlist/getPlaylist", requesting.ErrNoHandler), wantStatus: http.StatusNotFound, wantCode: ErrCodeNotFound},
		{name: "timeout", err: fmt.Errorf("%w: no sync responded", requesting.ErrTimeout), wantStatus: http.StatusGatewayTimeout, wantCode: ErrCodeTimeout},
		{name: "cancelled", err: context.Canceled, wantStatus: http.StatusServiceUnavailable, wantCode: ErrCodeUnavailable},
		{name: "internal", err: errors.New("store down"), wantStatus: http.StatusInternalServerError, wantCode: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeRequester{resp: tt.resp, err: tt.err}, docstore.NewMemory(), nil)
			rec, resp := do(t, h, http.MethodPost, "/api/Playlist/getPlaylist", `{"session":"s"}`)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if resp.Meta == nil || resp.Meta.RequestID == "" {
				t.Errorf("meta = %+v, want a request id", resp.Meta)
			}
			if tt.wantCode == "" {
				if !resp.Success || resp.Error != nil {
					t.Errorf("response = %+v, want success", resp)
				}
				return
			}
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("response = %+v, want error code %s", resp, tt.wantCode)
			}
		})
	}
}

func TestInvokeBuildsRequestInput(t *testing.T) {
	fake := &fakeRequester{resp: engine.Args{"playlist": "p1"}}
	h := newTestServer(fake, docstore.NewMemory(), nil)

	rec, resp := do(t, h, http.MethodPost, "/api/Playlist/createPlaylist", `{"session":"s1","name":"Road trip","path":"/Other/path"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if fake.last["path"] != "/Playlist/createPlaylist" {
		t.Errorf("path = %v, want the route path", fake.last["path"])
	}
	if fake.last["session"] != "s1" || fake.last["name"] != "Road trip" {
		t.Errorf("input = %v", fake.last)
	}
	if resp.Data["playlist"] != "p1" {
		t.Errorf("data = %v", resp.Data)
	}

	_, _ = do(t, h, http.MethodPost, "/api/CountryRecommendation/_getCountries", "")
	if fake.last["path"] != "/CountryRecommendation/_getCountries" || len(fake.last) != 1 {
		t.Errorf("empty body input = %v", fake.last)
	}
}

func TestInvokeRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "lowercase concept", path: "/api/playlist/createPlaylist", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "bad action", path: "/api/Playlist/create-playlist", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "malformed json", path: "/api/Playlist/createPlaylist", body: `{"name":`, wantStatus: http.StatusBadRequest, wantCode: ErrCodeBadRequest},
		{name: "array body", path: "/api/Playlist/createPlaylist", body: `["a"]`, wantStatus: http.StatusBadRequest, wantCode: ErrCodeBadRequest},
		{name: "too large", path: "/api/Playlist/createPlaylist", body: `{"name":"` + strings.Repeat("x", 300) + `"}`, wantStatus: http.StatusRequestEntityTooLarge, wantCode: ErrCodePayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRequester{resp: engine.Args{}}
			h := newTestServer(fake, docstore.NewMemory(), nil)
			rec, resp := do(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want %s", resp.Error, tt.wantCode)
			}
			if fake.last != nil {
				t.Error("rejected request reached the engine")
			}
		})
	}
}

func TestRoutingErrors(t *testing.T) {
	h := newTestServer(&fakeRequester{}, docstore.NewMemory(), nil)

	rec, resp := do(t, h, http.MethodGet, "/api/Playlist/createPlaylist", "")
	if rec.Code != http.StatusMethodNotAllowed || resp.Error == nil || resp.Error.Code != ErrCodeMethodNotAllowed {
		t.Errorf("GET on action route = %d %+v", rec.Code, resp.Error)
	}

	rec, resp = do(t, h, http.MethodGet, "/nowhere", "")
	if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown path = %d %+v", rec.Code, resp.Error)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(&fakeRequester{}, docstore.NewMemory(), nil)

	rec, resp := do(t, h, http.MethodGet, "/api/health/live", "")
	if rec.Code != http.StatusOK || resp.Data["alive"] != true {
		t.Errorf("live = %d %v", rec.Code, resp.Data)
	}

	rec, resp = do(t, h, http.MethodGet, "/api/health/ready", "")
	if rec.Code != http.StatusOK || resp.Data["store_connected"] != true {
		t.Errorf("ready = %d %v", rec.Code, resp.Data)
	}

	down := newTestServer(&fakeRequester{}, failingPinger{}, nil)
	rec, resp = do(t, down, http.MethodGet, "/api/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable || resp.Data["ready_to_serve"] != false {
		t.Errorf("ready with store down = %d %v", rec.Code, resp.Data)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(&fakeRequester{resp: engine.Args{}}, docstore.NewMemory(), &ChiMiddlewareConfig{
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})

	for i := 0; i < 2; i++ {
		if rec, _ := do(t, h, http.MethodPost, "/api/Playlist/getPlaylist", "{}"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec, resp := do(t, h, http.MethodPost, "/api/Playlist/getPlaylist", "{}")
	if rec.Code != http.StatusTooManyRequests || resp.Error == nil || resp.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("third request = %d %+v", rec.Code, resp.Error)
	}

	if rec, _ := do(t, h, http.MethodGet, "/api/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("health probe limited with the API limit: %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(&fakeRequester{}, docstore.NewMemory(), nil)
	_, _ = do(t, h, http.MethodGet, "/api/health/live", "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics output lacks api_requests_total")
	}
}

func TestInvokeEndToEnd(t *testing.T) {
	store := docstore.NewMemory()
	req := requesting.New(store, time.Second)
	e := engine.New()
	if err := req.RegisterActions(e); err != nil {
		t.Fatal(err)
	}
	const request engine.Var = "request"
	const name engine.Var = "name"
	if err := e.AddSync(&engine.Sync{
		Name: "GreetRequest",
		When: []engine.Pattern{engine.On(requesting.Request, engine.P{"path": "/Greeter/greet", "name": name}, engine.P{"request": request})},
		Then: []engine.Invocation{engine.Do(requesting.Respond, engine.P{"request": request, "greeting": name})},
	}); err != nil {
		t.Fatal(err)
	}

	h := newTestServer(req, store, nil)
	rec, resp := do(t, h, http.MethodPost, "/api/Greeter/greet", `{"name":"Dolly"}`)
	if rec.Code != http.StatusOK || resp.Data["greeting"] != "Dolly" {
		t.Errorf("greet = %d %v", rec.Code, resp.Data)
	}

	rec, resp = do(t, h, http.MethodPost, "/api/Greeter/unknown", `{}`)
	if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("unrouted path = %d %+v", rec.Code, resp.Error)
	}
}
