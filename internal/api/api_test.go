package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"riprocess-image-list/internal/api/handler"
	"riprocess-image-list/internal/model"
	"riprocess-image-list/internal/store"
	"riprocess-image-list/pkg/router"
	"riprocess-image-list/pkg/utils"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type testServer struct {
	handler http.Handler
	root    string
	outputs string
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	root := t.TempDir()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	outputs := filepath.Join(t.TempDir(), "output")
	h := &handler.Handler{
		Store:      st,
		Outputs:    utils.NewOutputManager(outputs),
		ConfigRoot: root,
		RunTimeout: 10 * time.Second,
		Logger:     logger,
	}
	r := router.New(logger)
	RegisterRoutes(r, h)
	return testServer{handler: r.Handler(), root: root, outputs: outputs}
}

// lay out nImages images and nRecords timestamps under the server's config root.
func (s testServer) lay(t *testing.T, nImages, nRecords int) {
	t.Helper()
	for i := 1; i <= nImages; i++ {
		write(t, filepath.Join(s.root, "images", fmt.Sprintf("IMG_%04d.jpg", i)), "")
	}
	var ts strings.Builder
	for i := 0; i < nRecords; i++ {
		fmt.Fprintf(&ts, "2017-06-21T20:29:%02d.5Z;r%d\n", 10+i, i)
	}
	write(t, filepath.Join(s.root, "timestamps", "a.txt"), ts.String())
}

func (s testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

const runConfig = `{
  "images": {"path": "images"},
  "timestamps": {"path": "timestamps"},
  "records": [{"start_time": "2017-06-21T20:29:00Z"}],
  "output": {"file": "/etc/should-be-ignored"}
}`

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Fatalf("body %s", got)
	}
}

func TestCreateImageList_Flow(t *testing.T) {
	s := newTestServer(t)
	s.lay(t, 2, 2)

	rec := s.do(t, http.MethodPost, "/api/v1/image-lists", runConfig)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var created handler.CreateImageListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.PairCount != 2 || created.Status != model.RunStatusCompleted || created.RunID == "" {
		t.Fatalf("unexpected response %+v", created)
	}
	if want := "/api/v1/download/" + created.RunID + "/" + utils.ListFileName; created.DownloadURL != want {
		t.Fatalf("download URL %q, want %q", created.DownloadURL, want)
	}
	if _, err := os.Stat("/etc/should-be-ignored"); err == nil {
		t.Fatal("caller-supplied output target was used")
	}

	rec = s.do(t, http.MethodGet, created.DownloadURL, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download status %d", rec.Code)
	}
	want := "2017-06-21T20:29:10.500000Z;" + filepath.Join(s.root, "images", "IMG_0001.jpg") + "\n" +
		"2017-06-21T20:29:11.500000Z;" + filepath.Join(s.root, "images", "IMG_0002.jpg") + "\n"
	if rec.Body.String() != want {
		t.Fatalf("download body:\n%s\nwant:\n%s", rec.Body, want)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type %q", ct)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/image-lists/"+created.RunID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d", rec.Code)
	}
	var detail handler.RunDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatal(err)
	}
	if detail.ID != created.RunID || detail.Status != model.RunStatusCompleted || len(detail.Pairs) != 2 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if detail.Pairs[1].Ident != "r1" {
		t.Fatalf("unexpected pair %+v", detail.Pairs[1])
	}

	rec = s.do(t, http.MethodGet, "/api/v1/image-lists", "")
	var runs []model.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != created.RunID {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestCreateImageList_Failures(t *testing.T) {
	s := newTestServer(t)
	s.lay(t, 3, 2)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantKind string
	}{
		{"count mismatch", runConfig, http.StatusUnprocessableEntity, "count_mismatch"},
		{"bad json", `{"images":`, http.StatusBadRequest, "invalid_config"},
		{"unknown field", `{"bogus": true}`, http.StatusBadRequest, "invalid_config"},
		{"no records", `{"images": {"path": "images"}, "timestamps": {"path": "timestamps"}}`, http.StatusBadRequest, "invalid_config"},
		{"missing range marker", `{"images": {"path": "images", "first_image": 9}, "timestamps": {"path": "timestamps"}, "records": [{"start_time": "2017-06-21T20:29:00Z"}]}`, http.StatusUnprocessableEntity, "range_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/image-lists", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.wantCode, rec.Body)
			}
			var resp handler.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Kind != tt.wantKind || resp.Error == "" {
				t.Fatalf("unexpected error response %+v", resp)
			}
		})
	}

	// The mismatch run is recorded as failed and left no list behind.
	rec := s.do(t, http.MethodGet, "/api/v1/image-lists", "")
	var runs []model.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatal(err)
	}
	var failed int
	for _, run := range runs {
		if run.Status == model.RunStatusFailed {
			failed++
			if _, err := os.Stat(filepath.Join(s.outputs, run.ID, utils.ListFileName)); err == nil {
				t.Fatalf("failed run %s has a list file", run.ID)
			}
		}
	}
	if failed != 2 {
		t.Fatalf("expected 2 failed runs, got %d (%+v)", failed, runs)
	}
}

func TestCreateImageList_PathsStayInsideConfigRoot(t *testing.T) {
	s := newTestServer(t)
	s.lay(t, 1, 1)
	outside := t.TempDir()
	write(t, filepath.Join(outside, "ts", "secret.txt"), "hunter2-password;x\n")
	rel, err := filepath.Rel(s.root, filepath.Join(outside, "ts"))
	if err != nil {
		t.Fatal(err)
	}

	body := func(tsPath string) string {
		b, err := json.Marshal(map[string]any{
			"images":     map[string]string{"path": "images"},
			"timestamps": map[string]string{"path": tsPath},
			"records":    []map[string]string{{"start_time": "2017-06-21T20:29:00Z"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		return string(b)
	}
	for name, tsPath := range map[string]string{
		"relative escape": rel,
		"absolute path":   filepath.Join(outside, "ts"),
	} {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/image-lists", body(tsPath))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400: %s", rec.Code, rec.Body)
			}
			if strings.Contains(rec.Body.String(), "hunter2") {
				t.Fatalf("response leaks file content: %s", rec.Body)
			}
			var resp handler.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Kind != "invalid_config" || resp.RunID != "" {
				t.Fatalf("unexpected error response %+v", resp)
			}
		})
	}
}

func TestNotFoundAndMethods(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/v1/image-lists/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/v1/download/unknown/image-list.txt", http.StatusNotFound},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/image-lists", http.StatusMethodNotAllowed},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		if rec := s.do(t, tt.method, tt.path, ""); rec.Code != tt.want {
			t.Errorf("%s %s: status %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestSwaggerDoc(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("/image-lists")) {
		t.Fatalf("doc does not describe the image-lists API: %s", rec.Body)
	}
}
