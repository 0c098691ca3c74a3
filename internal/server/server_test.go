package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, token string) *Server {
	t.Helper()
	store := newTestStore(t)
	srv, err := New(Config{
		ListenAddr: "127.0.0.1:0",
		AuthToken:  token,
		UploadDir:  filepath.Join(t.TempDir(), "uploads"),
	}, store, &CannedResponder{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func chatRequest(t *testing.T, subject, question string, fileName string, fileBody []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if subject != "" {
		_ = w.WriteField("subject", subject)
	}
	if question != "" {
		_ = w.WriteField("question", question)
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = part.Write(fileBody)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestChatRoundTrip(t *testing.T) {
	srv := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, chatRequest(t, "Algebra", "What is 2+2?", "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body %s", rec.Code, rec.Body.String())
	}

	var answer struct {
		Answer  string  `json:"answer"`
		File    string  `json:"file"`
		Latency float64 `json:"latency"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if answer.Answer == "" {
		t.Error("expected a non-empty answer")
	}
	if answer.File != "" {
		t.Errorf("File = %q, want empty for text-only chat", answer.File)
	}
	if answer.Latency < 0 {
		t.Errorf("Latency = %f, want >= 0", answer.Latency)
	}

	// The exchange is now visible through the listing.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var records []SubjectRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode subjects: %v", err)
	}
	if len(records) != 1 || records[0].Subject != "Algebra" {
		t.Fatalf("records = %+v, want one Algebra subject", records)
	}
	if len(records[0].Entries) != 1 || records[0].Entries[0].Question != "What is 2+2?" {
		t.Errorf("entries = %+v", records[0].Entries)
	}
}

func TestChatStoresUpload(t *testing.T) {
	srv := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, chatRequest(t, "Algebra", "see attached", "sheet.png", []byte("png-bytes")))
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body %s", rec.Code, rec.Body.String())
	}

	var answer struct {
		File string `json:"file"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if !strings.HasPrefix(answer.File, "uploads/") || !strings.HasSuffix(answer.File, "-sheet.png") {
		t.Fatalf("File = %q, want uploads/<uuid>-sheet.png", answer.File)
	}

	// The stored file is served back under /storage.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/"+answer.File, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("storage status = %d", rec.Code)
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("storage body = %q", rec.Body.String())
	}

	onDisk, err := os.ReadDir(srv.cfg.UploadDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(onDisk) != 1 {
		t.Errorf("expected exactly one stored file, got %d", len(onDisk))
	}
}

func TestChatRejectsEmptyPayload(t *testing.T) {
	srv := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, chatRequest(t, "Algebra", "", "", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if payload.Error == "" || payload.Message == "" {
		t.Errorf("error body = %+v, want error and message set", payload)
	}
}

func TestChatRequiresSubject(t *testing.T) {
	srv := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, chatRequest(t, "", "hello", "", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteSubjectEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, chatRequest(t, "Algebra", "Q1", "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("seed chat status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/subjects/Algebra", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/subjects/Algebra", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestAuthGate(t *testing.T) {
	srv := newTestServer(t, "sekrit")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad-token status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authed status = %d, want 200", rec.Code)
	}

	// Health stays open so probes don't need credentials.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
}
