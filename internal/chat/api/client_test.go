package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/attach"
)

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return New(Config{
		BaseURL:    srv.URL,
		Token:      "sekrit",
		Role:       "student",
		HTTPClient: srv.Client(),
	})
}

func TestFetchTopics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/subjects", r.URL.Path)
		require.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		require.Equal(t, "student", r.Header.Get("X-User-Role"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"subject":"Algebra","chatCategory":"Math","visible":true,
			 "messages":[{"_id":"m1","question":"Q1","answer":"A1","file":"uploads/a.png"}]}
		]`))
	}))
	defer srv.Close()

	records, err := newClient(t, srv).FetchTopics(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Algebra", records[0].Subject)
	require.Equal(t, "Math", records[0].Category)
	require.True(t, records[0].Visible)
	require.Len(t, records[0].Entries, 1)
	require.Equal(t, "m1", records[0].Entries[0].ID)
	require.Equal(t, "uploads/a.png", records[0].Entries[0].File)
}

func TestAskMultipartPassthrough(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "sheet.pdf")
	require.NoError(t, os.WriteFile(filePath, []byte("pdf"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "Algebra", r.FormValue("subject"))
		require.Equal(t, "What is 2+2?", r.FormValue("question"))
		require.Equal(t, "tiny", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "sheet.pdf", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(AskResult{Answer: "4", File: "uploads/sheet.pdf", Latency: 0.42})
	}))
	defer srv.Close()

	payload, err := attach.BuildPayload(filePath, "Algebra", "What is 2+2?", "tiny")
	require.NoError(t, err)

	result, err := newClient(t, srv).Ask(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, "4", result.Answer)
	require.Equal(t, "uploads/sheet.pdf", result.File)
	require.InDelta(t, 0.42, result.Latency, 1e-9)
}

func TestDeleteTopicEscapesName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newClient(t, srv).DeleteTopic(context.Background(), "Algebra II")
	require.NoError(t, err)
	require.Equal(t, "/api/subjects/Algebra%20II", gotPath)
}

func TestUnauthorizedSentinel(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newClient(t, srv).FetchTopics(context.Background())
		require.ErrorIs(t, err, ErrUnauthorized, "status %d", status)
		srv.Close()
	}
}

func TestRemoteErrorSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"inference_failed","message":"model overloaded, try again"}`))
	}))
	defer srv.Close()

	payload, err := attach.BuildPayload("", "Algebra", "hi", "")
	require.NoError(t, err)

	_, err = newClient(t, srv).Ask(context.Background(), payload)
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, http.StatusInternalServerError, remoteErr.Status)
	require.Equal(t, "model overloaded, try again", err.Error())
}

func TestRemoteErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newClient(t, srv).FetchTopics(context.Background())
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, http.StatusBadGateway, remoteErr.Status)
	require.Contains(t, err.Error(), "502")
}
