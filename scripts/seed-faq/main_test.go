package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedLogsInUploadsAndActivates(t *testing.T) {
	var calls []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/login", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "login")
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("POST /admin/datasets", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "upload")
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "v1", r.FormValue("label"))
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		assert.Contains(t, string(data), "final expense")
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /admin/datasets/{label}/activate", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "activate:"+r.PathValue("label"))
		_ = json.NewEncoder(w).Encode(map[string]string{"active": r.PathValue("label")})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	data, err := os.ReadFile("sample.jsonl")
	require.NoError(t, err)

	s := seeder{client: srv.Client(), apiURL: srv.URL, username: "admin", password: "secret"}
	require.NoError(t, s.seed(context.Background(), "v1", "launch", data))
	assert.Equal(t, []string{"login", "upload", "activate:v1"}, calls)

	s.password = "wrong"
	err = s.seed(context.Background(), "v1", "launch", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login: status 401")
}
