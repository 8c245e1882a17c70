package faq

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(t, &keywordEmbedder{})
	h := NewHandler(svc, nil)
	r := chi.NewRouter()
	r.Post("/datasets", h.Upload)
	r.Get("/datasets", h.List)
	r.Post("/datasets/{label}/activate", h.Activate)
	return r
}

func uploadRequest(t *testing.T, label, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("label", label)
	_ = mw.WriteField("description", "test data")
	part, err := mw.CreateFormFile("file", "faq.jsonl")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write([]byte(content))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandlerUploadListActivate(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "v1", sampleDataset))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}
	var created DatasetVersion
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Label != "v1" || created.TotalRecords != 2 || created.CreatedBy != "admin" {
		t.Fatalf("unexpected version %+v", created)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "v1", sampleDataset))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate label, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/datasets", nil))
	var listed struct {
		Versions []DatasetVersion `json:"versions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil || len(listed.Versions) != 1 {
		t.Fatalf("unexpected list %s (%v)", rec.Body.String(), err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/datasets/v1/activate", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("activate status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/datasets/ghost/activate", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerUploadRejectsBadData(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "bad", `{"prompt": `))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed jsonl, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "", sampleDataset))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing label, got %d", rec.Code)
	}
}
