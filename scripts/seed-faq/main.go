package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// seed-faq uploads a JSONL FAQ dataset through the admin API and activates it.
//
//	go run ./scripts/seed-faq <dataset.jsonl> <label> [description]
func main() {
	_ = godotenv.Load()
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run ./scripts/seed-faq <dataset.jsonl> <label> [description]")
		fmt.Println("Example: go run ./scripts/seed-faq scripts/seed-faq/sample.jsonl v1 \"launch FAQ\"")
		os.Exit(1)
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("error reading dataset: %v\n", err)
		os.Exit(1)
	}
	description := ""
	if len(os.Args) > 3 {
		description = os.Args[3]
	}

	s := seeder{
		client:   &http.Client{Timeout: 60 * time.Second},
		apiURL:   strings.TrimRight(apiURL, "/"),
		username: envOr("ADMIN_USERNAME", "admin"),
		password: os.Getenv("ADMIN_PASSWORD"),
	}
	if err := s.seed(context.Background(), os.Args[2], description, data); err != nil {
		fmt.Printf("seeding failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("dataset %q uploaded and activated on %s\n", os.Args[2], s.apiURL)
}

type seeder struct {
	client   *http.Client
	apiURL   string
	username string
	password string
}

func (s seeder) seed(ctx context.Context, label, description string, data []byte) error {
	token, err := s.login(ctx)
	if err != nil {
		return err
	}
	if err := s.upload(ctx, token, label, description, data); err != nil {
		return err
	}
	return s.activate(ctx, token, label)
}

func (s seeder) login(ctx context.Context) (string, error) {
	payload, _ := json.Marshal(map[string]string{"username": s.username, "password": s.password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/admin/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := s.do(req, http.StatusOK, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("login: empty access token")
	}
	return out.AccessToken, nil
}

func (s seeder) upload(ctx context.Context, token, label, description string, data []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("label", label)
	_ = mw.WriteField("description", description)
	part, err := mw.CreateFormFile("file", label+".jsonl")
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/admin/datasets", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	if err := s.do(req, http.StatusCreated, nil); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

func (s seeder) activate(ctx context.Context, token, label string) error {
	endpoint := fmt.Sprintf("%s/admin/datasets/%s/activate", s.apiURL, url.PathEscape(label))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if err := s.do(req, http.StatusOK, nil); err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	return nil
}

func (s seeder) do(req *http.Request, want int, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
