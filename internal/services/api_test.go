package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/amx/internal/shared"
	th "github.com/desertthunder/amx/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService(testConfig("http://example.com"), customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.BaseURL = ""
			srv := NewAPIService(config, nil)

			if srv.baseURL != appleMusicBaseURL {
				t.Errorf("expected the Apple Music base URL, got %s", srv.baseURL)
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService(testConfig(""), nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Authenticated JSON Request", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer "+testDeveloperToken {
					t.Errorf("expected developer token header, got %q", got)
				}
				if got := r.Header.Get("Media-User-Token"); got != "test-user-token" {
					t.Errorf("expected user token header, got %q", got)
				}
				if r.URL.Path != "/v1/test" {
					t.Errorf("expected path '/v1/test', got %s", r.URL.Path)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			srv := NewAPIService(testConfig(server.URL), nil)
			resp, err := srv.Get(context.Background(), "/v1/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON {
				t.Error("expected response to be JSON")
			}
			if resp.JSONData == nil {
				t.Error("expected JSONData to be populated")
			}
		})

		t.Run("Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			srv := NewAPIService(testConfig(server.URL), nil)
			resp, err := srv.Get(context.Background(), "/v1/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("expected body 'plain text response', got %s", string(resp.Body))
			}
		})

		t.Run("Error Status Passed Through", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"errors": [{"status": "401"}]}`))
			}))
			defer server.Close()

			srv := NewAPIService(testConfig(server.URL), nil)
			resp, err := srv.Get(context.Background(), "/v1/me/library/albums")

			if err != nil {
				t.Fatalf("raw access should not treat statuses as errors, got %v", err)
			}
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", resp.StatusCode)
			}
			if !resp.IsJSON {
				t.Error("expected the error payload to parse as JSON")
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := NewAPIService(testConfig("http://example.com"), nil)
			_, err := srv.Get(context.Background(), "/test\x00invalid")

			if err == nil {
				t.Error("expected error for invalid URL")
			}
			if !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: th.NewMockRoundTripper(nil, errors.New("connection failed")),
			}

			srv := NewAPIService(testConfig("http://example.com"), client)
			_, err := srv.Get(context.Background(), "/v1/test")

			if err == nil {
				t.Error("expected error for failed request")
			}
			if !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})
	})
}
