// API service for making raw authenticated requests to the Apple Music API
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/amx/internal/shared"
)

// APIService provides raw request access to the Apple Music API for
// debugging. Responses come back unfiltered with their status and body.
type APIService struct {
	baseURL    string
	devToken   string
	userToken  string
	origin     string
	httpClient *http.Client
}

// NewAPIService creates a raw API client from the loaded configuration.
// A nil client defaults to [http.DefaultClient] so tests can inject a
// custom transport.
func NewAPIService(config *shared.Config, client *http.Client) *APIService {
	baseURL := config.API.BaseURL
	if baseURL == "" {
		baseURL = appleMusicBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		devToken:   config.Credentials.AppleMusic.DeveloperToken,
		userToken:  config.Credentials.AppleMusic.UserToken,
		origin:     config.Credentials.AppleMusic.Origin,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs an authenticated GET against the given path and returns the
// raw response. Non-2xx statuses are returned, not treated as errors, so
// the caller can inspect what the API actually said.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	fullURL := a.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if a.devToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.devToken)
	}
	if a.userToken != "" {
		req.Header.Set("Media-User-Token", a.userToken)
	}
	if a.origin != "" {
		req.Header.Set("Origin", a.origin)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
