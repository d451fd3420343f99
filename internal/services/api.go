// Raw HTTP client for the listing proxy
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

const defaultProxyURL = "http://127.0.0.1:3001"

// APIService makes raw HTTP requests against the listing proxy (or any JSON endpoint).
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the listing proxy.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultProxyURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{baseURL: baseURL, httpClient: client}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
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

// GetJSON performs a GET and decodes a 2xx body into out.
//
// Non-2xx responses are returned as [shared.ErrAPIRequest] carrying the "error" and "details" fields when present.
func (a *APIService) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := a.Get(ctx, path)
	if err != nil {
		return err
	}

	if !resp.OK() {
		var errResp struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(resp.Body, &errResp) == nil && errResp.Error != "" {
			if errResp.Details != "" {
				return fmt.Errorf("%w: status %d: %s: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Error, errResp.Details)
			}
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}
