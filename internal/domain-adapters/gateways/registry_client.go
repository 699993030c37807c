package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const manifestMediaType = "application/vnd.docker.distribution.manifest.v2+json"

// RegistryClient talks the registry v2 HTTP API: reachability, tag
// listings, and manifest presence checks used for skip-if-present pushes.
type RegistryClient struct {
	baseURL  string
	client   *http.Client
	username string
	password string
}

// NewRegistryClient creates a client for a registry at baseURL
// (e.g. "http://192.168.50.5:5000"). Credentials may be empty for
// anonymous registries.
func NewRegistryClient(baseURL, username, password string) *RegistryClient {
	return &RegistryClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		username: username,
		password: password,
	}
}

// tagList is the /v2/<name>/tags/list response body
type tagList struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// Ping checks that the registry answers the v2 base endpoint
func (c *RegistryClient) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/v2/")
	if err != nil {
		return fmt.Errorf("registry unreachable: %w", err)
	}
	//nolint:errcheck // Defer close on response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("registry ping returned status %d", resp.StatusCode)
	}
	return nil
}

// ListTags returns the tags for a repository
func (c *RegistryClient) ListTags(ctx context.Context, repository string) ([]string, error) {
	url := fmt.Sprintf("%s/v2/%s/tags/list", c.baseURL, repository)
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for %s: %w", repository, err)
	}
	//nolint:errcheck // Defer close on response body
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, nil // repository never pushed
	default:
		return nil, fmt.Errorf("tag list for %s returned status %d", repository, resp.StatusCode)
	}

	var tags tagList
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tag list: %w", err)
	}
	return tags.Tags, nil
}

// TagExists reports whether a manifest exists for repository:tag
func (c *RegistryClient) TagExists(ctx context.Context, repository, tag string) (bool, error) {
	url := fmt.Sprintf("%s/v2/%s/manifests/%s", c.baseURL, repository, tag)
	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return false, fmt.Errorf("failed to check manifest %s:%s: %w", repository, tag, err)
	}
	//nolint:errcheck // Defer close on response body
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("manifest check for %s:%s returned status %d", repository, tag, resp.StatusCode)
	}
}

func (c *RegistryClient) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", manifestMediaType)
	req.Header.Set("User-Agent", "coreforge")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	return c.client.Do(req)
}
