package client

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/hirewithprachi/console/internal/cli/auth"
)

// ErrUnauthorized means the server rejected the credentials or token
var ErrUnauthorized = errors.New("invalid credentials or expired session")

// Client represents an HTTP client for the admin console API
type Client struct {
	host       string
	baseURL    string
	tokens     auth.TokenStore
	httpClient *http.Client
}

// New creates a new API client. The host is used both to build the base URL
// and as the token-store key.
func New(host string, tokens auth.TokenStore) *Client {
	// Assume HTTPS unless the host carries an explicit scheme (tests use http)
	baseURL := host
	if !strings.Contains(host, "://") {
		baseURL = fmt.Sprintf("https://%s", host)
	}

	return &Client{
		host:    host,
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Skip TLS verification for self-signed certificates
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// UserInfo is the user block returned by auth endpoints
type UserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// Login authenticates the user and returns a JWT token
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	jsonData, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/auth/login", c.baseURL),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("login failed (status %d): %s", resp.StatusCode, string(body))
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &loginResp, nil
}

// MeResponse is the current-user response
type MeResponse struct {
	User      UserInfo  `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Me returns the currently authenticated user
func (c *Client) Me() (*MeResponse, error) {
	var me MeResponse
	if err := c.doJSON("GET", "/api/auth/me", nil, http.StatusOK, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// AdminGrant is an admin grant as returned by the lookup endpoint
type AdminGrant struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// AdminLookup returns the caller's active admin grant. A nil grant with a
// nil error means the account is authenticated but holds no admin access.
func (c *Client) AdminLookup() (*AdminGrant, error) {
	var resp struct {
		Admin *AdminGrant `json:"admin"`
	}
	if err := c.doJSON("GET", "/api/auth/admin", nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Admin, nil
}

// TouchAdmin asks the server to record a successful admin login
func (c *Client) TouchAdmin() error {
	return c.doJSON("POST", "/api/auth/admin/touch", nil, http.StatusAccepted, nil)
}

// RequestPasswordReset starts a password reset for the given email
func (c *Client) RequestPasswordReset(email string) error {
	jsonData, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/auth/reset-password", c.baseURL),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("password reset failed (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// Lead is a lead row as returned by the API
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Source    string    `json:"source"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLeads returns leads, optionally filtered by status
func (c *Client) ListLeads(status string) ([]Lead, error) {
	path := "/api/admin/leads"
	if status != "" {
		path += "?status=" + status
	}

	var leads []Lead
	if err := c.doJSON("GET", path, nil, http.StatusOK, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// ExportLeadsCSV streams the CSV export into w and returns the server-chosen
// file name.
func (c *Client) ExportLeadsCSV(w io.Writer) (string, error) {
	req, err := c.newRequest("GET", "/api/admin/leads/export", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("export failed (status %d): %s", resp.StatusCode, string(body))
	}

	fileName := "leads.csv"
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			fileName = params["filename"]
		}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("failed to read export: %w", err)
	}

	return fileName, nil
}

func (c *Client) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	token, err := c.tokens.LoadToken(c.host)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	return req, nil
}

// doJSON performs an authenticated request and decodes the JSON response
// into out when out is non-nil.
func (c *Client) doJSON(method, path string, body io.Reader, wantStatus int, out interface{}) error {
	req, err := c.newRequest(method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != wantStatus {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
