// Package graph is a small client for the WhatsApp Business Management
// endpoints of the Meta Graph API.
package graph

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nebari-dev/wabastudio/internal/config"
	"golang.org/x/oauth2"
)

// Credentials address one WhatsApp Business Account.
type Credentials struct {
	WABAID      string
	AccessToken string
}

// Client calls the Graph API. Each call authenticates with the access token
// of the connection it targets.
type Client struct {
	baseURL    string
	appSecret  string
	httpClient *http.Client
}

// New creates a client from configuration.
func New(cfg config.GraphConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewWithHTTPClient(cfg.BaseURL, cfg.APIVersion, cfg.AppSecret, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a client that sends requests through hc.
func NewWithHTTPClient(baseURL, version, appSecret string, hc *http.Client) *Client {
	base := strings.TrimRight(baseURL, "/")
	if version != "" {
		base += "/" + strings.Trim(version, "/")
	}
	return &Client{baseURL: base, appSecret: appSecret, httpClient: hc}
}

// SecretProof is the appsecret_proof for an access token.
func SecretProof(accessToken, appSecret string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(accessToken))
	return hex.EncodeToString(mac.Sum(nil))
}

// request performs an authenticated call and decodes the JSON response
// into result. Graph error bodies come back as *Error.
func (c *Client) request(ctx context.Context, token, method, path string, query url.Values, body, result interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	if c.appSecret != "" {
		query.Set("appsecret_proof", SecretProof(token, c.appSecret))
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// oauth2 wraps our transport and sets the bearer header
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	hc.Timeout = c.httpClient.Timeout

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
