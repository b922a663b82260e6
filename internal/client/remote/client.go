// Package remote is the HTTP client for the Billfold sync service. Transport
// failures and 5xx responses surface as common.ErrTransientNetwork so the
// engine can retry next cycle; 401 surfaces as common.ErrAuthenticationRequired.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
	"github.com/dmitrijs2005/billfold/internal/common"
)

// TokenFunc supplies the bearer token for authenticated calls. An empty
// token issues the request unauthenticated (the server answers 401).
type TokenFunc func(ctx context.Context) (string, error)

type Client struct {
	baseURL string
	token   TokenFunc
	http    *http.Client
}

func NewClient(baseURL string, token TokenFunc) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/ping", nil, nil, false)
}

func (c *Client) FetchChangedSince(ctx context.Context, kind models.Kind, cursor time.Time, limit int) ([]map[string]any, error) {
	q := url.Values{}
	if !cursor.IsZero() {
		q.Set("since", cursor.UTC().Format(time.RFC3339Nano))
	}
	q.Set("limit", strconv.Itoa(limit))

	var resp changesResponse
	path := fmt.Sprintf("/v1/sync/%s/changes?%s", url.PathEscape(string(kind)), q.Encode())
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *Client) BatchWrite(ctx context.Context, kind models.Kind, docs []map[string]any) ([]WriteOutcome, error) {
	var resp batchResponse
	path := fmt.Sprintf("/v1/sync/%s/batch", url.PathEscape(string(kind)))
	if err := c.do(ctx, http.MethodPost, path, batchRequest{Documents: docs}, &resp, true); err != nil {
		return nil, err
	}
	if len(resp.Outcomes) != len(docs) {
		return nil, fmt.Errorf("%w: batch returned %d outcomes for %d documents",
			common.ErrTransientNetwork, len(resp.Outcomes), len(docs))
	}
	return resp.Outcomes, nil
}

func (c *Client) Delete(ctx context.Context, kind models.Kind, remoteID string) error {
	path := fmt.Sprintf("/v1/sync/%s/%s", url.PathEscape(string(kind)), url.PathEscape(remoteID))
	return c.do(ctx, http.MethodDelete, path, nil, nil, true)
}

func (c *Client) Register(ctx context.Context, login, password string) (string, error) {
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/register", credentialsRequest{Login: login, Password: password}, &resp, false)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", credentialsRequest{Login: login, Password: password}, &resp, false)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrAuthenticationRequired, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", common.ErrTransientNetwork, err)
		}
	}
	return nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrAuthenticationRequired, apiError(resp))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: server replied %d: %s", common.ErrTransientNetwork, resp.StatusCode, apiError(resp))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, apiError(resp))
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", common.ErrLoginAlreadyExists, apiError(resp))
	default:
		return fmt.Errorf("server replied %d: %s", resp.StatusCode, apiError(resp))
	}
}

func apiError(resp *http.Response) string {
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err != nil {
		return resp.Status
	}
	var e errorResponse
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return e.Error
	}
	return resp.Status
}
