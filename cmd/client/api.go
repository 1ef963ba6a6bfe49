package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"BandChat/server/internal/models"
)

// apiClient binds the chat HTTP API to one signed-in user. It implements
// chat.Store and chat.ReadTracker.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) Login(ctx context.Context, email, password string) error {
	reqBody, _ := json.Marshal(map[string]string{"email": email, "password": password})

	var resp struct {
		Token string `json:"token"`
	}
	// do turns every non-2xx status, including a rejected login, into an
	// error carrying the response body.
	if err := c.do(ctx, http.MethodPost, "/login", reqBody, &resp); err != nil {
		return err
	}

	c.token = resp.Token
	return nil
}

func (c *apiClient) FetchMessages(ctx context.Context) ([]models.Message, error) {
	var messages []models.Message
	if err := c.do(ctx, http.MethodGet, "/api/messages", nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *apiClient) SendMessage(ctx context.Context, content string) (*models.Message, error) {
	reqBody, _ := json.Marshal(map[string]string{"content": content})

	var msg models.Message
	if err := c.do(ctx, http.MethodPost, "/api/messages", reqBody, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *apiClient) FetchLastRead(ctx context.Context) (*time.Time, error) {
	var resp struct {
		LastReadAt *time.Time `json:"last_read_at"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/read-timestamp", nil, &resp); err != nil {
		return nil, err
	}
	return resp.LastReadAt, nil
}

func (c *apiClient) UpdateLastRead(ctx context.Context, ts time.Time) error {
	reqBody, _ := json.Marshal(map[string]time.Time{"last_read_at": ts})
	return c.do(ctx, http.MethodPut, "/api/chat/read-timestamp", reqBody, nil)
}

func (c *apiClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed (%d): %s", method, path, resp.StatusCode, bytes.TrimSpace(raw))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
