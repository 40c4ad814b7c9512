package yelp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultBaseURL = "https://api.yelp.com"
	chatPath       = "/ai/chat/v2"
)

type Client struct {
	key     string
	baseURL string
	http    *retryablehttp.Client
}

// NewClient builds a chat client for the Yelp AI API. baseURL overrides the
// production endpoint; pass "" for the default.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0 // provider failures surface to the caller immediately
	// The default CheckRetry classifies 429/5xx as retryable and, with the
	// budget exhausted, swallows the response. Every status must reach the
	// status branch below, so never classify anything as retryable.
	rc.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) { return false, nil }
	rc.Logger = nil
	rc.HTTPClient.Timeout = 30 * time.Second

	return &Client{key: apiKey, baseURL: baseURL, http: rc}
}

// Chat sends one conversational query. Latitude and longitude ride together
// under user_context when both are set; a bare locale still gets its own
// user_context. ChatID continues a previous conversation.
func (c *Client) Chat(ctx context.Context, p ChatParams) (*ChatResult, error) {
	payload := map[string]any{"query": p.Query}
	if p.Latitude != nil && p.Longitude != nil {
		payload["user_context"] = map[string]any{
			"locale":    p.Locale,
			"latitude":  *p.Latitude,
			"longitude": *p.Longitude,
		}
	} else if p.Locale != "" {
		payload["user_context"] = map[string]any{"locale": p.Locale}
	}
	if p.ChatID != "" {
		payload["chat_id"] = p.ChatID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ProviderUnavailableError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := ioReadAllLimit(resp.Body, 4<<20) // 4MB guard
	if err != nil {
		return nil, &ProviderUnavailableError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderHTTPError{Status: resp.StatusCode, Body: string(raw)}
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode yelp response: %w", err)
	}

	res := &ChatResult{
		Businesses:  ExtractBusinesses(data),
		RawResponse: data,
	}
	if r, ok := data["response"].(map[string]any); ok {
		if t, ok := r["text"].(string); ok {
			res.ResponseText = t
		}
	}
	if id, ok := data["chat_id"].(string); ok {
		res.ChatID = &id
	}
	if ts, ok := data["types"].([]any); ok {
		for _, t := range ts {
			if s, ok := t.(string); ok {
				res.Types = append(res.Types, s)
			}
		}
	}
	return res, nil
}

// Search is the one-shot variant: a single chat turn, businesses only.
func (c *Client) Search(ctx context.Context, p ChatParams) ([]Business, error) {
	p.ChatID = ""
	res, err := c.Chat(ctx, p)
	if err != nil {
		return nil, err
	}
	return res.Businesses, nil
}

func ioReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	lr := io.LimitReader(r, limit+1)
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}
