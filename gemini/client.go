package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"
)

// Client calls the Gemini generateContent REST API. Responses are treated as
// opaque analysis text; callers decide whether to parse them.
type Client struct {
	key     string
	baseURL string
	model   string
	http    *retryablehttp.Client
}

func NewClient(apiKey string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	// Keep 429/5xx responses instead of letting the retry classifier eat
	// them; the caller gets the upstream status either way.
	rc.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) { return false, nil }
	rc.Logger = nil
	rc.HTTPClient.Timeout = 30 * time.Second

	return &Client{key: apiKey, baseURL: defaultBaseURL, model: defaultModel, http: rc}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// MultimodalParams bundles the optional inputs of a combined search.
type MultimodalParams struct {
	TextQuery string
	Audio     []byte
	Image     []byte
	AudioMime string
	ImageMime string
}

// ProcessAudio analyzes speech audio. An empty prompt falls back to the
// transcription + intent extraction prompt.
func (c *Client) ProcessAudio(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	if prompt == "" {
		prompt = audioAnalysisPrompt
	}
	parts := []part{
		{Text: prompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
	}
	return c.generate(ctx, parts, true)
}

// ProcessImage analyzes a food or dining photo. An empty prompt falls back to
// the food analysis prompt.
func (c *Client) ProcessImage(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	if prompt == "" {
		prompt = imageAnalysisPrompt
	}
	parts := []part{
		{Text: prompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
	}
	return c.generate(ctx, parts, true)
}

// TranscribeAudio returns a plain transcript, no JSON structure.
func (c *Client) TranscribeAudio(ctx context.Context, data []byte, mimeType string) (string, error) {
	parts := []part{
		{Text: "Generate a transcript of the speech in this audio."},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
	}
	return c.generate(ctx, parts, false)
}

// MultimodalSearch combines whatever inputs are present into one analysis
// whose unified_search_query field drives a follow-up restaurant search.
func (c *Client) MultimodalSearch(ctx context.Context, p MultimodalParams) (string, error) {
	promptParts := []string{"Based on the provided inputs, help me find the perfect restaurant or dining experience."}
	parts := []part{}

	if p.TextQuery != "" {
		promptParts = append(promptParts, "Text query: "+p.TextQuery)
	}
	if len(p.Audio) > 0 {
		promptParts = append(promptParts, "Analyze the audio for additional context.")
		parts = append(parts, part{InlineData: &inlineData{MimeType: p.AudioMime, Data: base64.StdEncoding.EncodeToString(p.Audio)}})
	}
	if len(p.Image) > 0 {
		promptParts = append(promptParts, "Analyze the image for visual preferences.")
		parts = append(parts, part{InlineData: &inlineData{MimeType: p.ImageMime, Data: base64.StdEncoding.EncodeToString(p.Image)}})
	}
	promptParts = append(promptParts, multimodalAnalysisPrompt)

	parts = append([]part{{Text: strings.Join(promptParts, "\n")}}, parts...)
	return c.generate(ctx, parts, true)
}

func (c *Client) generate(ctx context.Context, parts []part, jsonOut bool) (string, error) {
	reqBody := generateRequest{Contents: []content{{Parts: parts}}}
	if jsonOut {
		reqBody.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.key)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini api error (status %d): %s", resp.StatusCode, string(raw))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
