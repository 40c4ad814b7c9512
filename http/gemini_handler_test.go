package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/consensus-api/gemini"
	"github.com/yourorg/consensus-api/yelp"
)

type fakeGemini struct {
	result     string
	lastMime   string
	lastPrompt string
	lastParams gemini.MultimodalParams
}

func (f *fakeGemini) ProcessAudio(_ context.Context, _ []byte, mimeType, prompt string) (string, error) {
	f.lastMime, f.lastPrompt = mimeType, prompt
	return f.result, nil
}

func (f *fakeGemini) ProcessImage(_ context.Context, _ []byte, mimeType, prompt string) (string, error) {
	f.lastMime, f.lastPrompt = mimeType, prompt
	return f.result, nil
}

func (f *fakeGemini) TranscribeAudio(_ context.Context, _ []byte, mimeType string) (string, error) {
	f.lastMime = mimeType
	return f.result, nil
}

func (f *fakeGemini) MultimodalSearch(_ context.Context, p gemini.MultimodalParams) (string, error) {
	f.lastParams = p
	return f.result, nil
}

func geminiRouter(g GeminiAPI, y YelpAPI) http.Handler {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	RegisterGemini(r, GeminiDeps{Gemini: g, Yelp: y})
	return r
}

func TestProcessAudioParsesJSONResult(t *testing.T) {
	fg := &fakeGemini{result: `{"transcription":"sushi tonight","intent":"find dinner"}`}
	srv := httptest.NewServer(geminiRouter(fg, &fakeYelp{}))
	defer srv.Close()

	payload := base64.StdEncoding.EncodeToString([]byte("audio-bytes"))
	resp, err := http.Post(srv.URL+"/api/gemini/process-audio", "application/json",
		strings.NewReader(`{"audio_base64":"`+payload+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool           `json:"success"`
		Result  map[string]any `json:"result"`
		Raw     string         `json:"raw_response"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "sushi tonight", body.Result["transcription"])
	assert.Equal(t, fg.result, body.Raw)
	assert.Equal(t, "audio/mp3", fg.lastMime)
}

func TestProcessImageRejectsBadBase64(t *testing.T) {
	srv := httptest.NewServer(geminiRouter(&fakeGemini{}, &fakeYelp{}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/gemini/process-image", "application/json",
		strings.NewReader(`{"image_base64":"not-base64!!!"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_base64", body["error"])
}

func TestTranscribeAudioPlainText(t *testing.T) {
	fg := &fakeGemini{result: "table for six at seven"}
	srv := httptest.NewServer(geminiRouter(fg, &fakeYelp{}))
	defer srv.Close()

	payload := base64.StdEncoding.EncodeToString([]byte("audio-bytes"))
	resp, err := http.Post(srv.URL+"/api/gemini/transcribe-audio", "application/json",
		strings.NewReader(`{"audio_base64":"`+payload+`","mime_type":"audio/wav"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "table for six at seven", body["transcription"])
	assert.Equal(t, "audio/wav", fg.lastMime)
}

func TestMultimodalSearchChainsIntoYelp(t *testing.T) {
	fg := &fakeGemini{result: `{"unified_search_query":"spicy szechuan","combined_analysis":"group wants heat"}`}
	fy := &fakeYelp{businesses: []yelp.Business{{ID: "b1", Name: "Mala House", Tags: []string{}}}}
	srv := httptest.NewServer(geminiRouter(fg, fy))
	defer srv.Close()

	img := base64.StdEncoding.EncodeToString([]byte("image-bytes"))
	resp, err := http.Post(srv.URL+"/api/gemini/multimodal-search", "application/json",
		strings.NewReader(`{"text_query":"dinner","image_base64":"`+img+`","latitude":40.7,"longitude":-74.0}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success     bool            `json:"success"`
		Analysis    map[string]any  `json:"analysis"`
		SearchQuery string          `json:"search_query"`
		Businesses  []yelp.Business `json:"businesses"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "spicy szechuan", body.SearchQuery)
	require.Len(t, body.Businesses, 1)
	assert.Equal(t, "Mala House", body.Businesses[0].Name)

	assert.Equal(t, "spicy szechuan", fy.lastParams.Query)
	require.NotNil(t, fy.lastParams.Latitude)
	assert.Equal(t, "dinner", fg.lastParams.TextQuery)
	assert.NotEmpty(t, fg.lastParams.Image)
}

func TestMultimodalSearchFallsBackToTextQuery(t *testing.T) {
	// Non-JSON analysis: query falls back to the text input.
	fg := &fakeGemini{result: "free-form analysis"}
	fy := &fakeYelp{}
	srv := httptest.NewServer(geminiRouter(fg, fy))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/gemini/multimodal-search", "application/json",
		strings.NewReader(`{"text_query":"ramen"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ramen", fy.lastParams.Query)
}
