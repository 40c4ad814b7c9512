package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiOK(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-key")
	c.baseURL = srv.URL
	return c, srv
}

func TestProcessAudioRequestShape(t *testing.T) {
	audio := []byte("fake-audio-bytes")
	var captured generateRequest

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/"+defaultModel+":generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(geminiOK(`{"transcription":"pizza please"}`)))
	})

	got, err := c.ProcessAudio(context.Background(), audio, "audio/mp3", "")
	require.NoError(t, err)
	assert.Equal(t, `{"transcription":"pizza please"}`, got)

	require.Len(t, captured.Contents, 1)
	parts := captured.Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, audioAnalysisPrompt, parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "audio/mp3", parts[1].InlineData.MimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(audio), parts[1].InlineData.Data)
	require.NotNil(t, captured.GenerationConfig)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
}

func TestProcessImageCustomPrompt(t *testing.T) {
	var captured generateRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(geminiOK("ok")))
	})

	_, err := c.ProcessImage(context.Background(), []byte{0x1}, "image/png", "what dish is this?")
	require.NoError(t, err)
	assert.Equal(t, "what dish is this?", captured.Contents[0].Parts[0].Text)
	assert.Equal(t, "image/png", captured.Contents[0].Parts[1].InlineData.MimeType)
}

func TestTranscribeAudioPlainText(t *testing.T) {
	var captured generateRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(geminiOK("hello there")))
	})

	got, err := c.TranscribeAudio(context.Background(), []byte("a"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "hello there", got)
	assert.Nil(t, captured.GenerationConfig) // transcript stays plain text
}

func TestMultimodalSearchCombinesInputs(t *testing.T) {
	var captured generateRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(geminiOK(`{"unified_search_query":"spicy ramen"}`)))
	})

	got, err := c.MultimodalSearch(context.Background(), MultimodalParams{
		TextQuery: "something warm",
		Audio:     []byte("au"),
		Image:     []byte("im"),
		AudioMime: "audio/mp3",
		ImageMime: "image/jpeg",
	})
	require.NoError(t, err)
	assert.Contains(t, got, "spicy ramen")

	parts := captured.Contents[0].Parts
	require.Len(t, parts, 3) // leading prompt, audio, image
	assert.Contains(t, parts[0].Text, "Text query: something warm")
	assert.Contains(t, parts[0].Text, "unified_search_query")
	assert.Equal(t, "audio/mp3", parts[1].InlineData.MimeType)
	assert.Equal(t, "image/jpeg", parts[2].InlineData.MimeType)
}

func TestGenerateErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusForbidden)
	})

	_, err := c.ProcessAudio(context.Background(), []byte("a"), "audio/mp3", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestGenerateRateLimitKeepsStatus(t *testing.T) {
	// 429 and 5xx fall in retryablehttp's retryable class; the status must
	// still reach the caller instead of a generic transport error.
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	})

	_, err := c.ProcessImage(context.Background(), []byte("a"), "image/jpeg", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateEmptyCandidates(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := c.TranscribeAudio(context.Background(), []byte("a"), "audio/mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no response")
}
