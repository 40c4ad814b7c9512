package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/consensus-api/gemini"
	"github.com/yourorg/consensus-api/yelp"
)

// GeminiAPI is what the handlers need from the multimodal client.
type GeminiAPI interface {
	ProcessAudio(ctx context.Context, data []byte, mimeType, prompt string) (string, error)
	ProcessImage(ctx context.Context, data []byte, mimeType, prompt string) (string, error)
	TranscribeAudio(ctx context.Context, data []byte, mimeType string) (string, error)
	MultimodalSearch(ctx context.Context, p gemini.MultimodalParams) (string, error)
}

type GeminiDeps struct {
	Gemini GeminiAPI
	Yelp   YelpAPI
}

type AudioRequest struct {
	AudioBase64 string `json:"audio_base64"`
	MimeType    string `json:"mime_type,omitempty"` // default audio/mp3
	Prompt      string `json:"prompt,omitempty"`
}

type ImageRequest struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type,omitempty"` // default image/jpeg
	Prompt      string `json:"prompt,omitempty"`
}

type MultimodalRequest struct {
	TextQuery     string   `json:"text_query,omitempty"`
	AudioBase64   string   `json:"audio_base64,omitempty"`
	ImageBase64   string   `json:"image_base64,omitempty"`
	AudioMimeType string   `json:"audio_mime_type,omitempty"`
	ImageMimeType string   `json:"image_mime_type,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	Locale        string   `json:"locale,omitempty"`
}

func RegisterGemini(r chi.Router, d GeminiDeps) {
	r.Post("/api/gemini/process-audio", func(w http.ResponseWriter, req *http.Request) {
		var body AudioRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_json", "detail": err.Error()})
			return
		}
		data, err := base64.StdEncoding.DecodeString(body.AudioBase64)
		if err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_base64", "detail": err.Error()})
			return
		}
		text, err := d.Gemini.ProcessAudio(req.Context(), data, defStr(body.MimeType, "audio/mp3"), body.Prompt)
		if err != nil {
			render.Status(req, http.StatusBadGateway)
			render.JSON(w, req, map[string]any{"error": "upstream_error", "detail": err.Error()})
			return
		}
		render.JSON(w, req, map[string]any{"success": true, "result": analysisValue(text), "raw_response": text})
	})

	r.Post("/api/gemini/process-image", func(w http.ResponseWriter, req *http.Request) {
		var body ImageRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_json", "detail": err.Error()})
			return
		}
		data, err := base64.StdEncoding.DecodeString(body.ImageBase64)
		if err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_base64", "detail": err.Error()})
			return
		}
		text, err := d.Gemini.ProcessImage(req.Context(), data, defStr(body.MimeType, "image/jpeg"), body.Prompt)
		if err != nil {
			render.Status(req, http.StatusBadGateway)
			render.JSON(w, req, map[string]any{"error": "upstream_error", "detail": err.Error()})
			return
		}
		render.JSON(w, req, map[string]any{"success": true, "result": analysisValue(text), "raw_response": text})
	})

	r.Post("/api/gemini/transcribe-audio", func(w http.ResponseWriter, req *http.Request) {
		var body AudioRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_json", "detail": err.Error()})
			return
		}
		data, err := base64.StdEncoding.DecodeString(body.AudioBase64)
		if err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_base64", "detail": err.Error()})
			return
		}
		text, err := d.Gemini.TranscribeAudio(req.Context(), data, defStr(body.MimeType, "audio/mp3"))
		if err != nil {
			render.Status(req, http.StatusBadGateway)
			render.JSON(w, req, map[string]any{"error": "upstream_error", "detail": err.Error()})
			return
		}
		render.JSON(w, req, map[string]any{"success": true, "transcription": text})
	})

	r.Post("/api/gemini/multimodal-search", func(w http.ResponseWriter, req *http.Request) {
		var body MultimodalRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_json", "detail": err.Error()})
			return
		}

		params := gemini.MultimodalParams{
			TextQuery: body.TextQuery,
			AudioMime: defStr(body.AudioMimeType, "audio/mp3"),
			ImageMime: defStr(body.ImageMimeType, "image/jpeg"),
		}
		var err error
		if body.AudioBase64 != "" {
			if params.Audio, err = base64.StdEncoding.DecodeString(body.AudioBase64); err != nil {
				render.Status(req, http.StatusBadRequest)
				render.JSON(w, req, map[string]any{"error": "invalid_base64", "detail": err.Error()})
				return
			}
		}
		if body.ImageBase64 != "" {
			if params.Image, err = base64.StdEncoding.DecodeString(body.ImageBase64); err != nil {
				render.Status(req, http.StatusBadRequest)
				render.JSON(w, req, map[string]any{"error": "invalid_base64", "detail": err.Error()})
				return
			}
		}

		text, err := d.Gemini.MultimodalSearch(req.Context(), params)
		if err != nil {
			render.Status(req, http.StatusBadGateway)
			render.JSON(w, req, map[string]any{"error": "upstream_error", "detail": err.Error()})
			return
		}

		analysis := analysisValue(text)
		searchQuery := defStr(body.TextQuery, "restaurants")
		if m, ok := analysis.(map[string]any); ok {
			if q, ok := m["unified_search_query"].(string); ok && q != "" {
				searchQuery = q
			}
		}

		businesses, err := d.Yelp.Search(req.Context(), yelp.ChatParams{
			Query:     searchQuery,
			Latitude:  body.Latitude,
			Longitude: body.Longitude,
			Locale:    defStr(body.Locale, "en_US"),
		})
		if err != nil {
			renderProviderError(w, req, err)
			return
		}

		render.JSON(w, req, map[string]any{
			"success":      true,
			"analysis":     analysis,
			"search_query": searchQuery,
			"businesses":   businesses,
			"gemini_raw":   text,
		})
	})
}

// analysisValue decodes the model output as JSON when possible; the raw text
// passes through otherwise.
func analysisValue(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v
	}
	return text
}

func defStr(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
