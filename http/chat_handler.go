package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/consensus-api/internal/events"
	"github.com/yourorg/consensus-api/yelp"
)

// YelpAPI is what the handlers need from the search client.
type YelpAPI interface {
	Chat(ctx context.Context, p yelp.ChatParams) (*yelp.ChatResult, error)
	Search(ctx context.Context, p yelp.ChatParams) ([]yelp.Business, error)
}

type ChatDeps struct {
	Yelp YelpAPI
	Pub  events.Publisher
}

type UserContext struct {
	Locale    string   `json:"locale,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type ChatRequest struct {
	Query       string       `json:"query"`
	UserContext *UserContext `json:"user_context,omitempty"`
	ChatID      string       `json:"chat_id,omitempty"`
}

func RegisterChat(r chi.Router, d ChatDeps) {
	r.Post("/api/yelp/chat", func(w http.ResponseWriter, req *http.Request) {
		var body ChatRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_json", "detail": err.Error()})
			return
		}
		if body.Query == "" {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "query_required", "detail": "query is required"})
			return
		}

		params := yelp.ChatParams{Query: body.Query, Locale: "en_US", ChatID: body.ChatID}
		if uc := body.UserContext; uc != nil {
			if uc.Locale != "" {
				params.Locale = uc.Locale
			}
			params.Latitude = uc.Latitude
			params.Longitude = uc.Longitude
		}

		res, err := d.Yelp.Chat(req.Context(), params)
		if err != nil {
			renderProviderError(w, req, err)
			return
		}

		publishSearch(req.Context(), d.Pub, "/ai/chat/v2", body.Query, res.RawResponse, res.Businesses)
		render.JSON(w, req, res)
	})
}

// renderProviderError maps search-client failures onto gateway statuses:
// upstream rejections and transport failures are both bad-gateway material,
// anything else is ours.
func renderProviderError(w http.ResponseWriter, req *http.Request, err error) {
	var httpErr *yelp.ProviderHTTPError
	var unavailErr *yelp.ProviderUnavailableError
	switch {
	case errors.As(err, &httpErr):
		render.Status(req, http.StatusBadGateway)
		render.JSON(w, req, map[string]any{"error": "upstream_error", "detail": err.Error(), "upstream_status": httpErr.Status})
	case errors.As(err, &unavailErr):
		render.Status(req, http.StatusBadGateway)
		render.JSON(w, req, map[string]any{"error": "upstream_unavailable", "detail": err.Error()})
	default:
		render.Status(req, http.StatusInternalServerError)
		render.JSON(w, req, map[string]any{"error": "internal_error", "detail": err.Error()})
	}
}
