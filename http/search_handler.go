package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/consensus-api/internal/canon"
	"github.com/yourorg/consensus-api/internal/events"
	"github.com/yourorg/consensus-api/internal/redisx"
	"github.com/yourorg/consensus-api/yelp"
)

type SearchDeps struct {
	Yelp     YelpAPI
	Cache    *redisx.Client // optional; nil disables the cache
	CacheTTL time.Duration
	Pub      events.Publisher
}

type SearchRequest struct {
	Query     string   `json:"query"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Locale    string   `json:"locale,omitempty"`
}

func RegisterSearch(r chi.Router, d SearchDeps) {
	r.Post("/api/yelp/search", func(w http.ResponseWriter, req *http.Request) {
		var body SearchRequest
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
		if body.Locale == "" {
			body.Locale = "en_US"
		}

		ctx := req.Context()
		cacheKey := canon.CacheKey(body.Query, body.Locale, body.Latitude, body.Longitude)

		if d.Cache != nil {
			if val, err := d.Cache.Get(ctx, cacheKey); err == nil && val != "" {
				var cached []yelp.Business
				if err := json.Unmarshal([]byte(val), &cached); err == nil {
					render.JSON(w, req, cached)
					return
				}
			}
		}

		businesses, err := d.Yelp.Search(ctx, yelp.ChatParams{
			Query:     body.Query,
			Latitude:  body.Latitude,
			Longitude: body.Longitude,
			Locale:    body.Locale,
		})
		if err != nil {
			renderProviderError(w, req, err)
			return
		}

		if d.Cache != nil {
			if b, err := json.Marshal(businesses); err == nil {
				_ = d.Cache.Set(ctx, cacheKey, string(b), maxDur(d.CacheTTL, 5*time.Minute))
			}
		}
		publishSearch(ctx, d.Pub, "/ai/chat/v2", body.Query, nil, businesses)

		render.JSON(w, req, businesses)
	})
}

func maxDur(a, b time.Duration) time.Duration {
	if a > 0 {
		return a
	}
	return b
}
