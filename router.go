package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"

	httpapi "github.com/yourorg/consensus-api/http"
	"github.com/yourorg/consensus-api/internal/authstate"
	"github.com/yourorg/consensus-api/internal/events"
	"github.com/yourorg/consensus-api/internal/redisx"
)

type routerDeps struct {
	Yelp        httpapi.YelpAPI
	Gemini      httpapi.GeminiAPI
	Calendar    httpapi.CalendarAPI
	States      authstate.Store
	Cache       *redisx.Client
	CacheTTL    time.Duration
	Pub         events.Publisher
	CORSOrigins []string
}

func BuildRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(httprate.LimitByIP(100, 1*time.Minute)) // protect upstream quota
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","message":"Group Consensus Backend API","version":"1.0.0"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"status":"healthy"}`)) })

	httpapi.RegisterChat(r, httpapi.ChatDeps{Yelp: d.Yelp, Pub: d.Pub})
	httpapi.RegisterSearch(r, httpapi.SearchDeps{Yelp: d.Yelp, Cache: d.Cache, CacheTTL: d.CacheTTL, Pub: d.Pub})
	httpapi.RegisterGemini(r, httpapi.GeminiDeps{Gemini: d.Gemini, Yelp: d.Yelp})
	httpapi.RegisterCalendar(r, httpapi.CalendarDeps{Calendar: d.Calendar, States: d.States})

	return r
}
