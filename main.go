package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/consensus-api/gcal"
	"github.com/yourorg/consensus-api/gemini"
	"github.com/yourorg/consensus-api/internal/archive"
	"github.com/yourorg/consensus-api/internal/authstate"
	"github.com/yourorg/consensus-api/internal/env"
	"github.com/yourorg/consensus-api/internal/events"
	"github.com/yourorg/consensus-api/internal/redisx"
	"github.com/yourorg/consensus-api/internal/store"
	"github.com/yourorg/consensus-api/yelp"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Printf("[INFO] loaded .env")
	}

	port := env.GetInt("PORT", 8000)
	yelpKey := env.Must("YELP_API_KEY")
	geminiKey := env.Must("GEMINI_API_KEY")

	yelpClient := yelp.NewClient(yelpKey, os.Getenv("YELP_API_BASE_URL"))
	geminiClient := gemini.NewClient(geminiKey)
	calClient := gcal.NewClient(
		env.Get("GOOGLE_CALENDAR_CLIENT_ID", ""),
		env.Get("GOOGLE_CALENDAR_CLIENT_SECRET", ""),
		env.Get("GOOGLE_OAUTH_REDIRECT_URI", "http://localhost:5173/auth/google/callback"),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: with it the search cache and the OAuth state store
	// survive restarts and span instances; without it both stay in process.
	var cache *redisx.Client
	var states authstate.Store = authstate.NewMemory()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rc := redisx.New(addr, os.Getenv("REDIS_PASSWORD"), env.GetInt("REDIS_DB", 0))
		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Printf("[WARN] redis unavailable, falling back to in-memory: %v", err)
		} else {
			cache = rc
			states = authstate.NewRedis(rc)
		}
		cancel()
	}

	pub := events.NewInMemory(256)

	// Postgres is optional too; when present, every search result set gets
	// archived off the request path.
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		st, err := store.Open(dsn)
		if err != nil {
			log.Fatalf("store open error: %v", err)
		}
		defer st.DB.Close()

		initCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
		if err := st.Ping(initCtx); err != nil {
			cancel()
			log.Fatalf("postgres ping error: %v", err)
		}
		if err := st.Migrate(initCtx); err != nil {
			cancel()
			log.Fatalf("postgres migrate error: %v", err)
		}
		cancel()

		runner := &archive.Runner{Pub: pub, Archiver: &archive.Archiver{Store: st}}
		go runner.Run(rootCtx)
	}

	router := BuildRouter(routerDeps{
		Yelp:        yelpClient,
		Gemini:      geminiClient,
		Calendar:    calClient,
		States:      states,
		Cache:       cache,
		CacheTTL:    parseDuration(os.Getenv("SEARCH_CACHE_TTL"), 5*time.Minute),
		Pub:         pub,
		CORSOrigins: splitList(env.Get("CORS_ORIGINS", "http://localhost:5173")),
	})

	srv := &http.Server{Addr: ":" + strconv.Itoa(port), Handler: router}
	go func() {
		<-rootCtx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Printf("consensus-api listening on :%d", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	fields := strings.Split(v, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	dur, err := time.ParseDuration(v)
	if err == nil {
		return dur
	}
	if i, err2 := strconv.Atoi(v); err2 == nil {
		return time.Duration(i) * time.Second
	}
	return def
}
