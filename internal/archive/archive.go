// Package archive drains search events into postgres off the request path.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/yourorg/consensus-api/internal/events"
	"github.com/yourorg/consensus-api/internal/store"
	"github.com/yourorg/consensus-api/yelp"
)

type SnapshotWriter interface {
	WriteSnapshotAndUpsert(ctx context.Context, in store.UpsertInput) error
}

type Archiver struct {
	Store SnapshotWriter
}

func (a *Archiver) Enabled() bool { return a != nil && a.Store != nil }

func (a *Archiver) Write(ctx context.Context, evt events.SearchCompleted) error {
	if !a.Enabled() {
		return nil
	}
	payload := evt.Raw
	if len(payload) == 0 {
		// Some callers only keep the normalized slice; snapshot that instead.
		payload, _ = json.Marshal(map[string]any{"businesses": evt.Businesses})
	}
	in := store.UpsertInput{
		Provider:    evt.Provider,
		Endpoint:    evt.Endpoint,
		Query:       evt.Query,
		PayloadJSON: payload,
		Businesses:  make([]store.BusinessRow, 0, len(evt.Businesses)),
	}
	for _, b := range evt.Businesses {
		in.Businesses = append(in.Businesses, toRow(b))
	}
	return a.Store.WriteSnapshotAndUpsert(ctx, in)
}

func toRow(b yelp.Business) store.BusinessRow {
	row := store.BusinessRow{
		ID:      b.ID,
		Name:    b.Name,
		Reviews: sqlNullInt(int64(b.Reviews)),
		Price:   sqlNullStringPtr(b.Price),
		Image:   sqlNullStringPtr(b.Image),
		Phone:   sqlNullStringPtr(b.Phone),
		URL:     sqlNullStringPtr(b.URL),
	}
	if b.Rating != nil {
		row.Rating = sql.NullFloat64{Float64: *b.Rating, Valid: true}
	}
	if b.Coordinates != nil {
		row.Lat = sql.NullFloat64{Float64: b.Coordinates.Latitude, Valid: true}
		row.Lon = sql.NullFloat64{Float64: b.Coordinates.Longitude, Valid: true}
	}
	if len(b.Tags) > 0 {
		if tags, err := json.Marshal(b.Tags); err == nil {
			row.TagsJSON = tags
		}
	}
	return row
}

func sqlNullInt(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}

func sqlNullStringPtr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Runner consumes the search event stream until ctx is cancelled.
type Runner struct {
	Pub      events.Publisher
	Archiver *Archiver
	Timeout  time.Duration
}

func (r *Runner) Run(ctx context.Context) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	sub := r.Pub.SubscribeSearchCompleted()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sub:
			wctx, cancel := context.WithTimeout(context.Background(), timeout)
			if err := r.Archiver.Write(wctx, evt); err != nil {
				log.Printf("[WARN] archive write failed: %v", err)
			}
			cancel()
		}
	}
}
