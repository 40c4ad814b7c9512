package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct{ DB *sql.DB }

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE TABLE IF NOT EXISTS search_snapshots (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            provider       TEXT NOT NULL,
            endpoint       TEXT NOT NULL,
            query          TEXT,
            payload        JSONB NOT NULL,
            payload_sha256 TEXT NOT NULL,
            fetched_at     TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_provider ON search_snapshots(provider, endpoint, fetched_at DESC);`,
		`CREATE TABLE IF NOT EXISTS businesses (
            id            TEXT PRIMARY KEY,
            name          TEXT NOT NULL,
            rating        DOUBLE PRECISION,
            reviews       INTEGER,
            price         TEXT,
            image         TEXT,
            phone         TEXT,
            url           TEXT,
            lat           DOUBLE PRECISION,
            lon           DOUBLE PRECISION,
            tags          JSONB,
            first_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            last_seen_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
            times_seen    INT NOT NULL DEFAULT 1
        );`,
		`CREATE INDEX IF NOT EXISTS idx_businesses_name ON businesses(name);`,
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

type BusinessRow struct {
	ID       string
	Name     string
	Rating   sql.NullFloat64
	Reviews  sql.NullInt64
	Price    sql.NullString
	Image    sql.NullString
	Phone    sql.NullString
	URL      sql.NullString
	Lat      sql.NullFloat64
	Lon      sql.NullFloat64
	TagsJSON []byte
}

type UpsertInput struct {
	Provider    string
	Endpoint    string
	Query       string
	PayloadJSON []byte
	Businesses  []BusinessRow
}

// WriteSnapshotAndUpsert records the raw provider payload and refreshes the
// businesses it mentioned, all in one transaction.
func (s *Store) WriteSnapshotAndUpsert(ctx context.Context, in UpsertInput) error {
	if s.DB == nil {
		return errors.New("nil db")
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sum := sha256.Sum256(in.PayloadJSON)
	sha := hex.EncodeToString(sum[:])
	if _, err = tx.ExecContext(ctx, `
        INSERT INTO search_snapshots (provider, endpoint, query, payload, payload_sha256)
        VALUES ($1,$2,$3,$4,$5)
    `, in.Provider, in.Endpoint, in.Query, string(in.PayloadJSON), sha); err != nil {
		return err
	}

	for _, b := range in.Businesses {
		if b.ID == "" || b.Name == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
            INSERT INTO businesses (id, name, rating, reviews, price, image, phone, url, lat, lon, tags)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
            ON CONFLICT (id)
            DO UPDATE SET name=EXCLUDED.name, rating=EXCLUDED.rating, reviews=EXCLUDED.reviews,
                price=EXCLUDED.price, image=EXCLUDED.image, phone=EXCLUDED.phone, url=EXCLUDED.url,
                lat=EXCLUDED.lat, lon=EXCLUDED.lon, tags=EXCLUDED.tags,
                last_seen_at=now(), times_seen=businesses.times_seen+1`,
			b.ID, b.Name, b.Rating, b.Reviews, b.Price, b.Image, b.Phone, b.URL, b.Lat, b.Lon, nullableJSON(b.TagsJSON),
		); err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
