package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IshaanNene/HuntGoat/internal/types"
)

const createRecordsTable = `CREATE TABLE IF NOT EXISTS crawl_records (
	run_id     TEXT        NOT NULL,
	product    TEXT        NOT NULL,
	resource   TEXT        NOT NULL,
	record_id  TEXT        NOT NULL,
	payload    JSONB       NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, product, resource, record_id)
)`

const upsertRecord = `INSERT INTO crawl_records
	(run_id, product, resource, record_id, payload, fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (run_id, product, resource, record_id)
	DO UPDATE SET payload = EXCLUDED.payload, fetched_at = EXCLUDED.fetched_at`

// PostgresStorage writes every record as a JSONB row of crawl_records.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	count  int
	logger *slog.Logger
}

// NewPostgresStorage connects and ensures the records table exists.
func NewPostgresStorage(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStorage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, &types.StorageError{Backend: "postgres", Err: fmt.Errorf("parse dsn: %w", err)}
	}
	cfg.MaxConns = 2

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &types.StorageError{Backend: "postgres", Err: fmt.Errorf("connect: %w", err)}
	}
	if _, err := pool.Exec(ctx, createRecordsTable); err != nil {
		pool.Close()
		return nil, &types.StorageError{Backend: "postgres", Err: fmt.Errorf("create table: %w", err)}
	}

	return &PostgresStorage{
		pool:   pool,
		logger: logger.With("component", "postgres_storage"),
	}, nil
}

func (s *PostgresStorage) Name() string { return "postgres" }

// Row is one crawl_records row.
type Row struct {
	RunID     string
	Product   string
	Resource  string
	RecordID  string
	Payload   []byte
	FetchedAt time.Time
}

// Rows converts a bundle into table rows.
func Rows(b *types.Bundle) ([]Row, error) {
	var rows []Row
	for _, res := range Resources(b) {
		for _, r := range res.Records {
			payload, err := json.Marshal(r.Value)
			if err != nil {
				return nil, fmt.Errorf("encode %s %s: %w", res.Name, r.ID, err)
			}
			rows = append(rows, Row{
				RunID:     b.RunID,
				Product:   b.Product,
				Resource:  res.Name,
				RecordID:  r.ID,
				Payload:   payload,
				FetchedAt: b.FetchedAt,
			})
		}
	}
	return rows, nil
}

func (s *PostgresStorage) Store(ctx context.Context, b *types.Bundle) error {
	rows, err := Rows(b)
	if err != nil {
		return &types.StorageError{Backend: "postgres", Err: err}
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &types.StorageError{Backend: "postgres", Err: err}
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertRecord, r.RunID, r.Product, r.Resource, r.RecordID, r.Payload, r.FetchedAt)
	}
	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return &types.StorageError{Backend: "postgres", Err: fmt.Errorf("upsert: %w", err)}
		}
	}
	if err := br.Close(); err != nil {
		return &types.StorageError{Backend: "postgres", Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return &types.StorageError{Backend: "postgres", Err: fmt.Errorf("commit: %w", err)}
	}

	s.count += len(rows)
	s.logger.Debug("bundle stored in postgres", "product", b.Product, "rows", len(rows))
	return nil
}

func (s *PostgresStorage) Close() error {
	s.logger.Info("postgres storage closing", "total_records", s.count)
	s.pool.Close()
	return nil
}
