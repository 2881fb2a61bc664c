package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/HuntGoat/internal/types"
)

// MongoStorage writes each resource to its own collection. Documents carry
// the run and product so repeated runs can be told apart.
type MongoStorage struct {
	client *mongo.Client
	db     *mongo.Database
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewMongoStorage creates a new MongoDB storage backend.
func NewMongoStorage(ctx context.Context, uri, database string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoStorage{
		client: client,
		db:     client.Database(database),
		logger: logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) Store(ctx context.Context, b *types.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, res := range Resources(b) {
		if len(res.Records) == 0 {
			continue
		}
		docs, err := mongoDocs(b, res)
		if err != nil {
			return &types.StorageError{Backend: "mongodb", Err: err}
		}
		if _, err := s.db.Collection(res.Name).InsertMany(ctx, docs); err != nil {
			return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("insert %s: %w", res.Name, err)}
		}
		s.count += len(docs)
	}

	s.logger.Debug("bundle stored in mongodb", "product", b.Product, "total", s.count)
	return nil
}

// mongoDocs converts records through their JSON form so documents use the
// same field names as the file outputs.
func mongoDocs(b *types.Bundle, res Resource) ([]any, error) {
	docs := make([]any, 0, len(res.Records))
	for _, r := range res.Records {
		raw, err := json.Marshal(r.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", res.Name, r.ID, err)
		}
		var doc bson.M
		if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
			return nil, fmt.Errorf("convert %s %s: %w", res.Name, r.ID, err)
		}
		doc["_run_id"] = b.RunID
		doc["_product"] = b.Product
		doc["_record_id"] = r.ID
		doc["_fetched_at"] = b.FetchedAt
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_records", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes bundles to multiple backends in turn.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

// Store writes to every backend even after a failure and returns the
// failures joined.
func (s *MultiStorage) Store(ctx context.Context, b *types.Bundle) error {
	var errs []error
	for _, backend := range s.backends {
		if err := backend.Store(ctx, b); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *MultiStorage) Close() error {
	var errs []error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
