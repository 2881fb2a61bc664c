package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists everything gathered for one product.
	Store(ctx context.Context, b *types.Bundle) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Resource names, shared by file names, collections and table rows.
const (
	ResourceReviews  = "reviews"
	ResourceThreads  = "threads"
	ResourceLaunches = "launches"
	ResourceMakers   = "makers"
	ResourceDetails  = "details"
)

// Record is one serializable record with its identifier.
type Record struct {
	ID    string
	Value any
}

// Resource is one named collection of a bundle. Single marks the details
// object, which is written as an object rather than a list.
type Resource struct {
	Name    string
	Records []Record
	Single  bool
}

// Resources splits a bundle into its collections in a fixed order.
// Records without an id get a positional one.
func Resources(b *types.Bundle) []Resource {
	out := []Resource{
		{Name: ResourceReviews, Records: records(b.Reviews, func(r types.Review) string { return r.ID })},
		{Name: ResourceThreads, Records: records(b.Threads, func(t types.Thread) string { return t.ID })},
		{Name: ResourceLaunches, Records: records(b.Launches, func(l types.Launch) string { return l.ID })},
		{Name: ResourceMakers, Records: records(b.Makers, func(m types.Maker) string { return m.ID })},
	}
	details := Resource{Name: ResourceDetails, Single: true}
	if b.Details != nil {
		id := b.Details.ID
		if id == "" {
			id = b.Product
		}
		details.Records = []Record{{ID: id, Value: b.Details}}
	}
	return append(out, details)
}

func records[T any](items []T, id func(T) string) []Record {
	out := make([]Record, 0, len(items))
	for i, it := range items {
		rid := id(it)
		if rid == "" {
			rid = "#" + strconv.Itoa(i)
		}
		out = append(out, Record{ID: rid, Value: it})
	}
	return out
}

// New creates the configured backends, fanning out when more than one type
// is listed.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	var backends []Storage
	for _, t := range cfg.Types {
		s, err := newBackend(ctx, strings.ToLower(t), cfg, logger)
		if err != nil {
			for _, b := range backends {
				b.Close()
			}
			return nil, err
		}
		backends = append(backends, s)
	}
	switch len(backends) {
	case 0:
		return nil, fmt.Errorf("no storage types configured")
	case 1:
		return backends[0], nil
	default:
		return NewMultiStorage(backends, logger), nil
	}
}

func newBackend(ctx context.Context, storageType string, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "mongodb":
		return NewMongoStorage(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	case "postgres":
		return NewPostgresStorage(ctx, cfg.PostgresDSN, logger)
	default:
		return NewFileStorage(storageType, cfg.OutputPath, logger)
	}
}
