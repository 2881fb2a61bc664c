package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/IshaanNene/HuntGoat/internal/types"
)

// productDir creates and returns <outputDir>/<product>.
func productDir(outputDir, product string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + product))
	if name == "/" || name == "." {
		return "", fmt.Errorf("invalid product name %q", product)
	}
	dir := filepath.Join(outputDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}

// writeFile writes via a temp file and rename so readers never see a
// partial file.
func writeFile(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// --- JSON Storage ---

// JSONStorage writes one indented JSON file per resource.
type JSONStorage struct {
	outputDir string
	mu        sync.Mutex
	count     int
	logger    *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputDir string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &JSONStorage{
		outputDir: outputDir,
		logger:    logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(_ context.Context, b *types.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := productDir(s.outputDir, b.Product)
	if err != nil {
		return err
	}
	for _, res := range Resources(b) {
		var value any
		if res.Single {
			if len(res.Records) > 0 {
				value = res.Records[0].Value
			}
		} else {
			list := make([]any, len(res.Records))
			for i, r := range res.Records {
				list[i] = r.Value
			}
			value = list
		}

		path := filepath.Join(dir, res.Name+".json")
		err := writeFile(path, func(f *os.File) error {
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			if err := enc.Encode(value); err != nil {
				return fmt.Errorf("encode JSON: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		s.count += len(res.Records)
	}

	s.logger.Info("JSON written", "dir", dir, "product", b.Product)
	return nil
}

func (s *JSONStorage) Close() error {
	s.logger.Debug("json storage closing", "total_records", s.count)
	return nil
}

// --- JSONL Storage ---

// JSONLStorage writes newline-delimited JSON, one record per line.
type JSONLStorage struct {
	outputDir string
	mu        sync.Mutex
	count     int
	logger    *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage.
func NewJSONLStorage(outputDir string, logger *slog.Logger) (*JSONLStorage, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &JSONLStorage{
		outputDir: outputDir,
		logger:    logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(_ context.Context, b *types.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := productDir(s.outputDir, b.Product)
	if err != nil {
		return err
	}
	for _, res := range Resources(b) {
		path := filepath.Join(dir, res.Name+".jsonl")
		err := writeFile(path, func(f *os.File) error {
			enc := json.NewEncoder(f)
			for _, r := range res.Records {
				if err := enc.Encode(r.Value); err != nil {
					return fmt.Errorf("encode JSONL: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		s.count += len(res.Records)
	}
	s.logger.Info("JSONL written", "dir", dir, "product", b.Product)
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Debug("jsonl storage closing", "total_records", s.count)
	return nil
}

// --- CSV Storage ---

// CSVStorage writes each resource as a CSV table. Nested objects are
// flattened into dotted columns and lists are embedded as JSON.
type CSVStorage struct {
	outputDir string
	mu        sync.Mutex
	count     int
	logger    *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputDir string, logger *slog.Logger) (*CSVStorage, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSVStorage{
		outputDir: outputDir,
		logger:    logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(_ context.Context, b *types.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := productDir(s.outputDir, b.Product)
	if err != nil {
		return err
	}
	for _, res := range Resources(b) {
		rows := make([]map[string]string, 0, len(res.Records))
		headerSet := map[string]struct{}{}
		for _, r := range res.Records {
			flat, err := Flatten(r.Value)
			if err != nil {
				return fmt.Errorf("flatten %s %s: %w", res.Name, r.ID, err)
			}
			for k := range flat {
				headerSet[k] = struct{}{}
			}
			rows = append(rows, flat)
		}
		headers := make([]string, 0, len(headerSet))
		for k := range headerSet {
			headers = append(headers, k)
		}
		sort.Strings(headers)

		path := filepath.Join(dir, res.Name+".csv")
		err := writeFile(path, func(f *os.File) error {
			w := csv.NewWriter(f)
			if err := w.Write(headers); err != nil {
				return fmt.Errorf("write CSV header: %w", err)
			}
			row := make([]string, len(headers))
			for _, flat := range rows {
				for i, h := range headers {
					row[i] = flat[h]
				}
				if err := w.Write(row); err != nil {
					return fmt.Errorf("write CSV row: %w", err)
				}
			}
			w.Flush()
			return w.Error()
		})
		if err != nil {
			return err
		}
		s.count += len(rows)
	}
	s.logger.Info("CSV written", "dir", dir, "product", b.Product)
	return nil
}

func (s *CSVStorage) Close() error {
	s.logger.Debug("csv storage closing", "total_records", s.count)
	return nil
}

// Flatten encodes v as JSON and flattens the resulting object into string
// columns keyed by dotted paths.
func Flatten(v any) (map[string]string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(obj))
	flattenInto(out, "", obj)
	return out, nil
}

func flattenInto(out map[string]string, prefix string, obj map[string]any) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case nil:
			out[key] = ""
		case map[string]any:
			flattenInto(out, key, val)
		case []any:
			raw, _ := json.Marshal(val)
			out[key] = string(raw)
		case string:
			out[key] = val
		case bool:
			out[key] = strconv.FormatBool(val)
		case float64:
			out[key] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// NewFileStorage creates the appropriate file-based storage by type.
func NewFileStorage(storageType, outputDir string, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "json":
		return NewJSONStorage(outputDir, logger)
	case "jsonl":
		return NewJSONLStorage(outputDir, logger)
	case "csv":
		return NewCSVStorage(outputDir, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
