// Package library loads tab files from disk and assembles the catalog.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verte-zerg/tabprompt/internal/model"
	"github.com/verte-zerg/tabprompt/internal/store"
	"github.com/verte-zerg/tabprompt/internal/tabparse"
)

// LoadFile reads and parses a single tab file.
func LoadFile(path string) (model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, err
	}
	return tabparse.Parse(normalizeNewlines(string(data)), filepath.Base(path)), nil
}

// IsTabFile reports whether name looks like a tab file.
func IsTabFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".txt" || ext == ".tab"
}

// LoadDir parses every tab file directly inside dir, in name order. Files
// that cannot be read are skipped with a warning.
func LoadDir(dir string, logger *slog.Logger) ([]model.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tab directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsTabFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	docs := make([]model.Document, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		doc, err := LoadFile(path)
		if err != nil {
			logger.Warn("failed to load tab file", "path", path, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Import parses each path and stores it in st. It returns the stored
// documents.
func Import(ctx context.Context, st *store.Store, paths []string) ([]model.Document, error) {
	docs := make([]model.Document, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return docs, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		doc, err := LoadFile(abs)
		if err != nil {
			return docs, fmt.Errorf("failed to load %s: %w", path, err)
		}
		id, err := st.InsertDocument(ctx, doc, abs)
		if err != nil {
			return docs, fmt.Errorf("failed to store %s: %w", path, err)
		}
		doc.ID = id
		docs = append(docs, doc)
	}
	return docs, nil
}

// Sources says where the catalog comes from.
type Sources struct {
	Store *store.Store
	Dirs  []string
	Files []string
}

// Catalog gathers documents from the library database, then the configured
// directories, then individual files. Missing directories and unreadable
// files are logged and skipped so a bad path never blocks startup.
func Catalog(ctx context.Context, src Sources, logger *slog.Logger) ([]model.Document, error) {
	var docs []model.Document
	if src.Store != nil {
		stored, err := src.Store.ListDocuments(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list library: %w", err)
		}
		docs = append(docs, stored...)
	}
	for _, dir := range src.Dirs {
		loaded, err := LoadDir(dir, logger)
		if err != nil {
			logger.Warn("skipping tab directory", "dir", dir, "error", err)
			continue
		}
		docs = append(docs, loaded...)
	}
	for _, path := range src.Files {
		doc, err := LoadFile(path)
		if err != nil {
			logger.Warn("skipping tab file", "path", path, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	logger.Info("catalog loaded", "documents", len(docs))
	return docs, nil
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
