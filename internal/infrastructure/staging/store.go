// Package staging persists parsed recipes as one JSON file per identifier.
// The staged folder is the durable handoff between parsing and loading:
// a re-run of the extract phase skips identifiers that already exist here.
package staging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"go.uber.org/zap"
)

// Store implements outbound.StagingStore on the local filesystem.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New creates the staging store and its directory.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}
	return &Store{dir: dir, logger: logger.Named("staging")}, nil
}

func (s *Store) pathFor(identifier string) string {
	return filepath.Join(s.dir, identifier+".json")
}

// Write stages one recipe. Returns created=false without touching the file
// when the identifier is already staged; staged files are immutable.
func (s *Store) Write(ctx context.Context, r *recipe.Recipe) (string, bool, error) {
	if r.Identifier == "" {
		return "", false, fmt.Errorf("recipe has no identifier")
	}
	path := s.pathFor(r.Identifier)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", false, fmt.Errorf("failed to encode staged recipe: %w", err)
	}

	// Temp file plus rename so a crash never leaves a half-written stage.
	tmp, err := os.CreateTemp(s.dir, "."+r.Identifier+".*.tmp")
	if err != nil {
		return "", false, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", false, fmt.Errorf("failed to write staged recipe: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", false, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", false, fmt.Errorf("failed to finalize staged recipe: %w", err)
	}

	s.logger.Debug("Recipe staged",
		zap.String("identifier", r.Identifier),
		zap.String("path", path))
	return path, true, nil
}

// Read loads one staged recipe by path.
func (s *Store) Read(ctx context.Context, path string) (*recipe.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged file: %w", err)
	}
	var r recipe.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("staged file %s is not valid JSON: %w", filepath.Base(path), err)
	}
	return &r, nil
}

// Exists reports whether the identifier is already staged.
func (s *Store) Exists(identifier string) bool {
	_, err := os.Stat(s.pathFor(identifier))
	return err == nil
}

// List returns staged file paths in stable lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list staging dir: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

var _ outbound.StagingStore = (*Store)(nil)
