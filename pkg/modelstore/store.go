package modelstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mercator-hq/dsm/pkg/config"
	"mercator-hq/dsm/pkg/model"
)

// Extensions are the model file extensions the store loads.
var Extensions = []string{".yaml", ".yml", ".json"}

// ErrNotFound is returned by Get for an unknown model name.
var ErrNotFound = errors.New("model not found")

// Validator statically checks a parsed model. *engine.Engine implements it.
type Validator interface {
	Validate(root *model.Node) error
}

// Recorder receives load metrics.
type Recorder interface {
	RecordModelReload(success bool, loaded int)
}

// Entry is one loaded model.
type Entry struct {
	Name     string
	Path     string
	Root     *model.Node
	LoadedAt time.Time

	// Problems holds validation errors of a model accepted in non-strict mode.
	Problems error
}

// Info describes a loaded model for listings.
type Info struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	LoadedAt time.Time `json:"loaded_at"`
	Valid    bool      `json:"valid"`
}

// Option configures a Store.
type Option func(*Store)

// WithValidator validates every model on load.
func WithValidator(v Validator) Option {
	return func(s *Store) { s.validator = v }
}

// WithRecorder records load metrics.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// Store holds the models found under a file or directory, keyed by file
// stem. Loads are all-or-nothing: a failed load keeps the previous set.
type Store struct {
	config    *config.ModelsConfig
	validator Validator
	recorder  Recorder
	logger    *slog.Logger

	mu       sync.RWMutex
	models   map[string]*Entry
	lastLoad time.Time
	lastErr  error
}

// New creates an empty store. Call Load before serving.
func New(cfg *config.ModelsConfig, logger *slog.Logger, opts ...Option) *Store {
	if cfg == nil {
		cfg = &config.ModelsConfig{Path: config.DefaultModelsPath, Debounce: config.DefaultModelsDebounce}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		config: cfg,
		logger: logger.With("component", "modelstore"),
		models: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads every model file and replaces the stored set.
func (s *Store) Load() error {
	models, err := s.read()

	s.mu.Lock()
	s.lastLoad = time.Now()
	s.lastErr = err
	if err == nil {
		s.models = models
	}
	count := len(s.models)
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.RecordModelReload(err == nil, count)
	}
	if err != nil {
		s.logger.Error("model load failed", "path", s.config.Path, "error", err)
		return err
	}

	s.logger.Info("models loaded", "path", s.config.Path, "count", count)
	return nil
}

func (s *Store) read() (map[string]*Entry, error) {
	paths, err := modelFiles(s.config.Path)
	if err != nil {
		return nil, err
	}

	models := make(map[string]*Entry, len(paths))
	var problems []string
	now := time.Now().UTC()

	for _, path := range paths {
		name := Stem(path)
		if prev, ok := models[name]; ok {
			problems = append(problems, fmt.Sprintf("model %q defined by both %s and %s", name, prev.Path, path))
			continue
		}

		root, err := model.ParseFile(path)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}

		entry := &Entry{Name: name, Path: path, Root: root, LoadedAt: now}
		if s.validator != nil {
			if verr := s.validator.Validate(root); verr != nil {
				if s.config.Strict {
					problems = append(problems, fmt.Sprintf("model %q: %v", name, verr))
					continue
				}
				entry.Problems = verr
				s.logger.Warn("model has validation errors", "model", name, "error", verr)
			}
		}
		models[name] = entry
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("failed to load models: %s", strings.Join(problems, "; "))
	}
	return models, nil
}

// Get returns the named model.
func (s *Store) Get(name string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return entry, nil
}

// List returns the loaded models sorted by name.
func (s *Store) List() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]Info, 0, len(s.models))
	for _, entry := range s.models {
		infos = append(infos, Info{
			Name:     entry.Name,
			Path:     entry.Path,
			LoadedAt: entry.LoadedAt,
			Valid:    entry.Problems == nil,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Len returns the number of loaded models.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models)
}

// LastError returns the error of the most recent load, if any.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Check is a readiness check: the store must hold at least one model.
func (s *Store) Check(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.models) == 0 {
		if s.lastErr != nil {
			return fmt.Errorf("no models loaded: %w", s.lastErr)
		}
		return errors.New("no models loaded")
	}
	return nil
}

// Watch reloads the store whenever a model file changes. It blocks until
// ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	w, err := NewWatcher(s.config.Path, s.config.Debounce, s.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	return w.Run(ctx, func() {
		_ = s.Load()
	})
}

// Stem returns the model name of a file: its base name without extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// HasModelExtension reports whether path has a model file extension.
func HasModelExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range Extensions {
		if ext == valid {
			return true
		}
	}
	return false
}

// modelFiles lists the model files of a directory, sorted, or returns path
// itself when it names a file. Hidden files are skipped.
func modelFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat model path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !HasModelExtension(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
