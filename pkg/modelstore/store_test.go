package modelstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/dsm/pkg/config"
	"mercator-hq/dsm/pkg/model"
	"mercator-hq/dsm/pkg/telemetry/logging"
)

const validModel = `
type: dict
nested:
  host:
    type: string
    source: {type: return_value, value: r1}
`

const untypedModel = `
nested:
  host:
    source: {type: return_value, value: r1}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newStore(t *testing.T, path string, strict bool, opts ...Option) *Store {
	t.Helper()
	cfg := &config.ModelsConfig{Path: path, Debounce: 20 * time.Millisecond, Strict: strict}
	return New(cfg, logging.Discard(), opts...)
}

// structureValidator runs model.Validate without a catalog.
type structureValidator struct{}

func (structureValidator) Validate(root *model.Node) error {
	return model.Validate(root, nil)
}

type fakeRecorder struct {
	success, failure int
	loaded           int
}

func (f *fakeRecorder) RecordModelReload(success bool, loaded int) {
	if success {
		f.success++
	} else {
		f.failure++
	}
	f.loaded = loaded
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "monitor.yaml", validModel)
	writeFile(t, dir, "arp.json", `{"type": "dict", "nested": {}}`)
	writeFile(t, dir, "README.md", "not a model")
	writeFile(t, dir, ".hidden.yaml", "::: broken")

	rec := &fakeRecorder{}
	s := newStore(t, dir, false, WithRecorder(rec))
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var names []string
	for _, info := range s.List() {
		names = append(names, info.Name)
	}
	if diff := cmp.Diff([]string{"arp", "monitor"}, names); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	entry, err := s.Get("monitor")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry.Root.Type != model.KindDict {
		t.Errorf("root type = %q", entry.Root.Type)
	}
	if rec.success != 1 || rec.loaded != 2 {
		t.Errorf("recorder = %+v", rec)
	}
	if err := s.Check(context.Background()); err != nil {
		t.Errorf("Check() error = %v", err)
	}
}

func TestLoadSingleFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "monitor.yml", validModel)

	s := newStore(t, path, true)
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	if _, err := s.Get("monitor"); err != nil {
		t.Errorf("Get() error = %v", err)
	}
}

func TestGetUnknown(t *testing.T) {
	s := newStore(t, t.TempDir(), false)
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		strict  bool
		wantErr string
	}{
		{
			name:    "duplicate stem",
			files:   map[string]string{"a.yaml": validModel, "a.json": `{"type": "dict"}`},
			wantErr: `model "a" defined by both`,
		},
		{
			name:    "syntax error",
			files:   map[string]string{"bad.yaml": "type: [dict"},
			wantErr: "bad.yaml",
		},
		{
			name:    "non mapping root",
			files:   map[string]string{"list.yaml": "- a\n- b\n"},
			wantErr: "model root must be a mapping",
		},
		{
			name:    "strict rejects invalid model",
			files:   map[string]string{"m.yaml": untypedModel},
			strict:  true,
			wantErr: `model "m"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}

			rec := &fakeRecorder{}
			s := newStore(t, dir, tt.strict, WithValidator(structureValidator{}), WithRecorder(rec))
			err := s.Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
			if rec.failure != 1 {
				t.Errorf("expected a failed reload to be recorded, got %+v", rec)
			}
			if s.LastError() == nil {
				t.Error("LastError() should report the failure")
			}
			if err := s.Check(context.Background()); err == nil {
				t.Error("Check() should fail with no models")
			}
		})
	}
}

func TestLoadNonStrictKeepsInvalidModel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.yaml", untypedModel)

	s := newStore(t, dir, false, WithValidator(structureValidator{}))
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	entry, err := s.Get("m")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !errors.Is(entry.Problems, model.ErrInvalidModel) {
		t.Errorf("Problems = %v, want invalid model", entry.Problems)
	}
	if infos := s.List(); len(infos) != 1 || infos[0].Valid {
		t.Errorf("List() = %+v, want one invalid model", infos)
	}
}

func TestFailedReloadKeepsPreviousModels(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "monitor.yaml", validModel)

	s := newStore(t, dir, false)
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	writeFile(t, dir, "broken.yaml", "type: [dict")
	if err := s.Load(); err == nil {
		t.Fatal("expected reload to fail")
	}

	if _, err := s.Get("monitor"); err != nil {
		t.Errorf("previous model lost after failed reload: %v", err)
	}
	if err := s.Check(context.Background()); err != nil {
		t.Errorf("Check() error = %v", err)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "monitor.yaml", validModel)

	s := newStore(t, dir, false)
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "arp.yaml", validModel)

	deadline := time.Now().Add(3 * time.Second)
	for s.Len() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("watch did not reload, models = %+v", s.List())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32

	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}

	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran after Stop, calls = %d", got)
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"models/monitor.yaml": "monitor",
		"arp.json":            "arp",
		"/a/b/c.d.yml":        "c.d",
	}
	for path, want := range tests {
		if got := Stem(path); got != want {
			t.Errorf("Stem(%q) = %q, want %q", path, got, want)
		}
	}
}
