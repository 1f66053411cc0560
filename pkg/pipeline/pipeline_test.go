package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/dsm/pkg/model"
)

// TestAdmit tests the built-in filters.
func TestAdmit(t *testing.T) {
	p := New()

	tests := []struct {
		name    string
		filter  string
		args    map[string]any
		item    any
		want    bool
		wantErr error
	}{
		{name: "default admits", filter: "", item: "anything", want: true},
		{name: "empty key rejected", filter: FilterDictKeyIsEmpty, args: map[string]any{"key": "status"}, item: map[string]any{"status": ""}, want: false},
		{name: "missing key rejected", filter: FilterDictKeyIsEmpty, args: map[string]any{"key": "status"}, item: map[string]any{}, want: false},
		{name: "set key admitted", filter: FilterDictKeyIsEmpty, args: map[string]any{"key": "status"}, item: map[string]any{"status": "True"}, want: true},
		{name: "zero rejected", filter: FilterDictKeyIsEmpty, args: map[string]any{"key": "n"}, item: map[string]any{"n": 0}, want: false},
		{name: "non-record item", filter: FilterDictKeyIsEmpty, args: map[string]any{"key": "status"}, item: "text", wantErr: model.ErrResolution},
		{name: "not_contains keeps matches", filter: FilterNotContains, args: map[string]any{"arg": "10"}, item: "interval 10", want: true},
		{name: "not_contains drops others", filter: FilterNotContains, args: map[string]any{"arg": "10"}, item: "Hi there", want: false},
		{name: "contains drops matches", filter: FilterContains, args: map[string]any{"arg": "10"}, item: "interval 10", want: false},
		{name: "contains keeps others", filter: FilterContains, args: map[string]any{"arg": "10"}, item: "Hi there", want: true},
		{name: "contains list membership", filter: FilterContains, args: map[string]any{"arg": 2}, item: []any{1, 2}, want: false},
		{name: "contains record key", filter: FilterNotContains, args: map[string]any{"arg": "id"}, item: map[string]any{"id": 1}, want: true},
		{name: "missing arg", filter: FilterContains, args: map[string]any{}, item: "x", wantErr: model.ErrResolution},
		{name: "unknown filter", filter: "nope", item: "x", wantErr: model.ErrInvalidModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &model.Source{Type: "json_key", FilterType: tt.filter, FilterArgs: tt.args}
			got, err := p.Admit(src, model.DN{"options"}, tt.item)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Admit() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Admit() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Admit() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestApply tests the built-in transforms and the failure policy.
func TestApply(t *testing.T) {
	p := New()

	tests := []struct {
		name    string
		src     *model.Source
		item    any
		want    any
		wantErr error
	}{
		{
			name: "no postformat",
			src:  &model.Source{Type: "index"},
			item: 5,
			want: 5,
		},
		{
			name: "regex search",
			src:  &model.Source{Postformat: &model.Postformat{Type: PostformatRegexSearch, Args: map[string]any{"regex": `(\d+)`}}},
			item: "apple_21",
			want: "21",
		},
		{
			name: "regex search default",
			src:  &model.Source{Postformat: &model.Postformat{Type: PostformatRegexSearch, Args: map[string]any{"regex": `(\d+)`, "default": "NaN"}}},
			item: "apple",
			want: "NaN",
		},
		{
			name:    "regex search without default",
			src:     &model.Source{Postformat: &model.Postformat{Type: PostformatRegexSearch, Args: map[string]any{"regex": `(\d+)`}}},
			item:    "apple",
			wantErr: model.ErrPostformat,
		},
		{
			name: "strptime timestamp",
			src:  &model.Source{Postformat: &model.Postformat{Type: PostformatRegexToISOTimestamp, Args: map[string]any{"format": "%Y%m%d_%H%M%S"}}},
			item: "20200629_105645",
			want: "2020-06-29T10:56:45",
		},
		{
			name: "epoch milliseconds",
			src:  &model.Source{Postformat: &model.Postformat{Type: PostformatIntToISOTimestamp, Args: map[string]any{}}},
			item: 1593428205000,
			want: "2020-06-29T10:56:45",
		},
		{
			name: "epoch milliseconds with fraction",
			src:  &model.Source{Postformat: &model.Postformat{Type: PostformatIntToISOTimestamp, Args: map[string]any{}}},
			item: "1593428205123",
			want: "2020-06-29T10:56:45.123000",
		},
		{
			name: "zero-padded epoch string is decimal",
			src:  &model.Source{Postformat: &model.Postformat{Type: PostformatIntToISOTimestamp, Args: map[string]any{}}},
			item: "0123",
			want: "1970-01-01T00:00:00.123000",
		},
		{
			name:    "hex epoch string is rejected",
			src:     &model.Source{Postformat: &model.Postformat{Type: PostformatIntToISOTimestamp, Args: map[string]any{}}},
			item:    "0x10",
			wantErr: model.ErrPostformat,
		},
		{
			name: "fail-silent keeps raw item",
			src:  &model.Source{Postformat: &model.Postformat{Type: PostformatIntToISOTimestamp, Args: map[string]any{"fail-silent": true}}},
			item: "not a number",
			want: "not a number",
		},
		{
			name:    "transform failure",
			src:     &model.Source{Postformat: &model.Postformat{Type: PostformatIntToISOTimestamp, Args: map[string]any{}}},
			item:    "not a number",
			wantErr: model.ErrPostformat,
		},
		{
			name: "source default recovers",
			src: &model.Source{
				Postformat: &model.Postformat{Type: PostformatIntToISOTimestamp, Args: map[string]any{}},
				Default:    "unknown", HasDefault: true,
			},
			item: "not a number",
			want: "unknown",
		},
		{
			name:    "unknown postformat",
			src:     &model.Source{Postformat: &model.Postformat{Type: "nope"}},
			item:    "x",
			wantErr: model.ErrInvalidModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Apply(tt.src, model.DN{"chart", "value"}, tt.item)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestFormatISO tests timestamp rendering.
func TestFormatISO(t *testing.T) {
	ts := time.Date(2020, 6, 29, 12, 56, 45, 0, time.FixedZone("CEST", 2*60*60))
	if got := FormatISO(ts); got != "2020-06-29T10:56:45" {
		t.Errorf("FormatISO() = %q", got)
	}
	ts = ts.Add(1500 * time.Microsecond)
	if got := FormatISO(ts); got != "2020-06-29T10:56:45.001500" {
		t.Errorf("FormatISO() = %q", got)
	}
}

// TestRegistryNames tests the built-in names.
func TestRegistryNames(t *testing.T) {
	p := New()
	if diff := cmp.Diff([]string{"contains", "default", "dict_key_is_empty", "not_contains"}, p.Filters.Names()); diff != "" {
		t.Errorf("filter names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"default", "int_to_iso_timestamp", "regex_search", "regex_to_iso_timestamp"}, p.Postformats.Names()); diff != "" {
		t.Errorf("postformat names mismatch (-want +got):\n%s", diff)
	}
	if err := p.Filters.Register(FilterDefault, admitAll); err == nil {
		t.Error("Register() of a duplicate filter should fail")
	}
}
