package runlog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"mercator-hq/dsm/pkg/model"
)

// Run status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Run is one recorded top-level evaluation.
type Run struct {
	ID        string        `json:"id"`
	Model     string        `json:"model"`
	Mode      string        `json:"mode"`
	Roles     []string      `json:"roles,omitempty"`
	Records   int           `json:"records"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	ErrorDN   string        `json:"error_dn,omitempty"`
	StartedAt time.Time     `json:"started_at"`
}

// NewRun starts a run with a fresh ID.
func NewRun(modelName, mode string, roles []string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Model:     modelName,
		Mode:      mode,
		Roles:     append([]string(nil), roles...),
		StartedAt: time.Now().UTC(),
	}
}

// Finish records the outcome of the run. DN-scoped model errors keep their
// kind and DN.
func (r *Run) Finish(records int, err error) {
	r.Duration = time.Since(r.StartedAt)
	r.Records = records
	if err == nil {
		return
	}

	r.Error = err.Error()
	var me *model.Error
	if errors.As(err, &me) {
		r.ErrorKind = string(me.Kind)
		r.ErrorDN = me.DN.String()
	}
}

// Status returns "success" or "error".
func (r *Run) Status() string {
	if r.Error != "" {
		return StatusError
	}
	return StatusSuccess
}

// Query filters runs. Zero fields match everything.
type Query struct {
	Model  string
	Mode   string
	Status string
	Since  time.Time

	// Limit caps the result size. Zero means 100.
	Limit  int
	Offset int
}

// limit returns the effective result size.
func (q *Query) limit() int {
	if q == nil || q.Limit <= 0 {
		return 100
	}
	return q.Limit
}

// Store persists runs. List returns the newest runs first.
type Store interface {
	Record(ctx context.Context, run *Run) error
	List(ctx context.Context, query *Query) ([]*Run, error)
	Count(ctx context.Context, query *Query) (int64, error)

	// DeleteBefore removes runs started before t.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)

	// DeleteOldest removes all but the newest keep runs.
	DeleteOldest(ctx context.Context, keep int64) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
