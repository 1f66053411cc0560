package cli

import (
	"errors"
	"fmt"
	"testing"

	"mercator-hq/dsm/pkg/model"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		err  *ConfigError
		want string
	}{
		{NewConfigError("server.listen_address", "missing required field"), "config error in server.listen_address: missing required field"},
		{NewConfigError("", "failed to load config"), "config error: failed to load config"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewCommandError("eval", underlying)

	if want := "command eval failed: underlying error"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should find the wrapped error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"generic", errors.New("boom"), ExitFailure},
		{"config", fmt.Errorf("load: %w", NewConfigError("", "bad")), ExitConfig},
		{"invalid model", model.InvalidModel(model.DN{"a"}, "missing type"), ExitInvalidModel},
		{"resolution", NewCommandError("eval", model.ResolutionFailure(model.DN{"a"}, nil, "missing key")), ExitEvaluation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
