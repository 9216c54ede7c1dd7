package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "with field",
			err:  NewConfigError("gateway.listen_address", "missing required field"),
			want: "config error in gateway.listen_address: missing required field",
		},
		{
			name: "without field",
			err:  NewConfigError("", "failed to load config"),
			want: "config error: failed to load config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlying := errors.New("bind failed")
	err := NewCommandError("run", underlying)

	if err.Error() != "command run failed: bind failed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("CommandError does not unwrap to the underlying error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitError},
		{"command error", NewCommandError("run", errors.New("boom")), ExitError},
		{"config error", NewConfigError("auth.mode", "bad"), ExitConfig},
		{"wrapped config error", fmt.Errorf("outer: %w", NewConfigError("", "bad")), ExitConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
