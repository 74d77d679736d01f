package domain

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryError(t *testing.T) {
	err := NewDiscoveryError("./strategies", fs.ErrNotExist)

	assert.Equal(t, "plugin discovery error: dir=./strategies, err=file does not exist", err.Error())
	assert.True(t, errors.Is(err, fs.ErrNotExist), "Should unwrap to underlying error")
}

func TestPluginLoadError(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		err     error
		wantMsg string
	}{
		{
			name:    "with path",
			path:    "strategies/tit_for_tat.js",
			err:     ErrClassNotFound,
			wantMsg: "plugin load error: strategy=tit_for_tat, file=strategies/tit_for_tat.js, err=class not found",
		},
		{
			name:    "built-in without path",
			err:     ErrUnknownStrategy,
			wantMsg: "plugin load error: strategy=tit_for_tat, err=unknown strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPluginLoadError("tit_for_tat", tt.path, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error())
			assert.True(t, errors.Is(err, tt.err), "Should unwrap to underlying error")
		})
	}
}

func TestResolutionError(t *testing.T) {
	err := NewResolutionError(Combination{"a", "ghost"}, "ghost")

	assert.Equal(t, "resolution error: combination=[a, ghost], strategy=ghost: unknown strategy", err.Error())
	assert.True(t, errors.Is(err, ErrUnknownStrategy))

	var target *ResolutionError
	require.True(t, errors.As(error(err), &target))
	assert.Equal(t, "ghost", target.Name)
}

func TestMissingStrategiesError(t *testing.T) {
	err := &MissingStrategiesError{
		Names:       []string{"tit_for_tatt", "zzz"},
		Suggestions: map[string]string{"tit_for_tatt": "tit_for_tat"},
	}

	assert.Equal(t, "unknown strategy: tit_for_tatt (did you mean tit_for_tat?), zzz", err.Error())
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestEngineError(t *testing.T) {
	base := NewStrategyError("grudger", 7, ErrInvalidMove)
	err := NewEngineError(Prison, Combination{"grudger", "always_defect"}, "play", base)

	assert.Equal(t,
		"engine error: operation=play, game=prison, combination=[grudger, always_defect], "+
			"err=strategy error: strategy=grudger, round=7, err=invalid move",
		err.Error())
	assert.True(t, errors.Is(err, ErrInvalidMove))

	var se *StrategyError
	require.True(t, errors.As(error(err), &se))
	assert.Equal(t, 7, se.Round)
}

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("Config")
		err.AddError("missing game")

		assert.Equal(t, "validation error for Config: missing game", err.Error())
		assert.True(t, err.HasErrors(), "Should have errors")
		assert.Len(t, err.Errors, 1, "Should have one error")
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("Config")
		err.AddError("missing game")
		err.AddError("iterations must be positive")

		assert.Contains(t, err.Error(), "validation errors for Config")
		assert.Len(t, err.Errors, 2, "Should have two errors")
	})

	t.Run("no errors", func(t *testing.T) {
		err := NewValidationError("Config")

		assert.False(t, err.HasErrors(), "Should not have errors")
		assert.Empty(t, err.Errors, "Errors slice should be empty")
	})
}

func TestCommonDomainErrors(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{ErrUnknownGame, "unknown game"},
		{ErrInvalidMove, "invalid move"},
		{ErrUnknownStrategy, "unknown strategy"},
		{ErrClassNotFound, "class not found"},
		{ErrInvalidConfiguration, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error(), "Error message mismatch")
		})
	}
}
