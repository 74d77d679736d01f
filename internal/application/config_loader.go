package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// ConfigLoader layers and validates RunConfig values.
type ConfigLoader struct {
	validator *validator.Validate
}

// NewConfigLoader creates a loader with the custom validators registered.
// NewConfigLoader returns an error if validator registration fails.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := RegisterRunConfigValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &ConfigLoader{validator: v}, nil
}

// ApplyFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current value; unknown keys are rejected.
func (cl *ConfigLoader) ApplyFile(cfg *RunConfig, path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return ports.NewConfigError("conf", err)
	}
	return cl.ApplyYAML(cfg, data)
}

// ApplyYAML overlays YAML data onto cfg.
func (cl *ConfigLoader) ApplyYAML(cfg *RunConfig, data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return ports.NewConfigError("conf", fmt.Errorf("YAML decode failed: %w", err))
	}
	return nil
}

// ApplyEnvMap overlays the GAMBIT_* entries of vars onto cfg. Callers
// pass the process environment as a map so runs can be isolated in tests.
func (cl *ConfigLoader) ApplyEnvMap(cfg *RunConfig, vars map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return ports.NewConfigError("env", fmt.Errorf("parse env: %w", err))
	}
	return nil
}

// Validate checks cfg with struct tags and the rules that span fields.
// Validate returns a *domain.ValidationError listing every problem.
func (cl *ConfigLoader) Validate(cfg *RunConfig) error {
	verr := domain.NewValidationError("RunConfig")

	if err := cl.validator.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("struct validation failed: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.AddError(describeFieldError(fe))
		}
	}

	if cfg.Focus && len(cfg.StrategyList) != 2 {
		verr.AddError(fmt.Sprintf("focus requires exactly two strategies in strategy_list, got %d", len(cfg.StrategyList)))
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// describeFieldError renders a validator failure as one readable line.
func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "RunConfig.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	case "game":
		return fmt.Sprintf("%s must be one of %v, got %q", field, domain.Games(), fmt.Sprint(fe.Value()))
	case "rounddirective":
		return fmt.Sprintf("%s must be between 1 and %d or %d, got %v",
			field, domain.MaxRounds, domain.EngineChosenRounds, fe.Value())
	case "strategyname":
		return fmt.Sprintf("%s is not a valid strategy name: %q", field, fmt.Sprint(fe.Value()))
	case "unique":
		return field + " must not contain duplicates"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Sprintf("%s failed %s, got %v", field, fe.Tag(), fe.Value())
	}
}
