package application

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-gambit/internal/domain"
)

// RegisterRunConfigValidators registers the custom validation tags used by
// RunConfig on v.
func RegisterRunConfigValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("game", validateGame); err != nil {
		return fmt.Errorf("failed to register game validator: %w", err)
	}

	if err := v.RegisterValidation("rounddirective", validateRoundDirective); err != nil {
		return fmt.Errorf("failed to register rounddirective validator: %w", err)
	}

	if err := v.RegisterValidation("strategyname", validateStrategyName); err != nil {
		return fmt.Errorf("failed to register strategyname validator: %w", err)
	}

	return nil
}

// validateGame accepts the names domain.ParseGame knows.
func validateGame(fl validator.FieldLevel) bool {
	_, err := domain.ParseGame(fl.Field().String())
	return err == nil
}

// validateRoundDirective accepts a bounded positive round count or the
// engine-chosen sentinel.
func validateRoundDirective(fl validator.FieldLevel) bool {
	return domain.RoundDirective(fl.Field().Int()).Valid()
}

// validateStrategyName accepts names a plugin file could produce: not
// empty, no leading dot, no path separators or commas.
func validateStrategyName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\,`)
}
