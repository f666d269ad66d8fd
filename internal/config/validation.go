package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Validate checks struct tags, then the rules spanning several fields.
func Validate(_ context.Context, cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return validateCrossField(cfg)
}

func validateCrossField(cfg *Config) error {
	if cfg.CompetitionCutoffDate().Before(cfg.HistoryStartDate()) {
		return fmt.Errorf("%w: competition_cutoff %s is before history_start %s",
			ErrInvalidConfig, cfg.CompetitionCutoff, cfg.HistoryStart)
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("%w: schedule %q: %w", ErrInvalidConfig, cfg.Schedule, err)
	}
	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fieldRule(fe)))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func fieldRule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
