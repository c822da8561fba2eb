package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that every target session is well formed.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := validateWeek("weekly_targets", c.WeeklyTargets); err != nil {
		return err
	}
	for _, s := range c.Semesters {
		if s.EndDate < s.StartDate {
			return fmt.Errorf("%w: semester %q ends before it starts", ErrInvalid, s.Name)
		}
		if err := validateWeek("semester "+s.Name, s.WeeklyTargets); err != nil {
			return err
		}
	}
	return nil
}

func validateWeek(where string, week [][]TargetSpec) error {
	for day, specs := range week {
		for i, spec := range specs {
			if _, err := spec.Session(); err != nil {
				return fmt.Errorf("%s[%d][%d]: %w", where, day, i, err)
			}
		}
	}
	return nil
}
