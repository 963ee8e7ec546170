// Package validation wraps a shared go-playground/validator instance with the
// custom rules used by the planning domain.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/okian/sportplanner/internal/domain/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

// Get returns the singleton validator.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// "clock" accepts 24h HH:MM (leading zero optional on the hour).
		_ = validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			return clockPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// IsClock reports whether s is a valid HH:MM time.
func IsClock(s string) bool { return clockPattern.MatchString(s) }

// Struct validates s and converts the first failure into a
// *model.ValidationError. Additional failures are folded into the reason.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return model.Invalid("", err.Error())
	}
	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs[1:] {
		reasons = append(reasons, fmt.Sprintf("%s %s", lowerFirst(fe.Field()), translate(fe)))
	}
	first := fieldErrs[0]
	reason := translate(first)
	if len(reasons) > 0 {
		reason += "; " + strings.Join(reasons, "; ")
	}
	return model.Invalid(lowerFirst(first.Field()), reason)
}

var withParam = map[string]string{
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"lt":       "must be less than %s",
	"lte":      "must be less than or equal to %s",
	"ltefield": "must not exceed %s",
	"min":      "must have at least %s",
	"max":      "must have at most %s",
	"oneof":    "must be one of: %s",
}

func translate(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "clock":
		return "must be a HH:MM time"
	case "required_if":
		if f := strings.Fields(fe.Param()); len(f) == 2 {
			return fmt.Sprintf("is required when %s is %s", lowerFirst(f[0]), f[1])
		}
		return "is required"
	}
	if tmpl, ok := withParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Param())
	}
	return "failed " + fe.Tag() + " validation"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
