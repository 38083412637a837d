package models

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shrimpsizemoose/gradebook/internal/apperr"
)

var rocketIDRegex = regexp.MustCompile(`^R[0-9]{8}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("rocketid", func(fl validator.FieldLevel) bool {
		return rocketIDRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("assignmenttype", func(fl validator.FieldLevel) bool {
		return AssignmentType(fl.Field().String()).Valid()
	})
	return v
}

// ValidateRocketID accepts exactly "R" followed by eight ASCII digits.
func ValidateRocketID(id string) error {
	if !rocketIDRegex.MatchString(id) {
		return apperr.New(apperr.KindInvalidFormat, "Rocket ID must start with 'R' followed by 8 digits, got %q", id)
	}
	return nil
}

// ParseScore parses a raw score. Negative values are accepted and no upper
// bound is applied.
func ParseScore(raw string) (int, error) {
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Wrap(err, apperr.KindInvalidNumber, "score must be a number, got %q", raw)
	}
	return score, nil
}

func ParseMaxScore(raw string) (int, error) {
	maxScore, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Wrap(err, apperr.KindInvalidNumber, "max score must be a number, got %q", raw)
	}
	if maxScore <= 0 {
		return 0, apperr.New(apperr.KindInvalidNumber, "max score must be positive, got %d", maxScore)
	}
	return maxScore, nil
}

func ParseAssignmentID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.KindInvalidNumber, "assignment id must be a positive number, got %q", raw)
	}
	return id, nil
}

func ParseAssignmentType(raw string) (AssignmentType, error) {
	t := AssignmentType(raw)
	if !t.Valid() {
		return "", apperr.New(apperr.KindInvalidType, "type must be %s or %s, got %q", AssignmentHomework, AssignmentTest, raw)
	}
	return t, nil
}

// validateStruct runs the tag rules and maps the first failure onto the
// error taxonomy.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Wrap(err, apperr.KindInternal, "validation failed")
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "assignmenttype":
		return apperr.New(apperr.KindInvalidType, "type must be %s or %s, got %q", AssignmentHomework, AssignmentTest, fe.Value())
	case "gt":
		return apperr.New(apperr.KindInvalidNumber, "%s must be positive, got %v", fe.Field(), fe.Value())
	case "rocketid":
		return apperr.New(apperr.KindInvalidFormat, "Rocket ID must start with 'R' followed by 8 digits, got %q", fe.Value())
	case "required":
		return apperr.New(apperr.KindInvalidFormat, "%s is required", fe.Field())
	default:
		return apperr.New(apperr.KindInvalidFormat, "%s failed %s validation", fe.Field(), fe.Tag())
	}
}
