package planner

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/lexbot/pkg/dates"
	"github.com/example/lexbot/pkg/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report problems by json name, which is what users see in messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError describes one invalid field of a plan
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every problem found in a plan
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid study plan: " + strings.Join(parts, "; ")
}

// Validate checks a plan before it is stored. Weights below one, a daily
// budget outside 1..24 hours, an empty subject list and an exam more than
// MaxHorizonDays after today are rejected here so the generator never sees them.
func Validate(plan models.StudyPlan, today time.Time) error {
	out := &ValidationError{}

	if err := validate.Struct(plan); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate plan: %w", err)
		}
		for _, fe := range verrs {
			out.Fields = append(out.Fields, FieldError{
				Field:   fieldPath(fe),
				Message: describe(fe),
			})
		}
	}

	if exam, err := dates.Parse(plan.ExamDate); err == nil && dates.DaysBetween(dates.Of(today), exam) > MaxHorizonDays {
		out.Fields = append(out.Fields, FieldError{
			Field:   "exam_date",
			Message: fmt.Sprintf("must be at most %d days from today", MaxHorizonDays),
		})
	}

	if len(out.Fields) == 0 {
		return nil
	}
	return out
}

// fieldPath strips the struct name, "StudyPlan.subjects[0].weight" -> "subjects[0].weight"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "needs at least " + fe.Param() + " entry"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "datetime":
		return "must be a date like 2006-01-02"
	case "hexcolor":
		return "must be a color like #1f77b4"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
